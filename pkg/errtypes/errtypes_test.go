// Copyright 2018-2024 CERN
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// In applying this license, CERN does not waive the privileges and immunities
// granted to it by virtue of its status as an Intergovernmental Organization
// or submit itself to any jurisdiction.

package errtypes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsImplementTheirMarkers(t *testing.T) {
	var notFound IsNotFound = NotFound("x")
	var exists IsAlreadyExists = AlreadyExists("x")
	var bad IsBadRequest = BadRequest("x")
	var denied IsPermissionDenied = PermissionDenied("x")
	var malformed IsMalformedContent = MalformedContent("x")
	var transient IsTransient = Transient("x")

	assert.NotNil(t, notFound)
	assert.NotNil(t, exists)
	assert.NotNil(t, bad)
	assert.NotNil(t, denied)
	assert.NotNil(t, malformed)
	assert.NotNil(t, transient)
}

func TestJoinReportsEverySubError(t *testing.T) {
	err := Join(NotFound("folder a"), Transient("db down"))

	msg := err.Error()
	assert.Contains(t, msg, "multiple errors occurred")
	assert.Contains(t, msg, "folder a")
	assert.Contains(t, msg, "db down")
}

func TestJoinUnwrapsForErrorsAs(t *testing.T) {
	err := Join(errors.New("plain"), NotFound("folder"))

	var notFound IsNotFound
	assert.ErrorAs(t, err, &notFound)
}
