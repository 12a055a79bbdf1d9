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

package docbox

import (
	"context"
	"strings"
	"testing"

	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/tenant"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCreateDocumentBoxRejectsEmptyScope(t *testing.T) {
	s := NewService(nil, nil)

	_, _, err := s.CreateDocumentBox(context.Background(), &tenant.Instance{}, CreateDocumentBoxRequest{})
	var bad errtypes.IsBadRequest
	assert.ErrorAs(t, err, &bad)
}

func TestUploadFileRejectsEmptyName(t *testing.T) {
	s := NewService(nil, nil)

	_, err := s.UploadFile(context.Background(), &tenant.Instance{}, UploadFileRequest{
		Scope:    "acme",
		FolderID: uuid.New(),
		Mime:     "text/plain",
		Content:  strings.NewReader("test"),
	})
	var bad errtypes.IsBadRequest
	assert.ErrorAs(t, err, &bad)
}

func TestCreateLinkRejectsEmptyValue(t *testing.T) {
	s := NewService(nil, nil)

	_, err := s.CreateLink(context.Background(), &tenant.Instance{}, CreateLinkRequest{
		Scope:    "acme",
		FolderID: uuid.New(),
		Name:     "homepage",
	})
	var bad errtypes.IsBadRequest
	assert.ErrorAs(t, err, &bad)
}

func TestDefaultMaxFileSize(t *testing.T) {
	s := NewService(nil, nil)
	assert.Equal(t, int64(DefaultMaxFileSize), s.maxFileSize)

	s = NewService(nil, &Config{MaxFileSize: 1024})
	assert.Equal(t, int64(1024), s.maxFileSize)
}
