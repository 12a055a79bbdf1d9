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

package rollback

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRollbackRunsActionsInReverseOrder(t *testing.T) {
	g := &Guard{}
	var order []string

	g.Add("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	g.Add("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	g.Rollback(context.Background())
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestCommitDisarmsTheGuard(t *testing.T) {
	g := &Guard{}
	ran := false

	g.Add("undo", func(context.Context) error {
		ran = true
		return nil
	})
	g.Commit()
	g.Rollback(context.Background())

	assert.False(t, ran, "committed guards must not roll back")
}

func TestRollbackContinuesPastFailures(t *testing.T) {
	g := &Guard{}
	ran := false

	g.Add("works", func(context.Context) error {
		ran = true
		return nil
	})
	g.Add("fails", func(context.Context) error {
		return errors.New("storage unreachable")
	})

	g.Rollback(context.Background())
	assert.True(t, ran, "failures must not stop the remaining actions")
}

func TestRollbackRunsOnlyOnce(t *testing.T) {
	g := &Guard{}
	runs := 0

	g.Add("undo", func(context.Context) error {
		runs++
		return nil
	})

	g.Rollback(context.Background())
	g.Rollback(context.Background())
	assert.Equal(t, 1, runs)
}
