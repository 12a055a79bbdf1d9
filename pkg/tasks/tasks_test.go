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

package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryDelayGrowsQuadratically(t *testing.T) {
	assert.Equal(t, 60*time.Second, retryDelay(1))
	assert.Equal(t, 240*time.Second, retryDelay(2))
	assert.Equal(t, 540*time.Second, retryDelay(3))
	assert.Equal(t, 960*time.Second, retryDelay(4))
}

func TestRunAndCompleteWritesResult(t *testing.T) {
	r := &Runner{sleep: func(context.Context, time.Duration) {}}

	var gotStatus database.TaskStatus
	var gotOutput []byte
	writes := 0

	r.runAndComplete(context.Background(),
		func(context.Context) (database.TaskStatus, interface{}) {
			return database.TaskCompleted, map[string]int{"deleted": 3}
		},
		func(_ context.Context, status database.TaskStatus, output []byte) error {
			writes++
			gotStatus = status
			gotOutput = output
			return nil
		})

	assert.Equal(t, 1, writes)
	assert.Equal(t, database.TaskCompleted, gotStatus)
	assert.JSONEq(t, `{"deleted":3}`, string(gotOutput))
}

func TestRunAndCompleteRetriesTerminalWrite(t *testing.T) {
	var delays []time.Duration
	r := &Runner{sleep: func(_ context.Context, d time.Duration) {
		delays = append(delays, d)
	}}

	writes := 0
	r.runAndComplete(context.Background(),
		func(context.Context) (database.TaskStatus, interface{}) {
			return database.TaskFailed, nil
		},
		func(context.Context, database.TaskStatus, []byte) error {
			writes++
			if writes < 3 {
				return errors.New("pool exhausted")
			}
			return nil
		})

	assert.Equal(t, 3, writes)
	require.Equal(t, []time.Duration{60 * time.Second, 240 * time.Second}, delays)
}

func TestRunAndCompleteGivesUpAfterFourAttempts(t *testing.T) {
	r := &Runner{sleep: func(context.Context, time.Duration) {}}

	writes := 0
	r.runAndComplete(context.Background(),
		func(context.Context) (database.TaskStatus, interface{}) {
			return database.TaskCompleted, nil
		},
		func(context.Context, database.TaskStatus, []byte) error {
			writes++
			return errors.New("still broken")
		})

	assert.Equal(t, 4, writes)
}
