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

// Package tasks persists the status and output of long running work. The
// task row exists before the work starts, the terminal write is retried,
// losing a result to pool exhaustion is not acceptable.
package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/database"
)

// completeAttempts is how often the terminal write is tried before the
// result is dropped.
const completeAttempts = 4

// retryDelay is the backoff before attempt i (1-based), growing
// quadratically.
func retryDelay(i int) time.Duration {
	return time.Duration(60*i*i) * time.Second
}

// Fn is the unit of background work, returning the terminal status and a
// JSON serialisable output.
type Fn func(ctx context.Context) (database.TaskStatus, interface{})

// Runner spawns background work tied to task rows.
type Runner struct {
	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// NewRunner builds a task runner.
func NewRunner() *Runner {
	return &Runner{sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run inserts a pending task row, spawns fn and returns the row
// immediately. Once fn finishes the terminal status and output are written
// with retries.
func (r *Runner) Run(ctx context.Context, db *sql.DB, scope string, fn Fn) (*database.Task, error) {
	task, err := database.CreateTask(ctx, db, scope)
	if err != nil {
		return nil, err
	}

	// The spawned work outlives the request, only its logger is carried
	// over.
	bg := appctx.WithLogger(context.Background(), appctx.GetLogger(ctx))

	go r.runAndComplete(bg, fn, func(ctx context.Context, status database.TaskStatus, output []byte) error {
		return database.CompleteTask(ctx, db, task.ID, status, output)
	})

	return task, nil
}

func (r *Runner) runAndComplete(ctx context.Context, fn Fn, complete func(ctx context.Context, status database.TaskStatus, output []byte) error) {
	log := appctx.GetLogger(ctx)

	status, output := fn(ctx)

	raw, err := json.Marshal(output)
	if err != nil {
		log.Error().Err(err).Msg("cannot marshal task output")
		status = database.TaskFailed
		raw = nil
	}

	// Retry the terminal write, pool exhaustion must not lose the result.
	for i := 1; i <= completeAttempts; i++ {
		err := complete(ctx, status, raw)
		if err == nil {
			return
		}
		log.Error().Err(err).Int("attempt", i).Msg("failed to mark task as complete")
		if i < completeAttempts {
			r.sleep(ctx, retryDelay(i))
		}
		if ctx.Err() != nil {
			return
		}
	}
}
