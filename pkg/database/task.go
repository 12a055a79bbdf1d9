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

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a background task.
type TaskStatus string

const (
	// TaskPending marks work that has not finished yet.
	TaskPending TaskStatus = "Pending"
	// TaskCompleted marks work that finished successfully.
	TaskCompleted TaskStatus = "Completed"
	// TaskFailed marks work that finished with an error.
	TaskFailed TaskStatus = "Failed"
)

// Task records the status and output of long running work.
type Task struct {
	ID          uuid.UUID
	Scope       string
	Status      TaskStatus
	Output      []byte
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// CreateTask inserts a pending task row.
func CreateTask(ctx context.Context, db Executor, scope string) (*Task, error) {
	task := &Task{
		ID:        uuid.New(),
		Scope:     scope,
		Status:    TaskPending,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO "docbox_tasks" ("id", "scope", "status", "output", "created_at") VALUES ($1, $2, $3, $4, $5)`,
		task.ID, task.Scope, task.Status, jsonArg(task.Output), task.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return task, nil
}

// FindTask returns the task with id inside scope or nil when unknown.
func FindTask(ctx context.Context, db Executor, scope string, id uuid.UUID) (*Task, error) {
	var t Task
	err := db.QueryRowContext(ctx,
		`SELECT "id", "scope", "status", "output", "created_at", "completed_at"
		 FROM "docbox_tasks" WHERE "scope" = $1 AND "id" = $2`,
		scope, id,
	).Scan(&t.ID, &t.Scope, &t.Status, &t.Output, &t.CreatedAt, &t.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

// CompleteTask writes the terminal status and output of a task.
func CompleteTask(ctx context.Context, db Executor, id uuid.UUID, status TaskStatus, output []byte) error {
	completedAt := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`UPDATE "docbox_tasks" SET "status" = $2, "output" = $3, "completed_at" = $4 WHERE "id" = $1`,
		id, status, jsonArg(output), completedAt,
	)
	return mapError(err)
}

// DeleteExpiredTasks purges tasks created before the cutoff.
func DeleteExpiredTasks(ctx context.Context, db Executor, before time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM "docbox_tasks" WHERE "created_at" < $1`, before)
	if err != nil {
		return 0, mapError(err)
	}
	affected, err := res.RowsAffected()
	return affected, mapError(err)
}
