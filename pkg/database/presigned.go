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

// PresignedUploadTask tracks a pre issued upload URL. The file metadata is
// only written once the client completed the upload, expired rows and
// their dangling bytes are purged by housekeeping.
type PresignedUploadTask struct {
	ID        uuid.UUID
	Scope     string
	FolderID  uuid.UUID
	Name      string
	Mime      string
	Size      int64
	FileKey   string
	CreatedBy *string
	ExpiresAt time.Time
}

const presignedColumns = `"id", "scope", "folder_id", "name", "mime", "size", "file_key", "created_by", "expires_at"`

func scanPresigned(row interface{ Scan(...interface{}) error }) (*PresignedUploadTask, error) {
	var t PresignedUploadTask
	err := row.Scan(&t.ID, &t.Scope, &t.FolderID, &t.Name, &t.Mime, &t.Size, &t.FileKey, &t.CreatedBy, &t.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreatePresignedUploadTask inserts the tracking row.
func CreatePresignedUploadTask(ctx context.Context, db Executor, t *PresignedUploadTask) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO "docbox_presigned_upload_tasks" (`+presignedColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Scope, t.FolderID, t.Name, t.Mime, t.Size, t.FileKey, t.CreatedBy, t.ExpiresAt,
	)
	return mapError(err)
}

// FindPresignedUploadTaskByKey returns the pending task for an object key
// or nil when no upload is waiting for it.
func FindPresignedUploadTaskByKey(ctx context.Context, db Executor, fileKey string) (*PresignedUploadTask, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+presignedColumns+` FROM "docbox_presigned_upload_tasks" WHERE "file_key" = $1`,
		fileKey,
	)
	t, err := scanPresigned(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

// ListExpiredPresignedUploadTasks returns tasks past their expiry.
func ListExpiredPresignedUploadTasks(ctx context.Context, db Executor, now time.Time) ([]PresignedUploadTask, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+presignedColumns+` FROM "docbox_presigned_upload_tasks" WHERE "expires_at" < $1`,
		now,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var tasks []PresignedUploadTask
	for rows.Next() {
		t, err := scanPresigned(rows)
		if err != nil {
			return nil, mapError(err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, mapError(rows.Err())
}

// DeletePresignedUploadTask removes the tracking row.
func DeletePresignedUploadTask(ctx context.Context, db Executor, id uuid.UUID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM "docbox_presigned_upload_tasks" WHERE "id" = $1`, id)
	return mapError(err)
}
