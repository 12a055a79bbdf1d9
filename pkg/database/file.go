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

// File is an uploaded document. Every persisted file owns an object in the
// tenant bucket at FileKey and a search document keyed by its id.
type File struct {
	ID          uuid.UUID
	FolderID    uuid.UUID
	DocumentBox string
	Name        string
	Mime        string
	Size        int64
	FileKey     string
	Hash        string
	Encrypted   bool
	CreatedAt   time.Time
	CreatedBy   *string
}

const fileColumns = `"id", "folder_id", "document_box", "name", "mime", "size", "file_key", "hash", "encrypted", "created_at", "created_by"`

func scanFile(row interface{ Scan(...interface{}) error }) (*File, error) {
	var f File
	err := row.Scan(&f.ID, &f.FolderID, &f.DocumentBox, &f.Name, &f.Mime, &f.Size, &f.FileKey, &f.Hash, &f.Encrypted, &f.CreatedAt, &f.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFile inserts the file row.
func CreateFile(ctx context.Context, db Executor, f *File) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO "docbox_files" (`+fileColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		f.ID, f.FolderID, f.DocumentBox, f.Name, f.Mime, f.Size, f.FileKey, f.Hash, f.Encrypted, f.CreatedAt, f.CreatedBy,
	)
	return mapError(err)
}

// FindFile returns the file with id inside scope or nil when unknown.
func FindFile(ctx context.Context, db Executor, scope string, id uuid.UUID) (*File, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM "docbox_files" WHERE "document_box" = $1 AND "id" = $2`,
		scope, id,
	)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return f, nil
}

// FindFileByKey returns the file stored under the given object key, used
// to correlate presigned upload notifications.
func FindFileByKey(ctx context.Context, db Executor, scope, fileKey string) (*File, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM "docbox_files" WHERE "document_box" = $1 AND "file_key" = $2`,
		scope, fileKey,
	)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return f, nil
}

// ListFiles returns the files directly inside folder.
func ListFiles(ctx context.Context, db Executor, scope string, folder uuid.UUID) ([]File, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM "docbox_files" WHERE "document_box" = $1 AND "folder_id" = $2 ORDER BY "name"`,
		scope, folder,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, mapError(err)
		}
		files = append(files, *f)
	}
	return files, mapError(rows.Err())
}

// RenameFile updates the file name.
func RenameFile(ctx context.Context, db Executor, id uuid.UUID, name string) error {
	_, err := db.ExecContext(ctx, `UPDATE "docbox_files" SET "name" = $2 WHERE "id" = $1`, id, name)
	return mapError(err)
}

// MoveFile updates the parent folder.
func MoveFile(ctx context.Context, db Executor, id, folder uuid.UUID) error {
	_, err := db.ExecContext(ctx, `UPDATE "docbox_files" SET "folder_id" = $2 WHERE "id" = $1`, id, folder)
	return mapError(err)
}

// DeleteFile removes the file row.
func DeleteFile(ctx context.Context, db Executor, id uuid.UUID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM "docbox_files" WHERE "id" = $1`, id)
	return mapError(err)
}
