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

// Folder is one node of a document box tree. The root folder has a nil
// parent, every other folder has exactly one.
type Folder struct {
	ID             uuid.UUID
	DocumentBox    string
	ParentFolderID *uuid.UUID
	Name           string
	Pinned         bool
	CreatedAt      time.Time
	CreatedBy      *string
}

// IsRoot reports whether the folder is the root of its box.
func (f *Folder) IsRoot() bool { return f.ParentFolderID == nil }

const folderColumns = `"id", "document_box", "parent_folder_id", "name", "pinned", "created_at", "created_by"`

func scanFolder(row interface{ Scan(...interface{}) error }) (*Folder, error) {
	var f Folder
	err := row.Scan(&f.ID, &f.DocumentBox, &f.ParentFolderID, &f.Name, &f.Pinned, &f.CreatedAt, &f.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFolder inserts the folder row.
func CreateFolder(ctx context.Context, db Executor, f *Folder) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO "docbox_folders" (`+folderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.DocumentBox, f.ParentFolderID, f.Name, f.Pinned, f.CreatedAt, f.CreatedBy,
	)
	return mapError(err)
}

// FindFolder returns the folder with id inside scope or nil when unknown.
func FindFolder(ctx context.Context, db Executor, scope string, id uuid.UUID) (*Folder, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM "docbox_folders" WHERE "document_box" = $1 AND "id" = $2`,
		scope, id,
	)
	f, err := scanFolder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return f, nil
}

// FindRootFolder returns the root folder of scope or nil when the box has
// no root yet.
func FindRootFolder(ctx context.Context, db Executor, scope string) (*Folder, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM "docbox_folders" WHERE "document_box" = $1 AND "parent_folder_id" IS NULL`,
		scope,
	)
	f, err := scanFolder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return f, nil
}

// ListChildFolders returns the direct child folders of parent.
func ListChildFolders(ctx context.Context, db Executor, scope string, parent uuid.UUID) ([]Folder, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM "docbox_folders" WHERE "document_box" = $1 AND "parent_folder_id" = $2 ORDER BY "name"`,
		scope, parent,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, mapError(err)
		}
		folders = append(folders, *f)
	}
	return folders, mapError(rows.Err())
}

// RenameFolder updates the folder name.
func RenameFolder(ctx context.Context, db Executor, id uuid.UUID, name string) error {
	_, err := db.ExecContext(ctx, `UPDATE "docbox_folders" SET "name" = $2 WHERE "id" = $1`, id, name)
	return mapError(err)
}

// MoveFolder updates the parent pointer.
func MoveFolder(ctx context.Context, db Executor, id, parent uuid.UUID) error {
	_, err := db.ExecContext(ctx, `UPDATE "docbox_folders" SET "parent_folder_id" = $2 WHERE "id" = $1`, id, parent)
	return mapError(err)
}

// SetFolderPinned updates the pinned flag.
func SetFolderPinned(ctx context.Context, db Executor, id uuid.UUID, pinned bool) error {
	_, err := db.ExecContext(ctx, `UPDATE "docbox_folders" SET "pinned" = $2 WHERE "id" = $1`, id, pinned)
	return mapError(err)
}

// DeleteFolder removes the folder row.
func DeleteFolder(ctx context.Context, db Executor, id uuid.UUID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM "docbox_folders" WHERE "id" = $1`, id)
	return mapError(err)
}
