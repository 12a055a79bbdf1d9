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

// Link is a stored URL inside a folder.
type Link struct {
	ID          uuid.UUID
	FolderID    uuid.UUID
	DocumentBox string
	Name        string
	Value       string
	CreatedAt   time.Time
	CreatedBy   *string
}

const linkColumns = `"id", "folder_id", "document_box", "name", "value", "created_at", "created_by"`

func scanLink(row interface{ Scan(...interface{}) error }) (*Link, error) {
	var l Link
	err := row.Scan(&l.ID, &l.FolderID, &l.DocumentBox, &l.Name, &l.Value, &l.CreatedAt, &l.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLink inserts the link row.
func CreateLink(ctx context.Context, db Executor, l *Link) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO "docbox_links" (`+linkColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.FolderID, l.DocumentBox, l.Name, l.Value, l.CreatedAt, l.CreatedBy,
	)
	return mapError(err)
}

// FindLink returns the link with id inside scope or nil when unknown.
func FindLink(ctx context.Context, db Executor, scope string, id uuid.UUID) (*Link, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM "docbox_links" WHERE "document_box" = $1 AND "id" = $2`,
		scope, id,
	)
	l, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return l, nil
}

// ListLinks returns the links directly inside folder.
func ListLinks(ctx context.Context, db Executor, scope string, folder uuid.UUID) ([]Link, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM "docbox_links" WHERE "document_box" = $1 AND "folder_id" = $2 ORDER BY "name"`,
		scope, folder,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, mapError(err)
		}
		links = append(links, *l)
	}
	return links, mapError(rows.Err())
}

// RenameLink updates the link name.
func RenameLink(ctx context.Context, db Executor, id uuid.UUID, name string) error {
	_, err := db.ExecContext(ctx, `UPDATE "docbox_links" SET "name" = $2 WHERE "id" = $1`, id, name)
	return mapError(err)
}

// UpdateLinkValue updates the stored URL.
func UpdateLinkValue(ctx context.Context, db Executor, id uuid.UUID, value string) error {
	_, err := db.ExecContext(ctx, `UPDATE "docbox_links" SET "value" = $2 WHERE "id" = $1`, id, value)
	return mapError(err)
}

// MoveLink updates the parent folder.
func MoveLink(ctx context.Context, db Executor, id, folder uuid.UUID) error {
	_, err := db.ExecContext(ctx, `UPDATE "docbox_links" SET "folder_id" = $2 WHERE "id" = $1`, id, folder)
	return mapError(err)
}

// DeleteLink removes the link row.
func DeleteLink(ctx context.Context, db Executor, id uuid.UUID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM "docbox_links" WHERE "id" = $1`, id)
	return mapError(err)
}
