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
)

// DocumentBox is a root level container, identified by its globally unique
// scope within the tenant.
type DocumentBox struct {
	Scope     string
	CreatedAt time.Time
	CreatedBy *string
}

// CreateDocumentBox inserts the document box row.
func CreateDocumentBox(ctx context.Context, db Executor, box *DocumentBox) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO "docbox_boxes" ("scope", "created_at", "created_by") VALUES ($1, $2, $3)`,
		box.Scope, box.CreatedAt, box.CreatedBy,
	)
	return mapError(err)
}

// FindDocumentBox returns the box for scope or nil when unknown.
func FindDocumentBox(ctx context.Context, db Executor, scope string) (*DocumentBox, error) {
	var box DocumentBox
	err := db.QueryRowContext(ctx,
		`SELECT "scope", "created_at", "created_by" FROM "docbox_boxes" WHERE "scope" = $1`,
		scope,
	).Scan(&box.Scope, &box.CreatedAt, &box.CreatedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &box, nil
}

// ListDocumentBoxes returns a page of boxes ordered by creation time.
func ListDocumentBoxes(ctx context.Context, db Executor, offset, limit int) ([]DocumentBox, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx,
		`SELECT "scope", "created_at", "created_by" FROM "docbox_boxes" ORDER BY "created_at" OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var boxes []DocumentBox
	for rows.Next() {
		var box DocumentBox
		if err := rows.Scan(&box.Scope, &box.CreatedAt, &box.CreatedBy); err != nil {
			return nil, mapError(err)
		}
		boxes = append(boxes, box)
	}
	return boxes, mapError(rows.Err())
}

// DeleteDocumentBox removes the box row, reporting how many rows went away
// so callers can keep deletes idempotent.
func DeleteDocumentBox(ctx context.Context, db Executor, scope string) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM "docbox_boxes" WHERE "scope" = $1`, scope)
	if err != nil {
		return 0, mapError(err)
	}
	affected, err := res.RowsAffected()
	return affected, mapError(err)
}
