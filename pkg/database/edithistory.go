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
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EditTargetType names the entity kind an edit history row belongs to.
type EditTargetType string

const (
	// EditTargetFile marks edits of files.
	EditTargetFile EditTargetType = "File"
	// EditTargetFolder marks edits of folders.
	EditTargetFolder EditTargetType = "Folder"
	// EditTargetLink marks edits of links.
	EditTargetLink EditTargetType = "Link"
)

// EditMetadata describes one edit. Exactly one of the pointers is set.
type EditMetadata struct {
	Rename *EditRename `json:"rename,omitempty"`
	Move   *EditMove   `json:"move,omitempty"`
}

// EditRename records a name change.
type EditRename struct {
	OriginalName string `json:"original_name"`
	NewName      string `json:"new_name"`
}

// EditMove records a parent folder change.
type EditMove struct {
	OriginalID uuid.UUID `json:"original_id"`
	TargetID   uuid.UUID `json:"target_id"`
}

// EditHistory is one append only audit row.
type EditHistory struct {
	ID         uuid.UUID
	TargetType EditTargetType
	TargetID   uuid.UUID
	UserID     *string
	Metadata   EditMetadata
	CreatedAt  time.Time
}

// CreateEditHistory appends an audit row.
func CreateEditHistory(ctx context.Context, db Executor, h *EditHistory) error {
	metadata, err := json.Marshal(h.Metadata)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO "docbox_edit_history" ("id", "target_type", "target_id", "user_id", "metadata", "created_at")
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		h.ID, h.TargetType, h.TargetID, h.UserID, jsonArg(metadata), h.CreatedAt,
	)
	return mapError(err)
}

// ListEditHistory returns the audit rows of one target, newest first.
func ListEditHistory(ctx context.Context, db Executor, targetType EditTargetType, targetID uuid.UUID) ([]EditHistory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT "id", "target_type", "target_id", "user_id", "metadata", "created_at"
		 FROM "docbox_edit_history" WHERE "target_type" = $1 AND "target_id" = $2 ORDER BY "created_at" DESC`,
		targetType, targetID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var history []EditHistory
	for rows.Next() {
		var h EditHistory
		var metadata []byte
		if err := rows.Scan(&h.ID, &h.TargetType, &h.TargetID, &h.UserID, &metadata, &h.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		if err := json.Unmarshal(metadata, &h.Metadata); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, mapError(rows.Err())
}

// DeleteEditHistory removes the audit rows of one target, used when the
// target itself is deleted.
func DeleteEditHistory(ctx context.Context, db Executor, targetType EditTargetType, targetID uuid.UUID) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM "docbox_edit_history" WHERE "target_type" = $1 AND "target_id" = $2`,
		targetType, targetID,
	)
	return mapError(err)
}
