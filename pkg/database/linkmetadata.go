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

// LinkResolvedMetadata caches the scraped metadata of one URL until it
// expires.
type LinkResolvedMetadata struct {
	URL        string
	Title      *string
	FaviconKey *string
	ImageKey   *string
	ResolvedAt time.Time
	ExpiresAt  time.Time
}

// FindLinkResolvedMetadata returns the cached metadata for url or nil.
func FindLinkResolvedMetadata(ctx context.Context, db Executor, url string) (*LinkResolvedMetadata, error) {
	var m LinkResolvedMetadata
	err := db.QueryRowContext(ctx,
		`SELECT "url", "title", "favicon_key", "image_key", "resolved_at", "expires_at"
		 FROM "docbox_link_resolved_metadata" WHERE "url" = $1`,
		url,
	).Scan(&m.URL, &m.Title, &m.FaviconKey, &m.ImageKey, &m.ResolvedAt, &m.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

// UpsertLinkResolvedMetadata stores the scraped metadata, replacing any
// previous row for the URL.
func UpsertLinkResolvedMetadata(ctx context.Context, db Executor, m *LinkResolvedMetadata) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO "docbox_link_resolved_metadata" ("url", "title", "favicon_key", "image_key", "resolved_at", "expires_at")
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT ("url") DO UPDATE SET
		   "title" = EXCLUDED."title",
		   "favicon_key" = EXCLUDED."favicon_key",
		   "image_key" = EXCLUDED."image_key",
		   "resolved_at" = EXCLUDED."resolved_at",
		   "expires_at" = EXCLUDED."expires_at"`,
		m.URL, m.Title, m.FaviconKey, m.ImageKey, m.ResolvedAt, m.ExpiresAt,
	)
	return mapError(err)
}

// DeleteExpiredLinkMetadata purges cached metadata past its expiry.
func DeleteExpiredLinkMetadata(ctx context.Context, db Executor, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM "docbox_link_resolved_metadata" WHERE "expires_at" < $1`, now)
	if err != nil {
		return 0, mapError(err)
	}
	affected, err := res.RowsAffected()
	return affected, mapError(err)
}
