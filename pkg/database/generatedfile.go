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

	"github.com/google/uuid"
)

// GeneratedFileType enumerates the derivative kinds produced by processing.
type GeneratedFileType string

const (
	// GeneratedPdf is the PDF rendition of an office document.
	GeneratedPdf GeneratedFileType = "Pdf"
	// GeneratedCoverPage is a rendered first page.
	GeneratedCoverPage GeneratedFileType = "CoverPage"
	// GeneratedThumbnail is a small preview image.
	GeneratedThumbnail GeneratedFileType = "Thumbnail"
	// GeneratedTextLayer is the extracted raw text.
	GeneratedTextLayer GeneratedFileType = "TextLayer"
)

// GeneratedFile is a derivative artifact of a file, sharing its lifecycle.
type GeneratedFile struct {
	ID      uuid.UUID
	FileID  uuid.UUID
	Type    GeneratedFileType
	Mime    string
	FileKey string
}

// CreateGeneratedFile inserts the derivative row.
func CreateGeneratedFile(ctx context.Context, db Executor, g *GeneratedFile) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO "docbox_generated_files" ("id", "file_id", "type", "mime", "file_key") VALUES ($1, $2, $3, $4, $5)`,
		g.ID, g.FileID, g.Type, g.Mime, g.FileKey,
	)
	return mapError(err)
}

// ListGeneratedFiles returns every derivative of one file.
func ListGeneratedFiles(ctx context.Context, db Executor, fileID uuid.UUID) ([]GeneratedFile, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT "id", "file_id", "type", "mime", "file_key" FROM "docbox_generated_files" WHERE "file_id" = $1`,
		fileID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var generated []GeneratedFile
	for rows.Next() {
		var g GeneratedFile
		if err := rows.Scan(&g.ID, &g.FileID, &g.Type, &g.Mime, &g.FileKey); err != nil {
			return nil, mapError(err)
		}
		generated = append(generated, g)
	}
	return generated, mapError(rows.Err())
}

// DeleteGeneratedFiles removes every derivative row of one file.
func DeleteGeneratedFiles(ctx context.Context, db Executor, fileID uuid.UUID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM "docbox_generated_files" WHERE "file_id" = $1`, fileID)
	return mapError(err)
}
