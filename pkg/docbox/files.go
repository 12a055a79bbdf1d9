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

package docbox

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"io"
	"time"

	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/events"
	"github.com/docbox-eu/docbox/pkg/search"
	"github.com/docbox-eu/docbox/pkg/tenant"
	"github.com/docbox-eu/docbox/pkg/utils/rollback"
	"github.com/google/uuid"
)

// UploadFileRequest is an upload into one folder.
type UploadFileRequest struct {
	Scope    string
	FolderID uuid.UUID
	Name     string
	Mime     string
	Content  io.Reader
	// CreatedBy is the acting user, if any.
	CreatedBy *string
	// FixedID forces the file id, used when completing presigned uploads.
	FixedID *uuid.UUID
	// FileKey reuses an existing object instead of uploading, the bytes
	// already live in the bucket under this key.
	FileKey *string
	// SkipProcessing stores the blob verbatim without the pipeline.
	SkipProcessing bool
}

// UploadFile runs the upload pipeline: validate, store bytes, process,
// persist metadata and derivatives, index, commit. Any failure before the
// commit deletes every object the attempt created.
func (s *Service) UploadFile(ctx context.Context, t *tenant.Instance, req UploadFileRequest) (*database.File, error) {
	if req.Name == "" {
		return nil, errtypes.BadRequest("file name must not be empty")
	}

	folder, err := database.FindFolder(ctx, t.DB, req.Scope, req.FolderID)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, errtypes.NotFound("folder " + req.FolderID.String())
	}

	data, err := io.ReadAll(io.LimitReader(req.Content, s.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, errtypes.BadRequest("file exceeds the upload size limit")
	}

	guard := &rollback.Guard{}
	defer guard.Rollback(ctx)

	fileKey := uuid.NewString()
	if req.FileKey != nil {
		// Presigned uploads already placed the bytes in the bucket.
		fileKey = *req.FileKey
	} else {
		if err := t.Storage.UploadFile(ctx, fileKey, req.Mime, bytes.NewReader(data), int64(len(data))); err != nil {
			return nil, err
		}
		key := fileKey
		guard.Add("delete uploaded object "+key, func(ctx context.Context) error {
			return t.Storage.DeleteFile(ctx, key)
		})
	}

	encrypted := false
	var pages []search.PageData
	var queue []queuedDerivative

	if !req.SkipProcessing && s.processor != nil {
		output, err := s.processor.Process(ctx, req.Mime, data)
		if err != nil {
			return nil, err
		}
		encrypted = output.Encrypted
		for _, p := range output.Pages {
			pages = append(pages, search.PageData{Page: p.Page, Content: p.Content})
		}
		for _, q := range output.UploadQueue {
			queue = append(queue, queuedDerivative{
				mime:  q.Mime,
				kind:  q.Type,
				bytes: q.Bytes,
			})
		}
	}

	hash := sha256.Sum256(data)
	file := &database.File{
		ID:          uuid.New(),
		FolderID:    folder.ID,
		DocumentBox: req.Scope,
		Name:        req.Name,
		Mime:        req.Mime,
		Size:        int64(len(data)),
		FileKey:     fileKey,
		Hash:        hex.EncodeToString(hash[:]),
		Encrypted:   encrypted,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   req.CreatedBy,
	}
	if req.FixedID != nil {
		file.ID = *req.FixedID
	}

	err = database.WithTx(ctx, t.DB, func(tx *sql.Tx) error {
		if err := database.CreateFile(ctx, tx, file); err != nil {
			return err
		}
		for _, derivative := range queue {
			key := uuid.NewString()
			if err := t.Storage.UploadFile(ctx, key, derivative.mime, bytes.NewReader(derivative.bytes), int64(len(derivative.bytes))); err != nil {
				return err
			}
			guard.Add("delete derivative object "+key, func(ctx context.Context) error {
				return t.Storage.DeleteFile(ctx, key)
			})
			if err := database.CreateGeneratedFile(ctx, tx, &database.GeneratedFile{
				ID:      uuid.New(),
				FileID:  file.ID,
				Type:    derivative.kind,
				Mime:    derivative.mime,
				FileKey: key,
			}); err != nil {
				return err
			}
		}

		mime := file.Mime
		return t.Search.AddData(ctx, []search.IndexData{{
			ItemID:      file.ID,
			ItemType:    search.TypeFile,
			FolderID:    folder.ID,
			Name:        file.Name,
			Mime:        &mime,
			Pages:       pages,
			CreatedAt:   file.CreatedAt,
			CreatedBy:   file.CreatedBy,
			DocumentBox: req.Scope,
		}})
	})
	if err != nil {
		return nil, err
	}
	guard.Commit()

	t.Events.Publish(ctx, events.TenantEvent{
		Type:      events.FileCreated,
		Scope:     req.Scope,
		ItemID:    file.ID,
		Timestamp: time.Now().UTC(),
	})
	return file, nil
}

type queuedDerivative struct {
	mime  string
	kind  database.GeneratedFileType
	bytes []byte
}

// GetFile returns the file metadata.
func (s *Service) GetFile(ctx context.Context, t *tenant.Instance, scope string, id uuid.UUID) (*database.File, error) {
	file, err := database.FindFile(ctx, t.DB, scope, id)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, errtypes.NotFound("file " + id.String())
	}
	return file, nil
}

// GetFileStream returns the raw bytes of a file.
func (s *Service) GetFileStream(ctx context.Context, t *tenant.Instance, scope string, id uuid.UUID) (*database.File, io.ReadCloser, error) {
	file, err := s.GetFile(ctx, t, scope, id)
	if err != nil {
		return nil, nil, err
	}
	stream, err := t.Storage.GetFile(ctx, file.FileKey)
	if err != nil {
		return nil, nil, err
	}
	return file, stream, nil
}

// RenameFile renames a file, recording the edit and keeping the index in
// sync.
func (s *Service) RenameFile(ctx context.Context, t *tenant.Instance, scope string, id uuid.UUID, name string, userID *string) (*database.File, error) {
	if name == "" {
		return nil, errtypes.BadRequest("file name must not be empty")
	}

	file, err := s.GetFile(ctx, t, scope, id)
	if err != nil {
		return nil, err
	}

	err = database.WithTx(ctx, t.DB, func(tx *sql.Tx) error {
		if err := database.CreateEditHistory(ctx, tx, &database.EditHistory{
			ID:         uuid.New(),
			TargetType: database.EditTargetFile,
			TargetID:   file.ID,
			UserID:     userID,
			Metadata: database.EditMetadata{
				Rename: &database.EditRename{OriginalName: file.Name, NewName: name},
			},
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		if err := database.RenameFile(ctx, tx, file.ID, name); err != nil {
			return err
		}
		return t.Search.UpdateData(ctx, search.UpdateData{ItemID: file.ID, Name: &name})
	})
	if err != nil {
		return nil, err
	}

	file.Name = name
	return file, nil
}

// MoveFile moves a file into another folder of the same box.
func (s *Service) MoveFile(ctx context.Context, t *tenant.Instance, scope string, id, targetID uuid.UUID, userID *string) (*database.File, error) {
	file, err := s.GetFile(ctx, t, scope, id)
	if err != nil {
		return nil, err
	}

	target, err := database.FindFolder(ctx, t.DB, scope, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errtypes.NotFound("target folder " + targetID.String())
	}

	err = database.WithTx(ctx, t.DB, func(tx *sql.Tx) error {
		if err := database.CreateEditHistory(ctx, tx, &database.EditHistory{
			ID:         uuid.New(),
			TargetType: database.EditTargetFile,
			TargetID:   file.ID,
			UserID:     userID,
			Metadata: database.EditMetadata{
				Move: &database.EditMove{OriginalID: file.FolderID, TargetID: target.ID},
			},
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		if err := database.MoveFile(ctx, tx, file.ID, target.ID); err != nil {
			return err
		}
		return t.Search.UpdateData(ctx, search.UpdateData{ItemID: file.ID, FolderID: &target.ID})
	})
	if err != nil {
		return nil, err
	}

	file.FolderID = target.ID
	return file, nil
}

// DeleteFile removes the file, its derivatives, its objects and its search
// document. Missing objects are tolerated, a retry after a partial failure
// must succeed.
func (s *Service) DeleteFile(ctx context.Context, t *tenant.Instance, scope string, id uuid.UUID) error {
	file, err := database.FindFile(ctx, t.DB, scope, id)
	if err != nil {
		return err
	}
	if file == nil {
		// Idempotent, the file is already gone.
		return nil
	}

	if err := s.deleteFileContents(ctx, t, file); err != nil {
		return err
	}

	t.Events.Publish(ctx, events.TenantEvent{
		Type:      events.FileDeleted,
		Scope:     scope,
		ItemID:    file.ID,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// deleteFileContents is the event-free deletion shared with the recursive
// folder delete.
func (s *Service) deleteFileContents(ctx context.Context, t *tenant.Instance, file *database.File) error {
	log := appctx.GetLogger(ctx)

	generated, err := database.ListGeneratedFiles(ctx, t.DB, file.ID)
	if err != nil {
		return err
	}
	for _, g := range generated {
		if err := t.Storage.DeleteFile(ctx, g.FileKey); err != nil {
			return err
		}
	}
	if err := database.DeleteGeneratedFiles(ctx, t.DB, file.ID); err != nil {
		return err
	}

	if err := t.Storage.DeleteFile(ctx, file.FileKey); err != nil {
		return err
	}
	if err := database.DeleteFile(ctx, t.DB, file.ID); err != nil {
		return err
	}
	if err := t.Search.DeleteData(ctx, file.ID); err != nil {
		log.Error().Err(err).Str("file", file.ID.String()).Msg("failed to delete file search document")
		return err
	}
	return nil
}
