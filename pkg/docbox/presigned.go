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
	"io"
	"time"

	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/tenant"
	"github.com/google/uuid"
)

// PresignedUploadExpiry bounds how long an issued upload URL stays valid.
const PresignedUploadExpiry = 15 * time.Minute

// CreatePresignedUploadRequest reserves an upload slot for a client that
// uploads the bytes itself.
type CreatePresignedUploadRequest struct {
	Scope     string
	FolderID  uuid.UUID
	Name      string
	Mime      string
	Size      int64
	CreatedBy *string
}

// PresignedUpload is the issued upload URL plus its tracking id.
type PresignedUpload struct {
	TaskID    uuid.UUID
	URL       string
	FileKey   string
	ExpiresAt time.Time
}

// CreatePresignedUpload issues an upload URL and persists the tracking
// row. The file only becomes visible once the upload is completed.
func (s *Service) CreatePresignedUpload(ctx context.Context, t *tenant.Instance, req CreatePresignedUploadRequest) (*PresignedUpload, error) {
	if req.Name == "" {
		return nil, errtypes.BadRequest("file name must not be empty")
	}
	if req.Size > s.maxFileSize {
		return nil, errtypes.BadRequest("file exceeds the upload size limit")
	}

	folder, err := database.FindFolder(ctx, t.DB, req.Scope, req.FolderID)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, errtypes.NotFound("folder " + req.FolderID.String())
	}

	fileKey := uuid.NewString()
	url, err := t.Storage.PresignUpload(ctx, fileKey, PresignedUploadExpiry)
	if err != nil {
		return nil, err
	}

	task := &database.PresignedUploadTask{
		ID:        uuid.New(),
		Scope:     req.Scope,
		FolderID:  folder.ID,
		Name:      req.Name,
		Mime:      req.Mime,
		Size:      req.Size,
		FileKey:   fileKey,
		CreatedBy: req.CreatedBy,
		ExpiresAt: time.Now().UTC().Add(PresignedUploadExpiry),
	}
	if err := database.CreatePresignedUploadTask(ctx, t.DB, task); err != nil {
		return nil, err
	}

	return &PresignedUpload{
		TaskID:    task.ID,
		URL:       url,
		FileKey:   fileKey,
		ExpiresAt: task.ExpiresAt,
	}, nil
}

// CompletePresignedUpload correlates an object store notification with the
// pending task and runs the regular metadata and index steps against the
// already uploaded bytes.
func (s *Service) CompletePresignedUpload(ctx context.Context, t *tenant.Instance, fileKey string) (*database.File, error) {
	task, err := database.FindPresignedUploadTaskByKey(ctx, t.DB, fileKey)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, errtypes.NotFound("no pending upload for object " + fileKey)
	}

	// Processing needs the bytes the client placed in the bucket.
	stream, err := t.Storage.GetFile(ctx, task.FileKey)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(stream)
	_ = stream.Close()
	if err != nil {
		return nil, err
	}

	file, err := s.UploadFile(ctx, t, UploadFileRequest{
		Scope:     task.Scope,
		FolderID:  task.FolderID,
		Name:      task.Name,
		Mime:      task.Mime,
		Content:   bytes.NewReader(data),
		CreatedBy: task.CreatedBy,
		FileKey:   &task.FileKey,
	})
	if err != nil {
		return nil, err
	}

	if err := database.DeletePresignedUploadTask(ctx, t.DB, task.ID); err != nil {
		return nil, err
	}
	return file, nil
}
