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
	"context"
	"database/sql"
	"time"

	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/events"
	"github.com/docbox-eu/docbox/pkg/tenant"
	"github.com/google/uuid"
)

// CreateDocumentBoxRequest creates a new box with its root folder.
type CreateDocumentBoxRequest struct {
	Scope     string
	CreatedBy *string
}

// CreateDocumentBox inserts the box and its root folder in one
// transaction. Duplicate scopes yield an errtypes.AlreadyExists.
func (s *Service) CreateDocumentBox(ctx context.Context, t *tenant.Instance, req CreateDocumentBoxRequest) (*database.DocumentBox, *database.Folder, error) {
	if req.Scope == "" {
		return nil, nil, errtypes.BadRequest("scope must not be empty")
	}

	now := time.Now().UTC()
	box := &database.DocumentBox{
		Scope:     req.Scope,
		CreatedAt: now,
		CreatedBy: req.CreatedBy,
	}
	root := &database.Folder{
		ID:          uuid.New(),
		DocumentBox: req.Scope,
		Name:        RootFolderName,
		CreatedAt:   now,
		CreatedBy:   req.CreatedBy,
	}

	err := database.WithTx(ctx, t.DB, func(tx *sql.Tx) error {
		if err := database.CreateDocumentBox(ctx, tx, box); err != nil {
			if _, ok := err.(errtypes.IsAlreadyExists); ok {
				return errtypes.AlreadyExists("document box scope " + req.Scope)
			}
			return err
		}
		return database.CreateFolder(ctx, tx, root)
	})
	if err != nil {
		return nil, nil, err
	}

	t.Events.Publish(ctx, events.TenantEvent{
		Type:      events.DocumentBoxCreated,
		Scope:     box.Scope,
		Timestamp: time.Now().UTC(),
	})
	return box, root, nil
}

// GetDocumentBox returns the box and its root folder.
func (s *Service) GetDocumentBox(ctx context.Context, t *tenant.Instance, scope string) (*database.DocumentBox, *database.Folder, error) {
	box, err := database.FindDocumentBox(ctx, t.DB, scope)
	if err != nil {
		return nil, nil, err
	}
	if box == nil {
		return nil, nil, errtypes.NotFound("document box " + scope)
	}

	root, err := database.FindRootFolder(ctx, t.DB, scope)
	if err != nil {
		return nil, nil, err
	}
	return box, root, nil
}

// DeleteDocumentBox tears down the whole tree, leaves before the root,
// then removes the box row and every search document of the scope. An
// unknown scope yields an errtypes.NotFound; a box row that is already gone
// when the row delete runs ends the call without error.
func (s *Service) DeleteDocumentBox(ctx context.Context, t *tenant.Instance, scope string) error {
	log := appctx.GetLogger(ctx)

	box, err := database.FindDocumentBox(ctx, t.DB, scope)
	if err != nil {
		return err
	}
	if box == nil {
		return errtypes.NotFound("document box " + scope)
	}

	root, err := database.FindRootFolder(ctx, t.DB, scope)
	if err != nil {
		return err
	}
	if root != nil {
		if err := s.deleteFolderTree(ctx, t, root, true); err != nil {
			log.Error().Err(err).Str("scope", scope).Msg("failed to delete document box root folder")
			return err
		}
	} else {
		log.Warn().Str("scope", scope).Msg("document box root folder did not exist")
	}

	affected, err := database.DeleteDocumentBox(ctx, t.DB, scope)
	if err != nil {
		return err
	}
	// Someone else already removed the row, nothing left to announce.
	if affected < 1 {
		return nil
	}

	if err := t.Search.DeleteByScope(ctx, scope); err != nil {
		return err
	}

	t.Events.Publish(ctx, events.TenantEvent{
		Type:      events.DocumentBoxDeleted,
		Scope:     scope,
		Timestamp: time.Now().UTC(),
	})
	return nil
}
