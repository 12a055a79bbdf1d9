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
	"github.com/docbox-eu/docbox/pkg/search"
	"github.com/docbox-eu/docbox/pkg/tenant"
	"github.com/google/uuid"
)

// CreateFolderRequest creates a folder under a parent.
type CreateFolderRequest struct {
	Scope     string
	ParentID  uuid.UUID
	Name      string
	CreatedBy *string
}

// CreateFolder inserts the folder row and pushes its search document. A
// failing index write rolls the insertion back.
func (s *Service) CreateFolder(ctx context.Context, t *tenant.Instance, req CreateFolderRequest) (*database.Folder, error) {
	if req.Name == "" {
		return nil, errtypes.BadRequest("folder name must not be empty")
	}

	parent, err := database.FindFolder(ctx, t.DB, req.Scope, req.ParentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, errtypes.NotFound("parent folder " + req.ParentID.String())
	}

	folder := &database.Folder{
		ID:             uuid.New(),
		DocumentBox:    req.Scope,
		ParentFolderID: &parent.ID,
		Name:           req.Name,
		CreatedAt:      time.Now().UTC(),
		CreatedBy:      req.CreatedBy,
	}

	err = database.WithTx(ctx, t.DB, func(tx *sql.Tx) error {
		if err := database.CreateFolder(ctx, tx, folder); err != nil {
			return err
		}
		return t.Search.AddData(ctx, []search.IndexData{{
			ItemID:      folder.ID,
			ItemType:    search.TypeFolder,
			FolderID:    parent.ID,
			Name:        folder.Name,
			CreatedAt:   folder.CreatedAt,
			CreatedBy:   folder.CreatedBy,
			DocumentBox: req.Scope,
		}})
	})
	if err != nil {
		return nil, err
	}

	t.Events.Publish(ctx, events.TenantEvent{
		Type:      events.FolderCreated,
		Scope:     req.Scope,
		ItemID:    folder.ID,
		Timestamp: time.Now().UTC(),
	})
	return folder, nil
}

// RenameFolder renames a folder, recording the edit and keeping the index
// in sync. The root folder cannot be renamed.
func (s *Service) RenameFolder(ctx context.Context, t *tenant.Instance, scope string, id uuid.UUID, name string, userID *string) (*database.Folder, error) {
	if name == "" {
		return nil, errtypes.BadRequest("folder name must not be empty")
	}

	folder, err := database.FindFolder(ctx, t.DB, scope, id)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, errtypes.NotFound("folder " + id.String())
	}
	if folder.IsRoot() {
		return nil, errtypes.PermissionDenied("cannot modify the root folder")
	}

	err = database.WithTx(ctx, t.DB, func(tx *sql.Tx) error {
		if err := database.CreateEditHistory(ctx, tx, &database.EditHistory{
			ID:         uuid.New(),
			TargetType: database.EditTargetFolder,
			TargetID:   folder.ID,
			UserID:     userID,
			Metadata: database.EditMetadata{
				Rename: &database.EditRename{OriginalName: folder.Name, NewName: name},
			},
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		if err := database.RenameFolder(ctx, tx, folder.ID, name); err != nil {
			return err
		}
		// Failing to update the index aborts the transaction, reverting
		// both the rename and the history row.
		return t.Search.UpdateData(ctx, search.UpdateData{ItemID: folder.ID, Name: &name})
	})
	if err != nil {
		return nil, err
	}

	folder.Name = name
	return folder, nil
}

// MoveFolder reparents a folder. The root cannot move and a folder can
// never move into itself or one of its descendants.
func (s *Service) MoveFolder(ctx context.Context, t *tenant.Instance, scope string, id, targetID uuid.UUID, userID *string) (*database.Folder, error) {
	folder, err := database.FindFolder(ctx, t.DB, scope, id)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, errtypes.NotFound("folder " + id.String())
	}
	if folder.IsRoot() {
		return nil, errtypes.PermissionDenied("cannot modify the root folder")
	}

	target, err := database.FindFolder(ctx, t.DB, scope, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errtypes.NotFound("target folder " + targetID.String())
	}

	// Walk up from the target, hitting the moved folder on the way to the
	// root means the move would create a cycle.
	cursor := target
	for cursor != nil {
		if cursor.ID == folder.ID {
			return nil, errtypes.BadRequest("cannot move a folder into itself or a descendant")
		}
		if cursor.ParentFolderID == nil {
			break
		}
		cursor, err = database.FindFolder(ctx, t.DB, scope, *cursor.ParentFolderID)
		if err != nil {
			return nil, err
		}
	}

	err = database.WithTx(ctx, t.DB, func(tx *sql.Tx) error {
		if err := database.CreateEditHistory(ctx, tx, &database.EditHistory{
			ID:         uuid.New(),
			TargetType: database.EditTargetFolder,
			TargetID:   folder.ID,
			UserID:     userID,
			Metadata: database.EditMetadata{
				Move: &database.EditMove{OriginalID: *folder.ParentFolderID, TargetID: target.ID},
			},
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		if err := database.MoveFolder(ctx, tx, folder.ID, target.ID); err != nil {
			return err
		}
		return t.Search.UpdateData(ctx, search.UpdateData{ItemID: folder.ID, FolderID: &target.ID})
	})
	if err != nil {
		return nil, err
	}

	folder.ParentFolderID = &target.ID
	return folder, nil
}

// SetFolderPinned toggles the pinned flag.
func (s *Service) SetFolderPinned(ctx context.Context, t *tenant.Instance, scope string, id uuid.UUID, pinned bool) error {
	folder, err := database.FindFolder(ctx, t.DB, scope, id)
	if err != nil {
		return err
	}
	if folder == nil {
		return errtypes.NotFound("folder " + id.String())
	}
	return database.SetFolderPinned(ctx, t.DB, folder.ID, pinned)
}

// DeleteFolder removes a folder and everything below it. The root folder
// only goes away with its box.
func (s *Service) DeleteFolder(ctx context.Context, t *tenant.Instance, scope string, id uuid.UUID) error {
	folder, err := database.FindFolder(ctx, t.DB, scope, id)
	if err != nil {
		return err
	}
	if folder == nil {
		// Idempotent, the tree is already gone.
		return nil
	}
	if folder.IsRoot() {
		return errtypes.PermissionDenied("cannot delete the root folder")
	}

	if err := s.deleteFolderTree(ctx, t, folder, false); err != nil {
		return err
	}

	t.Events.Publish(ctx, events.TenantEvent{
		Type:      events.FolderDeleted,
		Scope:     scope,
		ItemID:    folder.ID,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

type folderFrame struct {
	folder   database.Folder
	expanded bool
}

// deleteFolderTree removes the subtree rooted at folder in post order,
// children before their parent, using an explicit stack so deep trees
// cannot exhaust the call stack. Sub-failures are collected, successful
// deletions stay deleted so a retry only faces the leftovers.
func (s *Service) deleteFolderTree(ctx context.Context, t *tenant.Instance, folder *database.Folder, allowRoot bool) error {
	log := appctx.GetLogger(ctx)

	if folder.IsRoot() && !allowRoot {
		return errtypes.PermissionDenied("cannot delete the root folder")
	}

	var failures []error
	stack := []folderFrame{{folder: *folder}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if !top.expanded {
			top.expanded = true
			children, err := database.ListChildFolders(ctx, t.DB, top.folder.DocumentBox, top.folder.ID)
			if err != nil {
				failures = append(failures, err)
				stack = stack[:len(stack)-1]
				continue
			}
			for _, child := range children {
				stack = append(stack, folderFrame{folder: child})
			}
			continue
		}

		current := top.folder
		stack = stack[:len(stack)-1]

		files, err := database.ListFiles(ctx, t.DB, current.DocumentBox, current.ID)
		if err != nil {
			failures = append(failures, err)
		}
		for i := range files {
			if err := s.deleteFileContents(ctx, t, &files[i]); err != nil {
				failures = append(failures, err)
			}
		}

		links, err := database.ListLinks(ctx, t.DB, current.DocumentBox, current.ID)
		if err != nil {
			failures = append(failures, err)
		}
		for i := range links {
			if err := s.deleteLinkContents(ctx, t, &links[i]); err != nil {
				failures = append(failures, err)
			}
		}

		if err := database.DeleteFolder(ctx, t.DB, current.ID); err != nil {
			failures = append(failures, err)
			continue
		}
		if err := t.Search.DeleteData(ctx, current.ID); err != nil {
			log.Error().Err(err).Str("folder", current.ID.String()).Msg("failed to delete folder search document")
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		return errtypes.Join(failures...)
	}
	return nil
}
