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

	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/events"
	"github.com/docbox-eu/docbox/pkg/search"
	"github.com/docbox-eu/docbox/pkg/tenant"
	"github.com/google/uuid"
)

// CreateLinkRequest stores a URL inside a folder.
type CreateLinkRequest struct {
	Scope     string
	FolderID  uuid.UUID
	Name      string
	Value     string
	CreatedBy *string
}

// CreateLink inserts the link row and its search document, the URL is the
// indexed content.
func (s *Service) CreateLink(ctx context.Context, t *tenant.Instance, req CreateLinkRequest) (*database.Link, error) {
	if req.Name == "" {
		return nil, errtypes.BadRequest("link name must not be empty")
	}
	if req.Value == "" {
		return nil, errtypes.BadRequest("link value must not be empty")
	}

	folder, err := database.FindFolder(ctx, t.DB, req.Scope, req.FolderID)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, errtypes.NotFound("folder " + req.FolderID.String())
	}

	link := &database.Link{
		ID:          uuid.New(),
		FolderID:    folder.ID,
		DocumentBox: req.Scope,
		Name:        req.Name,
		Value:       req.Value,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   req.CreatedBy,
	}

	err = database.WithTx(ctx, t.DB, func(tx *sql.Tx) error {
		if err := database.CreateLink(ctx, tx, link); err != nil {
			return err
		}
		value := link.Value
		return t.Search.AddData(ctx, []search.IndexData{{
			ItemID:      link.ID,
			ItemType:    search.TypeLink,
			FolderID:    folder.ID,
			Name:        link.Name,
			Content:     &value,
			CreatedAt:   link.CreatedAt,
			CreatedBy:   link.CreatedBy,
			DocumentBox: req.Scope,
		}})
	})
	if err != nil {
		return nil, err
	}

	t.Events.Publish(ctx, events.TenantEvent{
		Type:      events.LinkCreated,
		Scope:     req.Scope,
		ItemID:    link.ID,
		Timestamp: time.Now().UTC(),
	})
	return link, nil
}

// GetLink returns the link metadata row.
func (s *Service) GetLink(ctx context.Context, t *tenant.Instance, scope string, id uuid.UUID) (*database.Link, error) {
	link, err := database.FindLink(ctx, t.DB, scope, id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, errtypes.NotFound("link " + id.String())
	}
	return link, nil
}

// RenameLink renames a link, recording the edit and keeping the index in
// sync.
func (s *Service) RenameLink(ctx context.Context, t *tenant.Instance, scope string, id uuid.UUID, name string, userID *string) (*database.Link, error) {
	if name == "" {
		return nil, errtypes.BadRequest("link name must not be empty")
	}

	link, err := s.GetLink(ctx, t, scope, id)
	if err != nil {
		return nil, err
	}

	err = database.WithTx(ctx, t.DB, func(tx *sql.Tx) error {
		if err := database.CreateEditHistory(ctx, tx, &database.EditHistory{
			ID:         uuid.New(),
			TargetType: database.EditTargetLink,
			TargetID:   link.ID,
			UserID:     userID,
			Metadata: database.EditMetadata{
				Rename: &database.EditRename{OriginalName: link.Name, NewName: name},
			},
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		if err := database.RenameLink(ctx, tx, link.ID, name); err != nil {
			return err
		}
		return t.Search.UpdateData(ctx, search.UpdateData{ItemID: link.ID, Name: &name})
	})
	if err != nil {
		return nil, err
	}

	link.Name = name
	return link, nil
}

// MoveLink moves a link into another folder of the same box.
func (s *Service) MoveLink(ctx context.Context, t *tenant.Instance, scope string, id, targetID uuid.UUID, userID *string) (*database.Link, error) {
	link, err := s.GetLink(ctx, t, scope, id)
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
			TargetType: database.EditTargetLink,
			TargetID:   link.ID,
			UserID:     userID,
			Metadata: database.EditMetadata{
				Move: &database.EditMove{OriginalID: link.FolderID, TargetID: target.ID},
			},
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		if err := database.MoveLink(ctx, tx, link.ID, target.ID); err != nil {
			return err
		}
		return t.Search.UpdateData(ctx, search.UpdateData{ItemID: link.ID, FolderID: &target.ID})
	})
	if err != nil {
		return nil, err
	}

	link.FolderID = target.ID
	return link, nil
}

// DeleteLink removes the search document, the row and announces the
// deletion. Deleting a vanished link succeeds.
func (s *Service) DeleteLink(ctx context.Context, t *tenant.Instance, scope string, id uuid.UUID) error {
	link, err := database.FindLink(ctx, t.DB, scope, id)
	if err != nil {
		return err
	}
	if link == nil {
		return nil
	}

	if err := s.deleteLinkContents(ctx, t, link); err != nil {
		return err
	}

	t.Events.Publish(ctx, events.TenantEvent{
		Type:      events.LinkDeleted,
		Scope:     scope,
		ItemID:    link.ID,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (s *Service) deleteLinkContents(ctx context.Context, t *tenant.Instance, link *database.Link) error {
	if err := t.Search.DeleteData(ctx, link.ID); err != nil {
		return err
	}
	return database.DeleteLink(ctx, t.DB, link.ID)
}

// WebsiteResolver fetches the metadata of an external URL. The scraping
// itself happens outside this module.
type WebsiteResolver interface {
	ResolveWebsite(ctx context.Context, url string) (*database.LinkResolvedMetadata, error)
}

// GetLinkMetadata returns the resolved metadata for a link, served from
// the cache while fresh and scraped again once expired.
func (s *Service) GetLinkMetadata(ctx context.Context, t *tenant.Instance, resolver WebsiteResolver, scope string, id uuid.UUID) (*database.LinkResolvedMetadata, error) {
	link, err := s.GetLink(ctx, t, scope, id)
	if err != nil {
		return nil, err
	}

	cached, err := database.FindLinkResolvedMetadata(ctx, t.DB, link.Value)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.ExpiresAt.After(time.Now()) {
		return cached, nil
	}

	resolved, err := resolver.ResolveWebsite(ctx, link.Value)
	if err != nil {
		return nil, err
	}
	if err := database.UpsertLinkResolvedMetadata(ctx, t.DB, resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}
