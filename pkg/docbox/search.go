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

	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/search"
	"github.com/docbox-eu/docbox/pkg/tenant"
	"github.com/google/uuid"
)

// SearchResult is one hit resolved against the authoritative rows. Exactly
// one of File, Folder or Link is set.
type SearchResult struct {
	Hit    search.Hit
	File   *database.File
	Folder *database.Folder
	Link   *database.Link
}

// SearchResults is a resolved result page.
type SearchResults struct {
	TotalHits int
	Results   []SearchResult
}

// SearchDocumentBox queries the index and resolves every hit against the
// database. Hits whose rows vanished in the meantime are dropped.
func (s *Service) SearchDocumentBox(ctx context.Context, t *tenant.Instance, scope string, req search.Request) (*SearchResults, error) {
	req.Scope = scope
	results, err := t.Search.Search(ctx, req)
	if err != nil {
		appctx.GetLogger(ctx).Error().Err(err).Str("scope", scope).Msg("failed to query search index")
		return nil, err
	}
	return s.resolveResults(ctx, t, scope, results)
}

// SearchFile queries the pages of a single file.
func (s *Service) SearchFile(ctx context.Context, t *tenant.Instance, scope string, fileID uuid.UUID, req search.Request) (*SearchResults, error) {
	results, err := t.Search.SearchFile(ctx, scope, fileID, req)
	if err != nil {
		appctx.GetLogger(ctx).Error().Err(err).Str("scope", scope).Msg("failed to query search index")
		return nil, err
	}
	return s.resolveResults(ctx, t, scope, results)
}

func (s *Service) resolveResults(ctx context.Context, t *tenant.Instance, scope string, results *search.Results) (*SearchResults, error) {
	log := appctx.GetLogger(ctx)
	resolved := &SearchResults{TotalHits: results.TotalHits}

	for _, hit := range results.Hits {
		result := SearchResult{Hit: hit}
		switch hit.ItemType {
		case search.TypeFile:
			file, err := database.FindFile(ctx, t.DB, scope, hit.ItemID)
			if err != nil {
				return nil, err
			}
			if file == nil {
				continue
			}
			result.File = file
		case search.TypeFolder:
			folder, err := database.FindFolder(ctx, t.DB, scope, hit.ItemID)
			if err != nil {
				return nil, err
			}
			if folder == nil {
				continue
			}
			result.Folder = folder
		case search.TypeLink:
			link, err := database.FindLink(ctx, t.DB, scope, hit.ItemID)
			if err != nil {
				return nil, err
			}
			if link == nil {
				continue
			}
			result.Link = link
		default:
			log.Warn().Str("type", string(hit.ItemType)).Msg("unknown search item type")
			continue
		}
		resolved.Results = append(resolved.Results, result)
	}
	return resolved, nil
}

// ListEditHistory returns the audit trail of a file, folder or link.
func (s *Service) ListEditHistory(ctx context.Context, t *tenant.Instance, targetType database.EditTargetType, targetID uuid.UUID) ([]database.EditHistory, error) {
	return database.ListEditHistory(ctx, t.DB, targetType, targetID)
}
