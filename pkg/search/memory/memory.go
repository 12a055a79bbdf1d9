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

// Package memory provides an in memory search index, used for local
// development and tests. Matching is case insensitive substring search.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/search"
	"github.com/google/uuid"
)

// Store holds the indices shared by all handles of one factory.
type Store struct {
	mu      sync.RWMutex
	indices map[string]map[uuid.UUID]search.IndexData
}

// NewFactory returns an empty in memory search factory.
func NewFactory() *Store {
	return &Store{indices: map[string]map[uuid.UUID]search.IndexData{}}
}

// ForIndex binds an index handle to the given index name.
func (s *Store) ForIndex(indexName string) *Index {
	return &Index{store: s, name: indexName}
}

// Index is an index scoped view over the shared store.
type Index struct {
	store *Store
	name  string
}

// CreateIndex implements search.Index.
func (i *Index) CreateIndex(_ context.Context) error {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()
	if _, ok := i.store.indices[i.name]; ok {
		return errtypes.AlreadyExists(i.name)
	}
	i.store.indices[i.name] = map[uuid.UUID]search.IndexData{}
	return nil
}

// DeleteIndex implements search.Index.
func (i *Index) DeleteIndex(_ context.Context) error {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()
	delete(i.store.indices, i.name)
	return nil
}

// IndexExists implements search.Index.
func (i *Index) IndexExists(_ context.Context) (bool, error) {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	_, ok := i.store.indices[i.name]
	return ok, nil
}

// AddData implements search.Index.
func (i *Index) AddData(_ context.Context, data []search.IndexData) error {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()
	idx, ok := i.store.indices[i.name]
	if !ok {
		return errtypes.NotFound(i.name)
	}
	for _, d := range data {
		idx[d.ItemID] = d
	}
	return nil
}

// UpdateData implements search.Index.
func (i *Index) UpdateData(_ context.Context, update search.UpdateData) error {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()
	idx, ok := i.store.indices[i.name]
	if !ok {
		return errtypes.NotFound(i.name)
	}
	d, ok := idx[update.ItemID]
	if !ok {
		return errtypes.NotFound(update.ItemID.String())
	}
	if update.Name != nil {
		d.Name = *update.Name
	}
	if update.FolderID != nil {
		d.FolderID = *update.FolderID
	}
	idx[update.ItemID] = d
	return nil
}

// DeleteData implements search.Index, missing documents are a success.
func (i *Index) DeleteData(_ context.Context, itemID uuid.UUID) error {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()
	if idx, ok := i.store.indices[i.name]; ok {
		delete(idx, itemID)
	}
	return nil
}

// DeleteByScope implements search.Index.
func (i *Index) DeleteByScope(_ context.Context, scope string) error {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()
	idx, ok := i.store.indices[i.name]
	if !ok {
		return nil
	}
	for id, d := range idx {
		if d.DocumentBox == scope {
			delete(idx, id)
		}
	}
	return nil
}

// Search implements search.Index.
func (i *Index) Search(_ context.Context, req search.Request) (*search.Results, error) {
	return i.search(req, nil)
}

// SearchFile implements search.Index.
func (i *Index) SearchFile(_ context.Context, scope string, fileID uuid.UUID, req search.Request) (*search.Results, error) {
	req.Scope = scope
	return i.search(req, &fileID)
}

func (i *Index) search(req search.Request, fileID *uuid.UUID) (*search.Results, error) {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	idx, ok := i.store.indices[i.name]
	if !ok {
		return nil, errtypes.NotFound(i.name)
	}

	query := strings.ToLower(req.Query)
	results := &search.Results{}

	for _, d := range idx {
		if req.Scope != "" && d.DocumentBox != req.Scope {
			continue
		}
		if fileID != nil && d.ItemID != *fileID {
			continue
		}
		if req.FolderID != nil && d.FolderID != *req.FolderID {
			continue
		}

		if fileID == nil && strings.Contains(strings.ToLower(d.Name), query) {
			results.Hits = append(results.Hits, search.Hit{
				ItemID:    d.ItemID,
				ItemType:  d.ItemType,
				Highlight: d.Name,
				Score:     1,
			})
			results.TotalHits++
			continue
		}
		if fileID == nil && d.Content != nil && strings.Contains(strings.ToLower(*d.Content), query) {
			results.Hits = append(results.Hits, search.Hit{
				ItemID:    d.ItemID,
				ItemType:  d.ItemType,
				Highlight: *d.Content,
				Score:     1,
			})
			results.TotalHits++
			continue
		}
		for _, p := range d.Pages {
			if strings.Contains(strings.ToLower(p.Content), query) {
				page := p.Page
				results.Hits = append(results.Hits, search.Hit{
					ItemID:    d.ItemID,
					ItemType:  d.ItemType,
					Page:      &page,
					Highlight: p.Content,
					Score:     1,
				})
				results.TotalHits++
				break
			}
		}
	}

	if req.Offset > 0 {
		if req.Offset >= len(results.Hits) {
			results.Hits = nil
		} else {
			results.Hits = results.Hits[req.Offset:]
		}
	}
	if req.Size > 0 && len(results.Hits) > req.Size {
		results.Hits = results.Hits[:req.Size]
	}
	return results, nil
}

// GetPendingMigrations implements search.Index. The in memory index is
// schemaless and has no migrations.
func (i *Index) GetPendingMigrations(_ []string) []string { return nil }

// ApplyMigration implements search.Index.
func (i *Index) ApplyMigration(_ context.Context, name string) error {
	return errtypes.NotFound("search migration " + name)
}
