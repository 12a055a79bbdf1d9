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

// Package search defines the per tenant full text index. Every file, folder
// and link row owns one index document keyed by its id, file documents may
// carry per page content for page level hits.
package search

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ItemType distinguishes the indexed entity kinds.
type ItemType string

const (
	// TypeFile marks a file document.
	TypeFile ItemType = "File"
	// TypeFolder marks a folder document.
	TypeFolder ItemType = "Folder"
	// TypeLink marks a link document.
	TypeLink ItemType = "Link"
)

// PageData is the extracted text of a single page of a file.
type PageData struct {
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// IndexData is the document stored for one item.
type IndexData struct {
	ItemID      uuid.UUID  `json:"item_id"`
	ItemType    ItemType   `json:"item_type"`
	FolderID    uuid.UUID  `json:"folder_id"`
	Name        string     `json:"name"`
	Mime        *string    `json:"mime,omitempty"`
	Content     *string    `json:"content,omitempty"`
	Pages       []PageData `json:"pages,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   *string    `json:"created_by,omitempty"`
	DocumentBox string     `json:"document_box"`
}

// UpdateData is a partial update of an existing document.
type UpdateData struct {
	ItemID   uuid.UUID  `json:"item_id"`
	Name     *string    `json:"name,omitempty"`
	FolderID *uuid.UUID `json:"folder_id,omitempty"`
}

// Request is a search query over one document box or a whole index.
type Request struct {
	Query  string
	Scope  string
	Size   int
	Offset int
	// FolderID restricts hits to direct children of one folder.
	FolderID *uuid.UUID
}

// Hit is a single search result. Page is set when the hit matched the
// content of one page rather than the item name.
type Hit struct {
	ItemID    uuid.UUID
	ItemType  ItemType
	Page      *int
	Highlight string
	Score     float64
}

// Results is a page of hits plus the total match count.
type Results struct {
	TotalHits int
	Hits      []Hit
}

// Index is a tenant scoped search index handle.
type Index interface {
	// CreateIndex creates the tenant index.
	CreateIndex(ctx context.Context) error
	// DeleteIndex removes the tenant index.
	DeleteIndex(ctx context.Context) error
	// IndexExists reports whether the tenant index exists.
	IndexExists(ctx context.Context) (bool, error)
	// AddData indexes the given documents.
	AddData(ctx context.Context, data []IndexData) error
	// UpdateData applies a partial update to one document.
	UpdateData(ctx context.Context, update UpdateData) error
	// DeleteData removes the document for the given item.
	DeleteData(ctx context.Context, itemID uuid.UUID) error
	// DeleteByScope removes every document of one document box.
	DeleteByScope(ctx context.Context, scope string) error
	// Search runs a query.
	Search(ctx context.Context, req Request) (*Results, error)
	// SearchFile runs a query restricted to the pages of one file.
	SearchFile(ctx context.Context, scope string, fileID uuid.UUID, req Request) (*Results, error)
	// GetPendingMigrations returns the driver migrations not yet applied.
	GetPendingMigrations(appliedNames []string) []string
	// ApplyMigration applies one named driver migration.
	ApplyMigration(ctx context.Context, name string) error
}

// Factory produces per tenant search indices from a shared configuration.
type Factory interface {
	// ForIndex binds an index handle to the given tenant index name.
	ForIndex(indexName string) Index
}
