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

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/docbox-eu/docbox/pkg/search"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*Index, search.IndexData) {
	t.Helper()
	idx := NewFactory().ForIndex("tenant-index")
	require.NoError(t, idx.CreateIndex(context.Background()))

	content := "quarterly report"
	doc := search.IndexData{
		ItemID:      uuid.New(),
		ItemType:    search.TypeFile,
		FolderID:    uuid.New(),
		Name:        "report.pdf",
		Content:     &content,
		Pages:       []search.PageData{{Page: 1, Content: "revenue up"}, {Page: 2, Content: "costs down"}},
		CreatedAt:   time.Now(),
		DocumentBox: "acme",
	}
	require.NoError(t, idx.AddData(context.Background(), []search.IndexData{doc}))
	return idx, doc
}

func TestSearchByName(t *testing.T) {
	idx, doc := seed(t)

	res, err := idx.Search(context.Background(), search.Request{Query: "report", Scope: "acme"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, doc.ItemID, res.Hits[0].ItemID)
	assert.Nil(t, res.Hits[0].Page)
}

func TestSearchPageContent(t *testing.T) {
	idx, doc := seed(t)

	res, err := idx.Search(context.Background(), search.Request{Query: "revenue", Scope: "acme"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	require.NotNil(t, res.Hits[0].Page)
	assert.Equal(t, 1, *res.Hits[0].Page)
	assert.Equal(t, doc.ItemID, res.Hits[0].ItemID)
}

func TestSearchScopeIsolation(t *testing.T) {
	idx, _ := seed(t)

	res, err := idx.Search(context.Background(), search.Request{Query: "report", Scope: "other"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestUpdateData(t *testing.T) {
	idx, doc := seed(t)

	newName := "renamed.pdf"
	require.NoError(t, idx.UpdateData(context.Background(), search.UpdateData{ItemID: doc.ItemID, Name: &newName}))

	res, err := idx.Search(context.Background(), search.Request{Query: "renamed", Scope: "acme"})
	require.NoError(t, err)
	assert.Len(t, res.Hits, 1)
}

func TestDeleteByScope(t *testing.T) {
	idx, _ := seed(t)

	require.NoError(t, idx.DeleteByScope(context.Background(), "acme"))
	res, err := idx.Search(context.Background(), search.Request{Query: "report", Scope: "acme"})
	require.NoError(t, err)
	assert.Zero(t, res.TotalHits)
}

func TestSearchFile(t *testing.T) {
	idx, doc := seed(t)

	res, err := idx.SearchFile(context.Background(), "acme", doc.ItemID, search.Request{Query: "costs"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	require.NotNil(t, res.Hits[0].Page)
	assert.Equal(t, 2, *res.Hits[0].Page)

	res, err = idx.SearchFile(context.Background(), "acme", uuid.New(), search.Request{Query: "costs"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}
