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

// Package typesense provides the search index layer for a Typesense server.
//
// File documents are flattened, the item itself is stored as one document
// and every extracted page as another, so page level hits fall out of the
// regular ranked search.
package typesense

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/search"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Config holds the connection settings shared by all tenant indices.
type Config struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
	// Timeout bounds every request, zero means 30 seconds.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ConfigFromEnv fills unset fields from the environment.
func (c *Config) ConfigFromEnv() {
	if c.URL == "" {
		c.URL = os.Getenv("TYPESENSE_URL")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("TYPESENSE_API_KEY")
	}
}

// Factory creates tenant index handles sharing one HTTP client.
type Factory struct {
	base   string
	apiKey string
	client *http.Client
}

// NewFactory builds a factory from the given configuration.
func NewFactory(c *Config) (*Factory, error) {
	c.ConfigFromEnv()
	if c.URL == "" {
		return nil, errtypes.ConfigError("typesense url is not set")
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Factory{
		base:   strings.TrimRight(c.URL, "/"),
		apiKey: c.APIKey,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// ForIndex binds an index handle to the given tenant collection.
func (f *Factory) ForIndex(indexName string) *Index {
	return &Index{f: f, name: indexName}
}

// Index is a Typesense collection scoped search index.
type Index struct {
	f    *Factory
	name string
}

// document is the flattened wire representation. Page is -1 on the item
// document itself and the page number on page documents.
type document struct {
	ID          string `json:"id"`
	ItemID      string `json:"item_id"`
	ItemType    string `json:"item_type"`
	FolderID    string `json:"folder_id"`
	Name        string `json:"name"`
	Mime        string `json:"mime"`
	Content     string `json:"content"`
	Page        int    `json:"page"`
	CreatedAt   int64  `json:"created_at"`
	CreatedBy   string `json:"created_by"`
	DocumentBox string `json:"document_box"`
}

func (i *Index) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u := i.f.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-TYPESENSE-API-KEY", i.f.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := i.f.client.Do(req)
	if err != nil {
		return nil, errtypes.Transient(err.Error())
	}
	return res, nil
}

func drainError(res *http.Response) error {
	defer res.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	msg := fmt.Sprintf("typesense returned %d: %s", res.StatusCode, string(raw))
	if res.StatusCode >= 500 {
		return errtypes.Transient(msg)
	}
	return errors.New(msg)
}

// CreateIndex implements search.Index.
func (i *Index) CreateIndex(ctx context.Context) error {
	schema := map[string]interface{}{
		"name": i.name,
		"fields": []map[string]interface{}{
			{"name": "item_id", "type": "string", "facet": true},
			{"name": "item_type", "type": "string", "facet": true},
			{"name": "folder_id", "type": "string", "facet": true},
			{"name": "name", "type": "string"},
			{"name": "mime", "type": "string", "optional": true},
			{"name": "content", "type": "string", "optional": true},
			{"name": "page", "type": "int32"},
			{"name": "created_at", "type": "int64"},
			{"name": "created_by", "type": "string", "optional": true},
			{"name": "document_box", "type": "string", "facet": true},
		},
		"default_sorting_field": "created_at",
	}
	body, _ := json.Marshal(schema)

	res, err := i.do(ctx, http.MethodPost, "/collections", nil, bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	if res.StatusCode == http.StatusConflict {
		res.Body.Close()
		return errtypes.AlreadyExists(i.name)
	}
	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusOK {
		return drainError(res)
	}
	res.Body.Close()
	return nil
}

// DeleteIndex implements search.Index, a missing collection is a success.
func (i *Index) DeleteIndex(ctx context.Context) error {
	res, err := i.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(i.name), nil, nil, "")
	if err != nil {
		return err
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	if res.StatusCode != http.StatusOK {
		return drainError(res)
	}
	res.Body.Close()
	return nil
}

// IndexExists implements search.Index.
func (i *Index) IndexExists(ctx context.Context) (bool, error) {
	res, err := i.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(i.name), nil, nil, "")
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, drainError(res)
	}
}

// AddData implements search.Index using the bulk import endpoint.
func (i *Index) AddData(ctx context.Context, data []search.IndexData) error {
	var lines bytes.Buffer
	enc := json.NewEncoder(&lines)
	for _, d := range data {
		for _, doc := range flatten(d) {
			if err := enc.Encode(doc); err != nil {
				return err
			}
		}
	}

	q := url.Values{"action": {"upsert"}}
	res, err := i.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(i.name)+"/documents/import", q, &lines, "text/plain")
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return drainError(res)
	}
	res.Body.Close()
	return nil
}

func flatten(d search.IndexData) []document {
	base := document{
		ID:          d.ItemID.String(),
		ItemID:      d.ItemID.String(),
		ItemType:    string(d.ItemType),
		FolderID:    d.FolderID.String(),
		Name:        d.Name,
		Page:        -1,
		CreatedAt:   d.CreatedAt.Unix(),
		DocumentBox: d.DocumentBox,
	}
	if d.Mime != nil {
		base.Mime = *d.Mime
	}
	if d.Content != nil {
		base.Content = *d.Content
	}
	if d.CreatedBy != nil {
		base.CreatedBy = *d.CreatedBy
	}

	docs := []document{base}
	for _, p := range d.Pages {
		page := base
		page.ID = fmt.Sprintf("%s_%d", d.ItemID, p.Page)
		page.Content = p.Content
		page.Page = p.Page
		docs = append(docs, page)
	}
	return docs
}

// UpdateData implements search.Index, patching every document of the item.
func (i *Index) UpdateData(ctx context.Context, update search.UpdateData) error {
	patch := map[string]interface{}{}
	if update.Name != nil {
		patch["name"] = *update.Name
	}
	if update.FolderID != nil {
		patch["folder_id"] = update.FolderID.String()
	}
	if len(patch) == 0 {
		return nil
	}
	body, _ := json.Marshal(patch)

	q := url.Values{"filter_by": {"item_id:=" + update.ItemID.String()}}
	res, err := i.do(ctx, http.MethodPatch, "/collections/"+url.PathEscape(i.name)+"/documents", q, bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return drainError(res)
	}
	res.Body.Close()
	return nil
}

// DeleteData implements search.Index, removing the item document and all of
// its page documents.
func (i *Index) DeleteData(ctx context.Context, itemID uuid.UUID) error {
	return i.deleteByFilter(ctx, "item_id:="+itemID.String())
}

// DeleteByScope implements search.Index.
func (i *Index) DeleteByScope(ctx context.Context, scope string) error {
	return i.deleteByFilter(ctx, "document_box:="+scope)
}

func (i *Index) deleteByFilter(ctx context.Context, filter string) error {
	q := url.Values{"filter_by": {filter}}
	res, err := i.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(i.name)+"/documents", q, nil, "")
	if err != nil {
		return err
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	if res.StatusCode != http.StatusOK {
		return drainError(res)
	}
	res.Body.Close()
	return nil
}

type searchResponse struct {
	Found int `json:"found"`
	Hits  []struct {
		Document   document `json:"document"`
		Highlights []struct {
			Field   string `json:"field"`
			Snippet string `json:"snippet"`
		} `json:"highlights"`
		TextMatch float64 `json:"text_match"`
	} `json:"hits"`
}

// Search implements search.Index.
func (i *Index) Search(ctx context.Context, req search.Request) (*search.Results, error) {
	filters := []string{}
	if req.Scope != "" {
		filters = append(filters, "document_box:="+req.Scope)
	}
	if req.FolderID != nil {
		filters = append(filters, "folder_id:="+req.FolderID.String())
	}
	return i.search(ctx, req, filters)
}

// SearchFile implements search.Index.
func (i *Index) SearchFile(ctx context.Context, scope string, fileID uuid.UUID, req search.Request) (*search.Results, error) {
	filters := []string{
		"document_box:=" + scope,
		"item_id:=" + fileID.String(),
	}
	return i.search(ctx, req, filters)
}

func (i *Index) search(ctx context.Context, req search.Request, filters []string) (*search.Results, error) {
	size := req.Size
	if size <= 0 {
		size = 25
	}
	page := req.Offset/size + 1

	q := url.Values{
		"q":        {req.Query},
		"query_by": {"name,content"},
		"per_page": {strconv.Itoa(size)},
		"page":     {strconv.Itoa(page)},
	}
	if len(filters) > 0 {
		q.Set("filter_by", strings.Join(filters, " && "))
	}

	res, err := i.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(i.name)+"/documents/search", q, nil, "")
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, drainError(res)
	}
	defer res.Body.Close()

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decoding search response")
	}

	results := &search.Results{TotalHits: parsed.Found}
	for _, hit := range parsed.Hits {
		itemID, err := uuid.Parse(hit.Document.ItemID)
		if err != nil {
			continue
		}
		out := search.Hit{
			ItemID:   itemID,
			ItemType: search.ItemType(hit.Document.ItemType),
			Score:    hit.TextMatch,
		}
		if hit.Document.Page >= 0 {
			p := hit.Document.Page
			out.Page = &p
		}
		for _, h := range hit.Highlights {
			if h.Snippet != "" {
				out.Highlight = h.Snippet
				break
			}
		}
		results.Hits = append(results.Hits, out)
	}
	return results, nil
}
