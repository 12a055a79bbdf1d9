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

package typesense

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/docbox-eu/docbox/pkg/errtypes"
)

// Driver migrations are recorded next to the tenant database migrations,
// names carry the driver prefix so multiple search backends can share the
// bookkeeping table.
var tenantMigrations = []string{
	"typesense_m1_create_collection",
	"typesense_m2_add_mime_field",
}

// GetPendingMigrations implements search.Index.
func (i *Index) GetPendingMigrations(appliedNames []string) []string {
	applied := map[string]struct{}{}
	for _, name := range appliedNames {
		applied[name] = struct{}{}
	}

	var pending []string
	for _, name := range tenantMigrations {
		if _, ok := applied[name]; !ok {
			pending = append(pending, name)
		}
	}
	return pending
}

// ApplyMigration implements search.Index.
func (i *Index) ApplyMigration(ctx context.Context, name string) error {
	switch name {
	case "typesense_m1_create_collection":
		err := i.CreateIndex(ctx)
		if _, ok := err.(errtypes.IsAlreadyExists); ok {
			return nil
		}
		return err
	case "typesense_m2_add_mime_field":
		return i.alterSchema(ctx, map[string]interface{}{
			"fields": []map[string]interface{}{
				{"name": "mime", "type": "string", "optional": true},
			},
		})
	default:
		return errtypes.NotFound("search migration " + name)
	}
}

func (i *Index) alterSchema(ctx context.Context, alter map[string]interface{}) error {
	body, _ := json.Marshal(alter)
	res, err := i.do(ctx, http.MethodPatch, "/collections/"+url.PathEscape(i.name), nil, bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return drainError(res)
	}
	res.Body.Close()
	return nil
}
