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

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingKeepsDeclarationOrder(t *testing.T) {
	declared := []Migration{
		{Name: "m1"}, {Name: "m2"}, {Name: "m3"}, {Name: "m4"},
	}

	pending := Pending(declared, []string{"m2"})
	assert.Equal(t, []string{"m1", "m3", "m4"}, pending)

	pending = Pending(declared, []string{"m1", "m2", "m3", "m4"})
	assert.Empty(t, pending)

	// Unknown applied names are ignored.
	pending = Pending(declared, []string{"m9"})
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, pending)
}

func TestTenantMigrationsAreOrdered(t *testing.T) {
	names := []string{}
	for _, m := range TenantMigrations() {
		names = append(names, m.Name)
		assert.NotEmpty(t, m.SQL, m.Name)
	}
	assert.Equal(t, []string{
		"m1_create_boxes_table",
		"m2_create_folders_table",
		"m3_create_files_table",
		"m4_create_generated_files_table",
		"m5_create_links_table",
		"m6_create_edit_history_table",
		"m7_create_tasks_table",
		"m8_create_presigned_upload_tasks_table",
		"m9_create_link_resolved_metadata_table",
	}, names)
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"docbox_tenant_a"`, QuoteIdentifier("docbox_tenant_a"))
	assert.Equal(t, `"weird""name"`, QuoteIdentifier(`weird"name`))
}
