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
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/google/uuid"
)

// Migration couples a stable name with the statement it applies. Migrations
// run in declaration order, each applied name is recorded so reruns are
// no-ops.
type Migration struct {
	Name string
	SQL  string
}

var (
	//go:embed migrations/root/r1_create_tenants_table.sql
	rootCreateTenantsTable string

	//go:embed migrations/tenant/m1_create_boxes_table.sql
	tenantCreateBoxesTable string
	//go:embed migrations/tenant/m2_create_folders_table.sql
	tenantCreateFoldersTable string
	//go:embed migrations/tenant/m3_create_files_table.sql
	tenantCreateFilesTable string
	//go:embed migrations/tenant/m4_create_generated_files_table.sql
	tenantCreateGeneratedFilesTable string
	//go:embed migrations/tenant/m5_create_links_table.sql
	tenantCreateLinksTable string
	//go:embed migrations/tenant/m6_create_edit_history_table.sql
	tenantCreateEditHistoryTable string
	//go:embed migrations/tenant/m7_create_tasks_table.sql
	tenantCreateTasksTable string
	//go:embed migrations/tenant/m8_create_presigned_upload_tasks_table.sql
	tenantCreatePresignedTable string
	//go:embed migrations/tenant/m9_create_link_resolved_metadata_table.sql
	tenantCreateLinkMetadataTable string
)

// RootMigrations are applied against the root database.
func RootMigrations() []Migration {
	return []Migration{
		{"r1_create_tenants_table", rootCreateTenantsTable},
	}
}

// TenantMigrations are applied against every tenant database.
func TenantMigrations() []Migration {
	return []Migration{
		{"m1_create_boxes_table", tenantCreateBoxesTable},
		{"m2_create_folders_table", tenantCreateFoldersTable},
		{"m3_create_files_table", tenantCreateFilesTable},
		{"m4_create_generated_files_table", tenantCreateGeneratedFilesTable},
		{"m5_create_links_table", tenantCreateLinksTable},
		{"m6_create_edit_history_table", tenantCreateEditHistoryTable},
		{"m7_create_tasks_table", tenantCreateTasksTable},
		{"m8_create_presigned_upload_tasks_table", tenantCreatePresignedTable},
		{"m9_create_link_resolved_metadata_table", tenantCreateLinkMetadataTable},
	}
}

// Pending returns the declared migration names not yet applied, keeping
// declaration order.
func Pending(declared []Migration, applied []string) []string {
	seen := map[string]struct{}{}
	for _, name := range applied {
		seen[name] = struct{}{}
	}

	var pending []string
	for _, m := range declared {
		if _, ok := seen[m.Name]; !ok {
			pending = append(pending, m.Name)
		}
	}
	return pending
}

// InitializeRootMigrations creates the root bookkeeping table.
func InitializeRootMigrations(ctx context.Context, db Executor) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS "docbox_root_migrations" (
			"name" TEXT PRIMARY KEY,
			"applied_at" TIMESTAMPTZ NOT NULL
		)`)
	return mapError(err)
}

// AppliedRootMigrations returns the recorded root migration names.
func AppliedRootMigrations(ctx context.Context, db Executor) ([]string, error) {
	return appliedNames(ctx, db, `SELECT "name" FROM "docbox_root_migrations"`)
}

// ApplyRootMigrations runs the pending root migrations inside tx. When
// target is non empty only the named migration is applied.
func ApplyRootMigrations(ctx context.Context, tx *sql.Tx, target string) error {
	applied, err := AppliedRootMigrations(ctx, tx)
	if err != nil {
		return err
	}

	for _, name := range Pending(RootMigrations(), applied) {
		if target != "" && target != name {
			continue
		}
		if err := execMigration(ctx, tx, RootMigrations(), name); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO "docbox_root_migrations" ("name", "applied_at") VALUES ($1, $2)`,
			name, time.Now().UTC(),
		); err != nil {
			return mapError(err)
		}
	}
	return nil
}

// TenantMigrationRecord is one bookkeeping row of the root database for a
// migration applied to a tenant database or search index.
type TenantMigrationRecord struct {
	Env       string
	TenantID  uuid.UUID
	Name      string
	AppliedAt time.Time
}

// CreateTenantMigrationRecord stores an applied tenant migration.
func CreateTenantMigrationRecord(ctx context.Context, db Executor, r *TenantMigrationRecord) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO "docbox_tenants_migrations" ("env", "tenant_id", "name", "applied_at") VALUES ($1, $2, $3, $4)`,
		r.Env, r.TenantID, r.Name, r.AppliedAt,
	)
	return mapError(err)
}

// AppliedTenantMigrations returns the recorded migration names of a tenant.
func AppliedTenantMigrations(ctx context.Context, db Executor, env string, tenantID uuid.UUID) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT "name" FROM "docbox_tenants_migrations" WHERE "env" = $1 AND "tenant_id" = $2`,
		env, tenantID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err)
		}
		names = append(names, name)
	}
	return names, mapError(rows.Err())
}

// ApplyTenantMigrations runs the pending tenant migrations against the
// tenant transaction, recording each applied name on the root transaction.
// When target is non empty only the named migration is applied.
func ApplyTenantMigrations(ctx context.Context, rootTx, tenantTx *sql.Tx, tenant *Tenant, target string) error {
	applied, err := AppliedTenantMigrations(ctx, rootTx, tenant.Env, tenant.ID)
	if err != nil {
		return err
	}

	for _, name := range Pending(TenantMigrations(), applied) {
		if target != "" && target != name {
			continue
		}
		if err := execMigration(ctx, tenantTx, TenantMigrations(), name); err != nil {
			return err
		}
		record := &TenantMigrationRecord{
			Env:       tenant.Env,
			TenantID:  tenant.ID,
			Name:      name,
			AppliedAt: time.Now().UTC(),
		}
		if err := CreateTenantMigrationRecord(ctx, rootTx, record); err != nil {
			return err
		}
	}
	return nil
}

func execMigration(ctx context.Context, tx *sql.Tx, declared []Migration, name string) error {
	for _, m := range declared {
		if m.Name == name {
			_, err := tx.ExecContext(ctx, m.SQL)
			return mapError(err)
		}
	}
	return nil
}

func appliedNames(ctx context.Context, db Executor, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err)
		}
		names = append(names, name)
	}
	return names, mapError(rows.Err())
}

// CreateTenantsMigrationsTable creates the shared tenant bookkeeping table
// on the root database.
func CreateTenantsMigrationsTable(ctx context.Context, db Executor) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS "docbox_tenants_migrations" (
			"env" TEXT NOT NULL,
			"tenant_id" UUID NOT NULL,
			"name" TEXT NOT NULL,
			"applied_at" TIMESTAMPTZ NOT NULL,
			PRIMARY KEY ("env", "tenant_id", "name")
		)`)
	return mapError(err)
}

// CreateDatabase creates a new database. A duplicate database error is
// surfaced so callers can decide whether it is fatal.
func CreateDatabase(ctx context.Context, db *sql.DB, name string) error {
	_, err := db.ExecContext(ctx, `CREATE DATABASE `+QuoteIdentifier(name))
	return err
}

// DropDatabase drops a database, used when deleting a tenant.
func DropDatabase(ctx context.Context, db *sql.DB, name string) error {
	_, err := db.ExecContext(ctx, `DROP DATABASE IF EXISTS `+QuoteIdentifier(name))
	return err
}

// QuoteIdentifier quotes a database identifier for dynamic statements.
func QuoteIdentifier(name string) string {
	out := make([]rune, 0, len(name)+2)
	out = append(out, '"')
	for _, r := range name {
		if r == '"' {
			out = append(out, '"')
		}
		out = append(out, r)
	}
	return string(append(out, '"'))
}
