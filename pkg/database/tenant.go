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
	"time"

	"github.com/google/uuid"
)

// Tenant is one row of the root tenants table. A tenant is fully described
// by its database, bucket and search index names plus optional secret and
// event queue references.
type Tenant struct {
	ID              uuid.UUID
	Env             string
	Name            string
	DBName          string
	DBSecretName    *string
	DBIamUser       *string
	S3BucketName    string
	SearchIndexName string
	EventQueueURL   *string
	CreatedAt       time.Time
}

const tenantColumns = `"id", "env", "name", "db_name", "db_secret_name", "db_iam_user", "s3_bucket_name", "search_index_name", "event_queue_url", "created_at"`

func scanTenant(row interface{ Scan(...interface{}) error }) (*Tenant, error) {
	var t Tenant
	err := row.Scan(
		&t.ID, &t.Env, &t.Name, &t.DBName, &t.DBSecretName, &t.DBIamUser,
		&t.S3BucketName, &t.SearchIndexName, &t.EventQueueURL, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTenant inserts the tenant row.
func CreateTenant(ctx context.Context, db Executor, t *Tenant) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO "docbox_tenants" (`+tenantColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Env, t.Name, t.DBName, t.DBSecretName, t.DBIamUser,
		t.S3BucketName, t.SearchIndexName, t.EventQueueURL, t.CreatedAt,
	)
	return mapError(err)
}

// FindTenant returns the tenant for (env, id) or nil when unknown.
func FindTenant(ctx context.Context, db Executor, env string, id uuid.UUID) (*Tenant, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM "docbox_tenants" WHERE "env" = $1 AND "id" = $2`,
		env, id,
	)
	t, err := scanTenant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

// AllTenants returns every tenant, across environments.
func AllTenants(ctx context.Context, db Executor) ([]Tenant, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+tenantColumns+` FROM "docbox_tenants" ORDER BY "created_at"`,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, mapError(err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, mapError(rows.Err())
}

// DeleteTenant removes the tenant row.
func DeleteTenant(ctx context.Context, db Executor, env string, id uuid.UUID) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM "docbox_tenants" WHERE "env" = $1 AND "id" = $2`,
		env, id,
	)
	return mapError(err)
}

// UpdateTenantCredentials rotates the credential source of a tenant, used
// when migrating from secret based to IAM based authentication.
func UpdateTenantCredentials(ctx context.Context, db Executor, env string, id uuid.UUID, secretName, iamUser *string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE "docbox_tenants" SET "db_secret_name" = $3, "db_iam_user" = $4 WHERE "env" = $1 AND "id" = $2`,
		env, id, secretName, iamUser,
	)
	return mapError(err)
}
