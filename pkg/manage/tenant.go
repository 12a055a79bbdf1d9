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

package manage

import (
	"context"
	"database/sql"
	"time"

	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/google/uuid"
)

// CreateTenantRequest provisions a complete tenant universe.
type CreateTenantRequest struct {
	Env             string
	ID              uuid.UUID
	Name            string
	DBName          string
	DBSecretName    *string
	DBIamUser       *string
	S3BucketName    string
	SearchIndexName string
	EventQueueURL   *string
}

// CreateTenant provisions the tenant database, bucket and search index and
// records the tenant row. Already provisioned pieces are tolerated so a
// failed run can be repeated.
func (m *Manager) CreateTenant(ctx context.Context, req CreateTenantRequest) (*database.Tenant, error) {
	log := appctx.GetLogger(ctx)

	if req.Env == "" || req.Name == "" || req.DBName == "" || req.S3BucketName == "" || req.SearchIndexName == "" {
		return nil, errtypes.BadRequest("env, name, db name, bucket and index are required")
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	root, err := m.pools.GetRootPool(ctx)
	if err != nil {
		return nil, err
	}

	if existing, err := database.FindTenant(ctx, root, req.Env, req.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errtypes.AlreadyExists("tenant " + req.ID.String() + " in " + req.Env)
	}

	// Database first, everything else hangs off it.
	if err := database.CreateDatabase(ctx, root, req.DBName); err != nil {
		if !database.IsDuplicateDatabase(err) {
			return nil, err
		}
		log.Warn().Str("db", req.DBName).Msg("tenant database already exists, reusing it")
	}

	tenantRow := &database.Tenant{
		ID:              req.ID,
		Env:             req.Env,
		Name:            req.Name,
		DBName:          req.DBName,
		DBSecretName:    req.DBSecretName,
		DBIamUser:       req.DBIamUser,
		S3BucketName:    req.S3BucketName,
		SearchIndexName: req.SearchIndexName,
		EventQueueURL:   req.EventQueueURL,
		CreatedAt:       time.Now().UTC(),
	}

	tenantDB, err := m.pools.GetTenantPool(ctx, tenantRow)
	if err != nil {
		return nil, err
	}

	if err := m.applyTenantMigrations(ctx, root, tenantDB, tenantRow, ""); err != nil {
		return nil, err
	}

	layer := m.storage.ForBucket(req.S3BucketName)
	if err := layer.CreateBucket(ctx); err != nil {
		if _, ok := err.(errtypes.IsAlreadyExists); !ok {
			return nil, err
		}
		log.Warn().Str("bucket", req.S3BucketName).Msg("tenant bucket already exists, reusing it")
	}

	index := m.search.ForIndex(req.SearchIndexName)
	if err := index.CreateIndex(ctx); err != nil {
		if _, ok := err.(errtypes.IsAlreadyExists); !ok {
			return nil, err
		}
		log.Warn().Str("index", req.SearchIndexName).Msg("tenant search index already exists, reusing it")
	}

	if err := database.CreateTenant(ctx, root, tenantRow); err != nil {
		return nil, err
	}
	return tenantRow, nil
}

// DeleteTenant detaches and destroys the tenant stores, then removes the
// tenant row. A store teardown failure is returned and leaves the tenant
// row in place, the row only goes away once every store is gone.
func (m *Manager) DeleteTenant(ctx context.Context, env string, id uuid.UUID) error {
	t, err := m.GetTenant(ctx, env, id)
	if err != nil {
		return err
	}

	index := m.search.ForIndex(t.SearchIndexName)
	if err := index.DeleteIndex(ctx); err != nil {
		return err
	}

	layer := m.storage.ForBucket(t.S3BucketName)
	if err := layer.DeleteBucket(ctx); err != nil {
		return err
	}

	root, err := m.pools.GetRootPool(ctx)
	if err != nil {
		return err
	}

	// Drop cached pools before dropping the database out from under them.
	m.FlushTenantCache()

	if err := database.DropDatabase(ctx, root, t.DBName); err != nil {
		return err
	}
	if err := database.DeleteTenant(ctx, root, env, id); err != nil {
		return err
	}
	m.FlushTenantCache()
	return nil
}

// MigrateTenant applies the pending database migrations of one tenant.
// When target is non empty only the named migration is applied.
func (m *Manager) MigrateTenant(ctx context.Context, env string, id uuid.UUID, target string) error {
	t, err := m.GetTenant(ctx, env, id)
	if err != nil {
		return err
	}

	root, err := m.pools.GetRootPool(ctx)
	if err != nil {
		return err
	}
	tenantDB, err := m.pools.GetTenantPool(ctx, t)
	if err != nil {
		return err
	}
	return m.applyTenantMigrations(ctx, root, tenantDB, t, target)
}

func (m *Manager) applyTenantMigrations(ctx context.Context, root, tenantDB *sql.DB, t *database.Tenant, target string) error {
	rootTx, err := root.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	tenantTx, err := tenantDB.BeginTx(ctx, nil)
	if err != nil {
		_ = rootTx.Rollback()
		return err
	}

	if err := database.ApplyTenantMigrations(ctx, rootTx, tenantTx, t, target); err != nil {
		_ = tenantTx.Rollback()
		_ = rootTx.Rollback()
		return err
	}

	// Tenant schema first, its bookkeeping row follows.
	if err := tenantTx.Commit(); err != nil {
		_ = rootTx.Rollback()
		return err
	}
	return rootTx.Commit()
}

// PendingTenantMigrations returns the database migrations a tenant still
// misses.
func (m *Manager) PendingTenantMigrations(ctx context.Context, env string, id uuid.UUID) ([]string, error) {
	t, err := m.GetTenant(ctx, env, id)
	if err != nil {
		return nil, err
	}
	root, err := m.pools.GetRootPool(ctx)
	if err != nil {
		return nil, err
	}
	applied, err := database.AppliedTenantMigrations(ctx, root, t.Env, t.ID)
	if err != nil {
		return nil, err
	}
	return database.Pending(database.TenantMigrations(), applied), nil
}

// PendingTenantSearchMigrations returns the search index migrations a
// tenant still misses, names are namespaced by the search driver.
func (m *Manager) PendingTenantSearchMigrations(ctx context.Context, env string, id uuid.UUID) ([]string, error) {
	t, err := m.GetTenant(ctx, env, id)
	if err != nil {
		return nil, err
	}
	root, err := m.pools.GetRootPool(ctx)
	if err != nil {
		return nil, err
	}
	applied, err := database.AppliedTenantMigrations(ctx, root, t.Env, t.ID)
	if err != nil {
		return nil, err
	}
	return m.search.ForIndex(t.SearchIndexName).GetPendingMigrations(applied), nil
}

// MigrateTenantSearch applies the pending search index migrations of one
// tenant, recording each applied name in the shared bookkeeping table.
// When target is non empty only the named migration is applied.
func (m *Manager) MigrateTenantSearch(ctx context.Context, env string, id uuid.UUID, target string) error {
	t, err := m.GetTenant(ctx, env, id)
	if err != nil {
		return err
	}
	root, err := m.pools.GetRootPool(ctx)
	if err != nil {
		return err
	}

	index := m.search.ForIndex(t.SearchIndexName)
	pending, err := m.PendingTenantSearchMigrations(ctx, env, id)
	if err != nil {
		return err
	}

	for _, name := range pending {
		if target != "" && target != name {
			continue
		}
		if err := index.ApplyMigration(ctx, name); err != nil {
			return err
		}
		if err := database.CreateTenantMigrationRecord(ctx, root, &database.TenantMigrationRecord{
			Env:       t.Env,
			TenantID:  t.ID,
			Name:      name,
			AppliedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
	}
	return nil
}
