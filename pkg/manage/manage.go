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

// Package manage implements the administrative operations, tenant
// provisioning and the migration runners. These are driven by the
// management command, not by tenant traffic.
package manage

import (
	"context"

	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/search"
	"github.com/docbox-eu/docbox/pkg/secrets"
	"github.com/docbox-eu/docbox/pkg/storage"
	"github.com/docbox-eu/docbox/pkg/tenant"
	"github.com/google/uuid"
)

// Manager bundles the shared factories the administrative operations need.
type Manager struct {
	pools   *database.PoolCache
	storage storage.Factory
	search  search.Factory
	secrets secrets.Manager
	cache   *tenant.Cache
}

// NewManager wires a manager.
func NewManager(pools *database.PoolCache, storageFactory storage.Factory, searchFactory search.Factory, secretManager secrets.Manager, cache *tenant.Cache) *Manager {
	return &Manager{
		pools:   pools,
		storage: storageFactory,
		search:  searchFactory,
		secrets: secretManager,
		cache:   cache,
	}
}

// MigrateRoot applies the pending root migrations, bootstrapping the
// bookkeeping tables on first run. When target is non empty only the named
// migration is applied.
func (m *Manager) MigrateRoot(ctx context.Context, target string) error {
	root, err := m.pools.GetRootPool(ctx)
	if err != nil {
		return err
	}

	// The bookkeeping tables did not exist in early deployments.
	exists, err := database.CheckTableExists(ctx, root, "docbox_root_migrations")
	if err != nil {
		return err
	}
	if !exists {
		if err := database.InitializeRootMigrations(ctx, root); err != nil {
			return err
		}
	}
	if err := database.CreateTenantsMigrationsTable(ctx, root); err != nil {
		return err
	}

	tx, err := root.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := database.ApplyRootMigrations(ctx, tx, target); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// PendingRootMigrations returns the root migrations not applied yet.
func (m *Manager) PendingRootMigrations(ctx context.Context) ([]string, error) {
	root, err := m.pools.GetRootPool(ctx)
	if err != nil {
		return nil, err
	}
	applied, err := database.AppliedRootMigrations(ctx, root)
	if err != nil {
		if database.IsTableMissing(err) {
			applied = nil
		} else {
			return nil, err
		}
	}
	return database.Pending(database.RootMigrations(), applied), nil
}

// GetTenant returns one tenant.
func (m *Manager) GetTenant(ctx context.Context, env string, id uuid.UUID) (*database.Tenant, error) {
	root, err := m.pools.GetRootPool(ctx)
	if err != nil {
		return nil, err
	}
	t, err := database.FindTenant(ctx, root, env, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errtypes.NotFound("tenant " + id.String() + " in " + env)
	}
	return t, nil
}

// GetTenants returns every tenant.
func (m *Manager) GetTenants(ctx context.Context) ([]database.Tenant, error) {
	root, err := m.pools.GetRootPool(ctx)
	if err != nil {
		return nil, err
	}
	return database.AllTenants(ctx, root)
}

// FlushTenantCache invalidates the tenant descriptors and pools, the next
// lookup re-reads the root database.
func (m *Manager) FlushTenantCache() {
	m.cache.Flush()
	m.pools.Flush()
}

// MigrateTenantSecretToIAM rotates a tenant from secret based credentials
// to an IAM database user.
func (m *Manager) MigrateTenantSecretToIAM(ctx context.Context, env string, id uuid.UUID, iamUser string) error {
	root, err := m.pools.GetRootPool(ctx)
	if err != nil {
		return err
	}
	if err := database.UpdateTenantCredentials(ctx, root, env, id, nil, &iamUser); err != nil {
		return err
	}
	m.FlushTenantCache()
	return nil
}
