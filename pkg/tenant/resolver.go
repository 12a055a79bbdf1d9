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

package tenant

import (
	"context"
	"database/sql"

	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/events"
	eventsfactory "github.com/docbox-eu/docbox/pkg/events/factory"
	"github.com/docbox-eu/docbox/pkg/search"
	"github.com/docbox-eu/docbox/pkg/storage"
	"github.com/google/uuid"
)

// Instance is a live handle on one tenant's stores.
type Instance struct {
	Tenant  *database.Tenant
	DB      *sql.DB
	Storage storage.Layer
	Search  search.Index
	Events  events.Publisher
}

// Resolver binds tenants to their database pool, storage layer, search
// index and event publisher.
type Resolver struct {
	cache   *Cache
	pools   *database.PoolCache
	storage storage.Factory
	search  search.Factory
	events  *eventsfactory.Factory
}

// NewResolver wires a resolver from the shared factories.
func NewResolver(cache *Cache, pools *database.PoolCache, storageFactory storage.Factory, searchFactory search.Factory, eventsFactory *eventsfactory.Factory) *Resolver {
	return &Resolver{
		cache:   cache,
		pools:   pools,
		storage: storageFactory,
		search:  searchFactory,
		events:  eventsFactory,
	}
}

// Resolve returns the live handle for (env, id). Unknown tenants yield an
// errtypes.NotFound.
func (r *Resolver) Resolve(ctx context.Context, env string, id uuid.UUID) (*Instance, error) {
	root, err := r.pools.GetRootPool(ctx)
	if err != nil {
		return nil, err
	}

	tenant, err := r.cache.GetTenant(ctx, root, env, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errtypes.NotFound("tenant " + id.String() + " in " + env)
	}

	db, err := r.pools.GetTenantPool(ctx, tenant)
	if err != nil {
		return nil, err
	}

	return &Instance{
		Tenant:  tenant,
		DB:      db,
		Storage: r.storage.ForBucket(tenant.S3BucketName),
		Search:  r.search.ForIndex(tenant.SearchIndexName),
		Events:  r.events.ForTenant(tenant.EventQueueURL),
	}, nil
}

// Flush drops the cached tenant descriptors and pools, used by the admin
// surface after tenant mutations.
func (r *Resolver) Flush() {
	r.cache.Flush()
	r.pools.Flush()
}
