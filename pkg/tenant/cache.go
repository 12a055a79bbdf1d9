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

// Package tenant resolves (env, tenant id) to a live handle on the
// tenant's database pool, bucket, search index and event publisher.
package tenant

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Tenant descriptors are cached briefly, admissions use ristretto's
// TinyLFU policy.
const (
	cacheTTL      = 15 * time.Minute
	cacheCapacity = 50
)

// Cache is a short lived in memory map of tenant descriptors.
type Cache struct {
	cache *ristretto.Cache
}

// NewCache builds an empty tenant cache.
func NewCache() (*Cache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheCapacity * 10,
		MaxCost:     cacheCapacity,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating tenant cache")
	}
	return &Cache{cache: cache}, nil
}

func cacheKey(env string, id uuid.UUID) string {
	return env + "\x00" + id.String()
}

// GetTenant returns the tenant for (env, id), reading through to the root
// database on a miss. Unknown tenants yield nil.
func (c *Cache) GetTenant(ctx context.Context, root database.Executor, env string, id uuid.UUID) (*database.Tenant, error) {
	return c.getTenant(env, id, func() (*database.Tenant, error) {
		return database.FindTenant(ctx, root, env, id)
	})
}

func (c *Cache) getTenant(env string, id uuid.UUID, fetch func() (*database.Tenant, error)) (*database.Tenant, error) {
	key := cacheKey(env, id)
	if v, ok := c.cache.Get(key); ok {
		t := v.(database.Tenant)
		return &t, nil
	}

	tenant, err := fetch()
	if err != nil {
		return nil, err
	}
	if tenant != nil {
		c.cache.SetWithTTL(key, *tenant, 1, cacheTTL)
		// Ristretto admits asynchronously, wait so the descriptor is
		// visible to the next lookup.
		c.cache.Wait()
	}
	return tenant, nil
}

// Flush invalidates the whole cache, the next lookup re-reads the
// database.
func (c *Cache) Flush() {
	c.cache.Clear()
}
