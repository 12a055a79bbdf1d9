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
	"testing"

	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTenantCachesHits(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	id := uuid.New()
	fetches := 0
	fetch := func() (*database.Tenant, error) {
		fetches++
		return &database.Tenant{ID: id, Env: "dev", Name: "acme"}, nil
	}

	got, err := cache.getTenant("dev", id, fetch)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "acme", got.Name)
	assert.Equal(t, 1, fetches)

	got, err = cache.getTenant("dev", id, fetch)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, fetches, "second lookup must hit the cache")
}

func TestGetTenantUnknownIsNotCached(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	id := uuid.New()
	fetches := 0
	fetch := func() (*database.Tenant, error) {
		fetches++
		return nil, nil
	}

	got, err := cache.getTenant("dev", id, fetch)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, _ = cache.getTenant("dev", id, fetch)
	assert.Equal(t, 2, fetches, "misses must not be cached")
}

func TestFlushForcesReload(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	id := uuid.New()
	fetches := 0
	fetch := func() (*database.Tenant, error) {
		fetches++
		return &database.Tenant{ID: id, Env: "dev"}, nil
	}

	_, err = cache.getTenant("dev", id, fetch)
	require.NoError(t, err)

	cache.Flush()

	_, err = cache.getTenant("dev", id, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches, "flush must force a database read")
}

func TestEnvIsPartOfTheKey(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	id := uuid.New()
	fetches := 0
	fetch := func() (*database.Tenant, error) {
		fetches++
		return &database.Tenant{ID: id}, nil
	}

	_, _ = cache.getTenant("dev", id, fetch)
	_, _ = cache.getTenant("prod", id, fetch)
	assert.Equal(t, 2, fetches)
}
