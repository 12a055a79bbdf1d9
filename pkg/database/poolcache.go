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
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/secrets"
	"github.com/jellydator/ttlcache/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// PoolCacheConfig configures the shared database server and pool reuse.
type PoolCacheConfig struct {
	Host     string `mapstructure:"host"`
	Port     uint16 `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
	// Region is used to sign IAM auth tokens for tenants using IAM users.
	Region string `mapstructure:"region"`
	// IdleTTL drops pools that saw no use for this long, zero means 30
	// minutes.
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

// PoolCache resolves tenants to connection pools against their database,
// reusing pools until they idle out. Evicted pools are closed
// asynchronously.
type PoolCache struct {
	config   PoolCacheConfig
	secrets  secrets.Manager
	awsCreds aws.CredentialsProvider

	cache *ttlcache.Cache
	group singleflight.Group
}

const rootPoolKey = "\x00root"

// NewPoolCache builds a pool cache. awsCreds may be nil when no tenant
// uses IAM authentication.
func NewPoolCache(config PoolCacheConfig, secretManager secrets.Manager, awsCreds aws.CredentialsProvider) *PoolCache {
	ttl := config.IdleTTL
	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	cache := ttlcache.NewCache()
	_ = cache.SetTTL(ttl)
	cache.SetExpirationReasonCallback(func(key string, _ ttlcache.EvictionReason, value interface{}) {
		if db, ok := value.(*sql.DB); ok {
			go func() { _ = db.Close() }()
		}
	})

	return &PoolCache{
		config:   config,
		secrets:  secretManager,
		awsCreds: awsCreds,
		cache:    cache,
	}
}

// GetRootPool returns the pool against the root database.
func (c *PoolCache) GetRootPool(ctx context.Context) (*sql.DB, error) {
	return c.getPool(ctx, rootPoolKey, func(ctx context.Context) (*sql.DB, error) {
		creds := Credentials{
			Host:     c.config.Host,
			Port:     c.config.Port,
			Username: c.config.Username,
			Password: c.config.Password,
			SSLMode:  c.config.SSLMode,
		}
		return Connect(ctx, creds, RootDatabaseName)
	})
}

// GetTenantPool returns the pool against the tenant database, creating it
// lazily from the tenant credential source.
func (c *PoolCache) GetTenantPool(ctx context.Context, tenant *Tenant) (*sql.DB, error) {
	key := tenant.Env + "\x00" + tenant.ID.String()
	return c.getPool(ctx, key, func(ctx context.Context) (*sql.DB, error) {
		creds, err := c.tenantCredentials(ctx, tenant)
		if err != nil {
			return nil, err
		}
		return Connect(ctx, *creds, tenant.DBName)
	})
}

// getPool reads the cache without any cross-tenant locking, only misses
// for the same key serialise so concurrent lookups build a single pool.
func (c *PoolCache) getPool(ctx context.Context, key string, connect func(ctx context.Context) (*sql.DB, error)) (*sql.DB, error) {
	if v, err := c.cache.Get(key); err == nil {
		return v.(*sql.DB), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent miss may have populated the entry already.
		if v, err := c.cache.Get(key); err == nil {
			return v, nil
		}
		db, err := connect(ctx)
		if err != nil {
			return nil, err
		}
		_ = c.cache.Set(key, db)
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

func (c *PoolCache) tenantCredentials(ctx context.Context, tenant *Tenant) (*Credentials, error) {
	switch {
	case tenant.DBSecretName != nil && *tenant.DBSecretName != "":
		parsed, err := secrets.ParseDatabaseCredentials(ctx, c.secrets, *tenant.DBSecretName)
		if err != nil {
			return nil, err
		}
		return &Credentials{
			Host:     parsed.Host,
			Port:     parsed.Port,
			Username: parsed.Username,
			Password: parsed.Password,
			SSLMode:  c.config.SSLMode,
		}, nil

	case tenant.DBIamUser != nil && *tenant.DBIamUser != "":
		if c.awsCreds == nil {
			return nil, errtypes.ConfigError("tenant uses iam auth but no aws credentials are configured")
		}
		endpoint := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
		token, err := auth.BuildAuthToken(ctx, endpoint, c.config.Region, *tenant.DBIamUser, c.awsCreds)
		if err != nil {
			return nil, errors.Wrap(err, "building iam auth token")
		}
		return &Credentials{
			Host:     c.config.Host,
			Port:     c.config.Port,
			Username: *tenant.DBIamUser,
			Password: token,
			SSLMode:  "require",
		}, nil

	default:
		return &Credentials{
			Host:     c.config.Host,
			Port:     c.config.Port,
			Username: c.config.Username,
			Password: c.config.Password,
			SSLMode:  c.config.SSLMode,
		}, nil
	}
}

// Flush drops every cached pool, closing them asynchronously.
func (c *PoolCache) Flush() {
	// Remove, unlike Purge, runs the expiration callback that closes a pool.
	for _, key := range c.cache.GetKeys() {
		_ = c.cache.Remove(key)
	}
}
