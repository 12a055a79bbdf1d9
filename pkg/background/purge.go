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

package background

import (
	"context"
	"time"

	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/storage"
)

// forEachTenant runs fn against every tenant, tenant failures are logged
// and do not stop the sweep.
func forEachTenant(ctx context.Context, pools *database.PoolCache, fn func(ctx context.Context, tenant *database.Tenant, db database.Executor) error) error {
	log := appctx.GetLogger(ctx)

	root, err := pools.GetRootPool(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to root database")
		return err
	}

	tenants, err := database.AllTenants(ctx, root)
	if err != nil {
		log.Error().Err(err).Msg("failed to query available tenants")
		return err
	}

	for i := range tenants {
		tenant := &tenants[i]
		db, err := pools.GetTenantPool(ctx, tenant)
		if err != nil {
			log.Error().Err(err).Str("tenant", tenant.ID.String()).Msg("failed to connect to tenant database")
			continue
		}
		if err := fn(ctx, tenant, db); err != nil {
			log.Error().Err(err).Str("tenant", tenant.ID.String()).Msg("tenant purge failed")
		}
	}
	return nil
}

// PurgeExpiredPresignedTasks deletes presigned upload rows past their
// expiry and the dangling object bytes the client may have uploaded.
func PurgeExpiredPresignedTasks(ctx context.Context, pools *database.PoolCache, storageFactory storage.Factory) error {
	return forEachTenant(ctx, pools, func(ctx context.Context, tenant *database.Tenant, db database.Executor) error {
		log := appctx.GetLogger(ctx)
		layer := storageFactory.ForBucket(tenant.S3BucketName)

		expired, err := database.ListExpiredPresignedUploadTasks(ctx, db, time.Now().UTC())
		if err != nil {
			return err
		}

		for _, task := range expired {
			// A completed upload owns the object through its file row,
			// only unreferenced bytes may go away.
			file, err := database.FindFileByKey(ctx, db, task.Scope, task.FileKey)
			if err != nil {
				return err
			}
			if file == nil {
				if err := layer.DeleteFile(ctx, task.FileKey); err != nil {
					log.Error().Err(err).Str("key", task.FileKey).Msg("failed to delete dangling presigned object")
					continue
				}
			}
			if err := database.DeletePresignedUploadTask(ctx, db, task.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// PurgeExpiredWebsiteMetadata deletes cached link metadata past its
// expiry.
func PurgeExpiredWebsiteMetadata(ctx context.Context, pools *database.PoolCache) error {
	return forEachTenant(ctx, pools, func(ctx context.Context, tenant *database.Tenant, db database.Executor) error {
		_, err := database.DeleteExpiredLinkMetadata(ctx, db, time.Now().UTC())
		return err
	})
}

// PurgeExpiredTasks deletes task rows older than the retention window.
func PurgeExpiredTasks(ctx context.Context, pools *database.PoolCache, retention time.Duration) error {
	before := time.Now().UTC().Add(-retention)
	return forEachTenant(ctx, pools, func(ctx context.Context, tenant *database.Tenant, db database.Executor) error {
		_, err := database.DeleteExpiredTasks(ctx, db, before)
		return err
	})
}
