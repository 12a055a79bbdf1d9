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

// Config tunes the housekeeping loop.
type Config struct {
	// PurgeInterval is how often the expiry sweeps fire, zero means one
	// hour.
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
	// TaskRetention is how long task rows are kept, zero means 30 days.
	TaskRetention time.Duration `mapstructure:"task_retention"`
}

// Run drives the housekeeping events until ctx is cancelled. Handlers are
// fire and forget, a failing sweep is logged and tried again on the next
// tick.
func Run(ctx context.Context, c *Config, pools *database.PoolCache, storageFactory storage.Factory) {
	log := appctx.GetLogger(ctx)

	purgeInterval := time.Hour
	taskRetention := 30 * 24 * time.Hour
	if c != nil && c.PurgeInterval > 0 {
		purgeInterval = c.PurgeInterval
	}
	if c != nil && c.TaskRetention > 0 {
		taskRetention = c.TaskRetention
	}

	scheduler := NewScheduler([]QueueEvent{
		{Event: PurgeExpiredPresigned, Interval: purgeInterval},
		{Event: PurgeExpiredWebsiteMetadata, Interval: purgeInterval},
		{Event: PurgeExpiredTasks, Interval: 24 * time.Hour},
	})

	for event := range scheduler.Run(ctx) {
		switch event {
		case PurgeExpiredPresigned:
			log.Debug().Msg("performing background purge for presigned tasks")
			go func() {
				if err := PurgeExpiredPresignedTasks(ctx, pools, storageFactory); err != nil {
					log.Error().Err(err).Msg("failed to purge expired presigned tasks")
				}
			}()
		case PurgeExpiredWebsiteMetadata:
			log.Debug().Msg("purging expired website metadata")
			go func() {
				if err := PurgeExpiredWebsiteMetadata(ctx, pools); err != nil {
					log.Error().Err(err).Msg("failed to purge expired website metadata")
				}
			}()
		case PurgeExpiredTasks:
			log.Debug().Msg("purging expired tasks")
			go func() {
				if err := PurgeExpiredTasks(ctx, pools, taskRetention); err != nil {
					log.Error().Err(err).Msg("failed to purge expired tasks")
				}
			}()
		}
	}
}
