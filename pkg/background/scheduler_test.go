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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerEmitsEveryEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewScheduler([]QueueEvent{
		{Event: PurgeExpiredPresigned, Interval: 10 * time.Millisecond},
		{Event: PurgeExpiredWebsiteMetadata, Interval: 15 * time.Millisecond},
	})

	counts := map[Event]int{}
	timeout := time.After(2 * time.Second)
	events := s.Run(ctx)

	for counts[PurgeExpiredPresigned] < 2 || counts[PurgeExpiredWebsiteMetadata] < 2 {
		select {
		case e, ok := <-events:
			require.True(t, ok, "stream closed early")
			counts[e]++
		case <-timeout:
			require.FailNow(t, "timed out waiting for scheduler events")
		}
	}

	assert.GreaterOrEqual(t, counts[PurgeExpiredPresigned], 2)
	assert.GreaterOrEqual(t, counts[PurgeExpiredWebsiteMetadata], 2)
}

func TestSchedulerClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := NewScheduler([]QueueEvent{
		{Event: PurgeExpiredTasks, Interval: time.Hour},
	})
	events := s.Run(ctx)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "stream must close after cancellation")
	case <-time.After(time.Second):
		assert.Fail(t, "stream did not close")
	}
}

func TestSchedulerNoEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := NewScheduler(nil).Run(ctx)

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		assert.Fail(t, "empty scheduler must close its stream")
	}
}
