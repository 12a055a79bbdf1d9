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

package channel

import (
	"context"
	"testing"

	"github.com/docbox-eu/docbox/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDelivers(t *testing.T) {
	p, ch := New(4)

	p.Publish(context.Background(), events.TenantEvent{Type: events.FileCreated, Scope: "acme"})

	select {
	case ev := <-ch:
		assert.Equal(t, events.FileCreated, ev.Type)
		assert.Equal(t, "acme", ev.Scope)
	default:
		require.Fail(t, "expected a buffered event")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	p, _ := New(1)

	// Fill the buffer, then publish into the full channel. The call must
	// return, the overflow event is dropped.
	p.Publish(context.Background(), events.TenantEvent{Type: events.FileCreated})
	p.Publish(context.Background(), events.TenantEvent{Type: events.FileDeleted})
}
