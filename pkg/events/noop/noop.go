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

// Package noop provides the event publisher for tenants without an event
// queue.
package noop

import (
	"context"

	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/events"
)

// Publisher drops every event, logging it at debug level.
type Publisher struct{}

// New returns a no-op publisher.
func New() *Publisher { return &Publisher{} }

// Publish implements events.Publisher.
func (p *Publisher) Publish(ctx context.Context, event events.TenantEvent) {
	appctx.GetLogger(ctx).Debug().
		Str("type", string(event.Type)).
		Str("scope", event.Scope).
		Msg("dropping tenant event, no queue configured")
}
