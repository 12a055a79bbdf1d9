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

// Package events defines the tenant domain events emitted after committed
// mutations. Publishing is non blocking and never fails the surrounding
// operation.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type enumerates the emitted event kinds.
type Type string

const (
	// DocumentBoxCreated is emitted after a document box was created.
	DocumentBoxCreated Type = "DocumentBoxCreated"
	// DocumentBoxDeleted is emitted after a document box was deleted.
	DocumentBoxDeleted Type = "DocumentBoxDeleted"
	// FileCreated is emitted after a file upload committed.
	FileCreated Type = "FileCreated"
	// FileDeleted is emitted after a file was deleted.
	FileDeleted Type = "FileDeleted"
	// FolderCreated is emitted after a folder was created.
	FolderCreated Type = "FolderCreated"
	// FolderDeleted is emitted after a folder was deleted.
	FolderDeleted Type = "FolderDeleted"
	// LinkCreated is emitted after a link was created.
	LinkCreated Type = "LinkCreated"
	// LinkDeleted is emitted after a link was deleted.
	LinkDeleted Type = "LinkDeleted"
)

// TenantEvent is one domain event of one tenant.
type TenantEvent struct {
	Type      Type      `json:"type"`
	Scope     string    `json:"scope"`
	ItemID    uuid.UUID `json:"item_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is a per tenant event sink. Publish must not block and must
// not surface failures to the caller.
type Publisher interface {
	Publish(ctx context.Context, event TenantEvent)
}
