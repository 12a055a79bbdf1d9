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

// Package docbox implements the tree mutation core. Every mutating
// operation keeps database rows, bucket objects and search documents
// consistent, external stores are mutated first under a rollback guard and
// the database commit disarms it.
package docbox

import (
	"github.com/docbox-eu/docbox/pkg/processing"
)

// RootFolderName is the name given to the root folder of every box.
const RootFolderName = "Root"

// DefaultMaxFileSize bounds uploads when no limit is configured (100 MiB).
const DefaultMaxFileSize = 100 << 20

// Config tunes the mutation service.
type Config struct {
	// MaxFileSize is the upload limit in bytes.
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

// Service exposes the document box, folder, file and link operations of
// one deployment. Per tenant state is passed in through a resolved
// tenant.Instance.
type Service struct {
	processor   *processing.Processor
	maxFileSize int64
}

// NewService builds the mutation service.
func NewService(processor *processing.Processor, c *Config) *Service {
	maxFileSize := int64(DefaultMaxFileSize)
	if c != nil && c.MaxFileSize > 0 {
		maxFileSize = c.MaxFileSize
	}
	return &Service{processor: processor, maxFileSize: maxFileSize}
}
