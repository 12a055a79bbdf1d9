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

package storage

import (
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/storage/memory"
	"github.com/docbox-eu/docbox/pkg/storage/s3"
)

// Config selects and configures one of the storage drivers.
type Config struct {
	Driver string    `mapstructure:"driver"`
	S3     s3.Config `mapstructure:"s3"`
}

type factoryFunc func(bucket string) Layer

func (f factoryFunc) ForBucket(bucket string) Layer { return f(bucket) }

// NewFactory builds the storage factory for the configured driver.
func NewFactory(c *Config) (Factory, error) {
	switch c.Driver {
	case "", "s3":
		f, err := s3.NewFactory(&c.S3)
		if err != nil {
			return nil, err
		}
		return factoryFunc(func(bucket string) Layer { return f.ForBucket(bucket) }), nil
	case "memory":
		f := memory.NewFactory()
		return factoryFunc(func(bucket string) Layer { return f.ForBucket(bucket) }), nil
	default:
		return nil, errtypes.NotSupported("storage driver " + c.Driver)
	}
}
