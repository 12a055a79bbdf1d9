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

// Package factory builds the configured search driver. The driver set is
// closed so every call site can be matched exhaustively and tested against
// the in memory variant.
package factory

import (
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/search"
	"github.com/docbox-eu/docbox/pkg/search/memory"
	"github.com/docbox-eu/docbox/pkg/search/typesense"
)

// Config selects and configures one of the search drivers.
type Config struct {
	Driver    string           `mapstructure:"driver"`
	Typesense typesense.Config `mapstructure:"typesense"`
}

type factoryFunc func(indexName string) search.Index

func (f factoryFunc) ForIndex(indexName string) search.Index { return f(indexName) }

// New builds the search factory for the configured driver.
func New(c *Config) (search.Factory, error) {
	switch c.Driver {
	case "", "typesense":
		f, err := typesense.NewFactory(&c.Typesense)
		if err != nil {
			return nil, err
		}
		return factoryFunc(func(name string) search.Index { return f.ForIndex(name) }), nil
	case "memory":
		f := memory.NewFactory()
		return factoryFunc(func(name string) search.Index { return f.ForIndex(name) }), nil
	default:
		return nil, errtypes.NotSupported("search driver " + c.Driver)
	}
}
