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

// Package config loads the TOML configuration shared by the daemon and the
// management command.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/docbox-eu/docbox/pkg/background"
	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/docbox"
	eventsfactory "github.com/docbox-eu/docbox/pkg/events/factory"
	"github.com/docbox-eu/docbox/pkg/processing/office"
	searchfactory "github.com/docbox-eu/docbox/pkg/search/factory"
	"github.com/docbox-eu/docbox/pkg/storage"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Log configures the process logger.
type Log struct {
	Level string `mapstructure:"level"`
	Mode  string `mapstructure:"mode"`
}

// HTTP configures the notification webhook listener.
type HTTP struct {
	Address string `mapstructure:"address"`
}

// Secrets selects the secret manager driver.
type Secrets struct {
	Driver string `mapstructure:"driver"`
	// Static seeds the memory driver, secret name to string value.
	Static map[string]string `mapstructure:"static"`
}

// Config is the full process configuration.
type Config struct {
	Log        Log                      `mapstructure:"log"`
	HTTP       HTTP                     `mapstructure:"http"`
	Database   database.PoolCacheConfig `mapstructure:"database"`
	Storage    storage.Config           `mapstructure:"storage"`
	Search     searchfactory.Config     `mapstructure:"search"`
	Events     eventsfactory.Config     `mapstructure:"events"`
	Secrets    Secrets                  `mapstructure:"secrets"`
	Converter  office.Config            `mapstructure:"converter"`
	Docbox     docbox.Config            `mapstructure:"docbox"`
	Background background.Config        `mapstructure:"background"`
}

// Load reads and decodes the configuration file.
func Load(path string) (*Config, error) {
	raw := map[string]interface{}{}
	if path != "" {
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	c := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	return c, nil
}
