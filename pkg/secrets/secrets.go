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

// Package secrets defines the secret manager used to store tenant secret
// material such as database credentials.
package secrets

import (
	"context"
	"encoding/json"

	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/pkg/errors"
)

// Secret is a named secret value, either a string or raw bytes.
type Secret struct {
	String string
	Binary []byte
}

// SetOutcome reports whether SetSecret created or updated a secret.
type SetOutcome int

const (
	// Created indicates the secret did not exist before.
	Created SetOutcome = iota
	// Updated indicates an existing secret was overwritten.
	Updated
)

// Manager reads and writes named secrets.
type Manager interface {
	// GetSecret returns the named secret or nil when it does not exist.
	GetSecret(ctx context.Context, name string) (*Secret, error)
	// CreateSecret stores a new secret under the given name.
	CreateSecret(ctx context.Context, name, value string) error
	// SetSecret creates or overwrites the named secret.
	SetSecret(ctx context.Context, name, value string) (SetOutcome, error)
	// HasSecret reports whether the named secret exists.
	HasSecret(ctx context.Context, name string) (bool, error)
}

// DatabaseCredentials is the payload stored in a tenant database secret.
type DatabaseCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     uint16 `json:"port"`
}

// ParseDatabaseCredentials reads database credentials from the named secret.
// A missing secret is a configuration error, not a lookup miss.
func ParseDatabaseCredentials(ctx context.Context, m Manager, name string) (*DatabaseCredentials, error) {
	secret, err := m.GetSecret(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "reading database secret")
	}
	if secret == nil {
		return nil, errtypes.ConfigError("database secret " + name + " does not exist")
	}

	raw := secret.Binary
	if raw == nil {
		raw = []byte(secret.String)
	}

	var creds DatabaseCredentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, errtypes.ConfigError("database secret " + name + " is not valid json")
	}
	return &creds, nil
}
