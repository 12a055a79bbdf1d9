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

// Package memory provides an in memory secret manager, used for local
// development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/docbox-eu/docbox/pkg/secrets"
)

// Manager keeps secrets in a process local map. An optional default secret
// is returned for any unknown name.
type Manager struct {
	mu       sync.RWMutex
	data     map[string]secrets.Secret
	fallback *secrets.Secret
}

// New returns a memory backed secret manager seeded with data.
func New(data map[string]secrets.Secret, fallback *secrets.Secret) *Manager {
	if data == nil {
		data = map[string]secrets.Secret{}
	}
	return &Manager{data: data, fallback: fallback}
}

// GetSecret implements secrets.Manager.
func (m *Manager) GetSecret(_ context.Context, name string) (*secrets.Secret, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.data[name]; ok {
		return &s, nil
	}
	if m.fallback != nil {
		s := *m.fallback
		return &s, nil
	}
	return nil, nil
}

// CreateSecret implements secrets.Manager.
func (m *Manager) CreateSecret(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = secrets.Secret{String: value}
	return nil
}

// SetSecret implements secrets.Manager.
func (m *Manager) SetSecret(_ context.Context, name, value string) (secrets.SetOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	outcome := secrets.Created
	if _, ok := m.data[name]; ok {
		outcome = secrets.Updated
	}
	m.data[name] = secrets.Secret{String: value}
	return outcome, nil
}

// HasSecret implements secrets.Manager.
func (m *Manager) HasSecret(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[name]
	return ok, nil
}
