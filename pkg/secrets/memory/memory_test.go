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

package memory

import (
	"context"
	"testing"

	"github.com/docbox-eu/docbox/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSecretFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	m := New(map[string]secrets.Secret{
		"known": {String: "value"},
	}, &secrets.Secret{String: "default"})

	s, err := m.GetSecret(ctx, "known")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "value", s.String)

	s, err = m.GetSecret(ctx, "unknown")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "default", s.String)
}

func TestGetSecretMissingWithoutDefault(t *testing.T) {
	ctx := context.Background()
	m := New(nil, nil)

	s, err := m.GetSecret(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSetSecretOutcome(t *testing.T) {
	ctx := context.Background()
	m := New(nil, nil)

	outcome, err := m.SetSecret(ctx, "name", "one")
	require.NoError(t, err)
	assert.Equal(t, secrets.Created, outcome)

	outcome, err = m.SetSecret(ctx, "name", "two")
	require.NoError(t, err)
	assert.Equal(t, secrets.Updated, outcome)

	s, err := m.GetSecret(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, "two", s.String)

	has, err := m.HasSecret(ctx, "name")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestParseDatabaseCredentials(t *testing.T) {
	ctx := context.Background()
	m := New(map[string]secrets.Secret{
		"postgres/tenant": {String: `{"username":"docbox","password":"hunter2","host":"localhost","port":5432}`},
	}, nil)

	creds, err := secrets.ParseDatabaseCredentials(ctx, m, "postgres/tenant")
	require.NoError(t, err)
	assert.Equal(t, "docbox", creds.Username)
	assert.Equal(t, uint16(5432), creds.Port)

	_, err = secrets.ParseDatabaseCredentials(ctx, m, "missing")
	require.Error(t, err)
	var confErr interface{ IsConfigError() }
	assert.ErrorAs(t, err, &confErr)
}
