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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[log]
level = "debug"
mode = "prod"

[http]
address = ":9000"

[database]
host = "localhost"
port = 5432
username = "docbox"
password = "docbox"
idle_ttl = "10m"

[storage]
driver = "s3"

[storage.s3]
endpoint = "http://localhost:9090"
access_key = "minioadmin"
secret_key = "minioadmin"
path_style = true

[search]
driver = "typesense"

[search.typesense]
url = "http://localhost:8108"
api_key = "local"

[events]
driver = "nats"
nats_url = "nats://localhost:4222"

[docbox]
max_file_size = 1048576

[background]
purge_interval = "1h"
task_retention = "720h"
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docbox.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, ":9000", c.HTTP.Address)
	assert.Equal(t, uint16(5432), c.Database.Port)
	assert.Equal(t, 10*time.Minute, c.Database.IdleTTL)
	assert.True(t, c.Storage.S3.PathStyle)
	assert.Equal(t, "http://localhost:8108", c.Search.Typesense.URL)
	assert.Equal(t, "nats://localhost:4222", c.Events.NatsURL)
	assert.Equal(t, int64(1048576), c.Docbox.MaxFileSize)
	assert.Equal(t, 30*24*time.Hour, c.Background.TaskRetention)
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTP.Address)
	assert.Empty(t, c.Storage.Driver)
}
