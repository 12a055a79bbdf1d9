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
	"io"
	"strings"
	"testing"

	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := NewFactory().ForBucket("tenant-bucket")
	require.NoError(t, l.CreateBucket(ctx))

	content := "test"
	require.NoError(t, l.UploadFile(ctx, "test.txt", "text/plain", strings.NewReader(content), int64(len(content))))

	r, err := l.GetFile(ctx, "test.txt")
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestGetFileMissingKey(t *testing.T) {
	ctx := context.Background()
	l := NewFactory().ForBucket("tenant-bucket")
	require.NoError(t, l.CreateBucket(ctx))

	_, err := l.GetFile(ctx, "nope")
	var notFound errtypes.IsNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestDeleteFileMissingKeyIsSuccess(t *testing.T) {
	ctx := context.Background()
	l := NewFactory().ForBucket("tenant-bucket")
	require.NoError(t, l.CreateBucket(ctx))

	assert.NoError(t, l.DeleteFile(ctx, "nope"))
}

func TestUploadLastWriteWins(t *testing.T) {
	ctx := context.Background()
	l := NewFactory().ForBucket("tenant-bucket")
	require.NoError(t, l.CreateBucket(ctx))

	require.NoError(t, l.UploadFile(ctx, "key", "text/plain", strings.NewReader("one"), 3))
	require.NoError(t, l.UploadFile(ctx, "key", "text/plain", strings.NewReader("two"), 3))

	r, err := l.GetFile(ctx, "key")
	require.NoError(t, err)
	defer r.Close()
	data, _ := io.ReadAll(r)
	assert.Equal(t, "two", string(data))
	assert.Equal(t, 1, l.ObjectCount())
}

func TestBucketLifecycle(t *testing.T) {
	ctx := context.Background()
	l := NewFactory().ForBucket("tenant-bucket")

	exists, err := l.BucketExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, l.CreateBucket(ctx))
	exists, _ = l.BucketExists(ctx)
	assert.True(t, exists)

	var already errtypes.IsAlreadyExists
	assert.ErrorAs(t, l.CreateBucket(ctx), &already)

	require.NoError(t, l.DeleteBucket(ctx))
	exists, _ = l.BucketExists(ctx)
	assert.False(t, exists)
}
