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

// Package memory provides an in memory object store, used for local
// development and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/docbox-eu/docbox/pkg/errtypes"
)

type object struct {
	contentType string
	data        []byte
}

// Store holds the buckets shared by all layers of one factory.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]map[string]object
}

// NewFactory returns an empty in memory object store factory.
func NewFactory() *Store {
	return &Store{buckets: map[string]map[string]object{}}
}

// ForBucket binds a layer to the given bucket.
func (s *Store) ForBucket(bucket string) *Layer {
	return &Layer{store: s, bucket: bucket}
}

// Layer is a bucket scoped view over the shared store.
type Layer struct {
	store  *Store
	bucket string
}

// Bucket returns the bucket name this layer is bound to.
func (l *Layer) Bucket() string { return l.bucket }

// CreateBucket implements storage.Layer.
func (l *Layer) CreateBucket(_ context.Context) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if _, ok := l.store.buckets[l.bucket]; ok {
		return errtypes.AlreadyExists(l.bucket)
	}
	l.store.buckets[l.bucket] = map[string]object{}
	return nil
}

// DeleteBucket implements storage.Layer.
func (l *Layer) DeleteBucket(_ context.Context) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	delete(l.store.buckets, l.bucket)
	return nil
}

// BucketExists implements storage.Layer.
func (l *Layer) BucketExists(_ context.Context) (bool, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	_, ok := l.store.buckets[l.bucket]
	return ok, nil
}

// UploadFile implements storage.Layer, last write wins.
func (l *Layer) UploadFile(_ context.Context, key, contentType string, content io.Reader, _ int64) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	b, ok := l.store.buckets[l.bucket]
	if !ok {
		return errtypes.NotFound(l.bucket)
	}
	b[key] = object{contentType: contentType, data: data}
	return nil
}

// GetFile implements storage.Layer.
func (l *Layer) GetFile(_ context.Context, key string) (io.ReadCloser, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	b, ok := l.store.buckets[l.bucket]
	if !ok {
		return nil, errtypes.NotFound(l.bucket)
	}
	o, ok := b[key]
	if !ok {
		return nil, errtypes.NotFound(key)
	}
	return io.NopCloser(bytes.NewReader(o.data)), nil
}

// DeleteFile implements storage.Layer, missing keys are a success.
func (l *Layer) DeleteFile(_ context.Context, key string) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if b, ok := l.store.buckets[l.bucket]; ok {
		delete(b, key)
	}
	return nil
}

// PresignUpload implements storage.Layer with a fake URL, the in memory
// store has no HTTP endpoint a client could upload to.
func (l *Layer) PresignUpload(_ context.Context, key string, expires time.Duration) (string, error) {
	return fmt.Sprintf("memory://%s/%s?expires=%d", l.bucket, key, int64(expires.Seconds())), nil
}

// ObjectCount reports the number of objects in the bucket, for tests.
func (l *Layer) ObjectCount() int {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	return len(l.store.buckets[l.bucket])
}
