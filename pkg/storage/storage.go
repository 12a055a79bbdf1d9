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

// Package storage defines the tenant object store layer. File bytes and
// generated derivatives live in a per tenant bucket behind this interface.
package storage

import (
	"context"
	"io"
	"time"
)

// Layer is a bucket scoped object store handle. Uploads with the same key
// are last write wins, deleting a missing key succeeds.
type Layer interface {
	// Bucket returns the bucket name this layer is bound to.
	Bucket() string
	// CreateBucket creates the tenant bucket.
	CreateBucket(ctx context.Context) error
	// DeleteBucket removes the tenant bucket.
	DeleteBucket(ctx context.Context) error
	// BucketExists reports whether the tenant bucket exists.
	BucketExists(ctx context.Context) (bool, error)
	// UploadFile stores content under key with the given content type.
	UploadFile(ctx context.Context, key, contentType string, content io.Reader, size int64) error
	// GetFile returns a stream of the object at key.
	// A missing key yields an errtypes.NotFound.
	GetFile(ctx context.Context, key string) (io.ReadCloser, error)
	// DeleteFile removes the object at key. Missing keys are a success.
	DeleteFile(ctx context.Context, key string) error
	// PresignUpload creates a URL a client can PUT the object bytes to
	// without further authentication, valid for the given duration.
	PresignUpload(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Factory produces per tenant storage layers from a shared configuration.
type Factory interface {
	// ForBucket binds a storage layer to the given tenant bucket.
	ForBucket(bucket string) Layer
}
