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

// Package s3 provides the object store layer for S3 compatible backends.
package s3

import (
	"context"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// Config holds the connection settings shared by all tenant buckets.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Secure    bool   `mapstructure:"secure"`
	// PathStyle forces path style bucket addressing, needed by local mocks
	// such as minio itself.
	PathStyle bool `mapstructure:"path_style"`
}

// ConfigFromEnv fills unset fields from the conventional AWS environment.
func (c *Config) ConfigFromEnv() {
	if c.Endpoint == "" {
		c.Endpoint = os.Getenv("AWS_ENDPOINT_URL_S3")
	}
	if c.Region == "" {
		c.Region = os.Getenv("AWS_REGION")
	}
}

// Factory creates tenant bucket layers sharing one S3 client.
type Factory struct {
	client *minio.Client
	region string
}

// NewFactory connects a client from the given configuration.
func NewFactory(c *Config) (*Factory, error) {
	c.ConfigFromEnv()

	endpoint := c.Endpoint
	secure := c.Secure
	if u, err := url.Parse(c.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	lookup := minio.BucketLookupDNS
	if c.PathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure:       secure,
		Region:       c.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating s3 client")
	}

	return &Factory{client: client, region: c.Region}, nil
}

// ForBucket binds a storage layer to the given tenant bucket.
func (f *Factory) ForBucket(bucket string) *Layer {
	return &Layer{client: f.client, region: f.region, bucket: bucket}
}

// Layer is an S3 bucket scoped object store.
type Layer struct {
	client *minio.Client
	region string
	bucket string
}

// Bucket returns the bucket name this layer is bound to.
func (l *Layer) Bucket() string { return l.bucket }

// CreateBucket creates the tenant bucket.
func (l *Layer) CreateBucket(ctx context.Context) error {
	err := l.client.MakeBucket(ctx, l.bucket, minio.MakeBucketOptions{Region: l.region})
	if err != nil && minio.ToErrorResponse(err).Code == "BucketAlreadyOwnedByYou" {
		return errtypes.AlreadyExists(l.bucket)
	}
	return errors.Wrap(err, "creating bucket")
}

// DeleteBucket removes the tenant bucket.
func (l *Layer) DeleteBucket(ctx context.Context) error {
	err := l.client.RemoveBucket(ctx, l.bucket)
	return errors.Wrap(err, "removing bucket")
}

// BucketExists reports whether the tenant bucket exists.
func (l *Layer) BucketExists(ctx context.Context) (bool, error) {
	exists, err := l.client.BucketExists(ctx, l.bucket)
	return exists, errors.Wrap(err, "checking bucket")
}

// UploadFile stores content under key. Same key overwrites, last write wins.
func (l *Layer) UploadFile(ctx context.Context, key, contentType string, content io.Reader, size int64) error {
	_, err := l.client.PutObject(ctx, l.bucket, key, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return errors.Wrap(err, "uploading object")
}

// GetFile returns a stream of the object at key.
func (l *Layer) GetFile(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := l.client.GetObject(ctx, l.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "getting object")
	}
	// GetObject is lazy, stat to surface missing keys early.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, errtypes.NotFound(key)
		}
		return nil, errors.Wrap(err, "getting object")
	}
	return obj, nil
}

// DeleteFile removes the object at key. Missing keys are a success.
func (l *Layer) DeleteFile(ctx context.Context, key string) error {
	err := l.client.RemoveObject(ctx, l.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return errors.Wrap(err, "removing object")
}

// PresignUpload creates a presigned PUT URL for key.
func (l *Layer) PresignUpload(ctx context.Context, key string, expires time.Duration) (string, error) {
	u, err := l.client.PresignedPutObject(ctx, l.bucket, key, expires)
	if err != nil {
		return "", errors.Wrap(err, "presigning upload")
	}
	return u.String(), nil
}
