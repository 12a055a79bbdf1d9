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

package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const notificationBody = `{
	"Records": [
		{"s3": {"bucket": {"name": "tenant-bucket"}, "object": {"key": "some%20file.pdf"}}},
		{"s3": {"bucket": {"name": "tenant-bucket"}, "object": {"key": "plain.txt"}}}
	]
}`

func TestParseS3Notification(t *testing.T) {
	msgs, err := ParseS3Notification([]byte(notificationBody))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, FileCreated{BucketName: "tenant-bucket", ObjectKey: "some file.pdf"}, msgs[0])
	assert.Equal(t, FileCreated{BucketName: "tenant-bucket", ObjectKey: "plain.txt"}, msgs[1])
}

func TestParseS3NotificationSkipsEmptyRecords(t *testing.T) {
	msgs, err := ParseS3Notification([]byte(`{"Records":[{"s3":{"bucket":{"name":""},"object":{"key":""}}}]}`))
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestWebhookFeedsQueue(t *testing.T) {
	queue, sender := NewChannelQueue()
	srv := httptest.NewServer(Router(sender))
	defer srv.Close()

	res, err := http.Post(srv.URL+"/hooks/s3", "application/json", strings.NewReader(notificationBody))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, ok := queue.NextMessage(ctx)
	require.True(t, ok)
	assert.Equal(t, "tenant-bucket", msg.BucketName)
	assert.Equal(t, "some file.pdf", msg.ObjectKey)
}

func TestWebhookRejectsGarbage(t *testing.T) {
	_, sender := NewChannelQueue()
	srv := httptest.NewServer(Router(sender))
	defer srv.Close()

	res, err := http.Post(srv.URL+"/hooks/s3", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestQueueClosing(t *testing.T) {
	queue, sender := NewChannelQueue()
	sender.Close()

	_, ok := queue.NextMessage(context.Background())
	assert.False(t, ok)
}
