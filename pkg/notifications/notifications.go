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

// Package notifications receives object store bucket notifications and
// feeds them to the presigned upload correlation.
package notifications

import (
	"context"
)

// FileCreated is one object placed in one bucket.
type FileCreated struct {
	BucketName string
	ObjectKey  string
}

// Queue is a single consumer stream of bucket notifications.
type Queue interface {
	// NextMessage blocks until a message arrives. ok is false once the
	// queue closed.
	NextMessage(ctx context.Context) (msg FileCreated, ok bool)
}

// ChannelQueue is the in process queue fed by the webhook endpoint.
type ChannelQueue struct {
	ch chan FileCreated
}

// Sender is the producing side of a ChannelQueue.
type Sender struct {
	ch chan FileCreated
}

// NewChannelQueue returns the queue and its sender.
func NewChannelQueue() (*ChannelQueue, *Sender) {
	ch := make(chan FileCreated, 10)
	return &ChannelQueue{ch: ch}, &Sender{ch: ch}
}

// Send enqueues a notification, blocking while the queue is full.
func (s *Sender) Send(ctx context.Context, msg FileCreated) {
	select {
	case s.ch <- msg:
	case <-ctx.Done():
	}
}

// Close ends the stream.
func (s *Sender) Close() {
	close(s.ch)
}

// NextMessage implements Queue.
func (q *ChannelQueue) NextMessage(ctx context.Context) (FileCreated, bool) {
	select {
	case msg, ok := <-q.ch:
		return msg, ok
	case <-ctx.Done():
		return FileCreated{}, false
	}
}
