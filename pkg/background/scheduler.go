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

// Package background drives the periodic housekeeping of the system.
package background

import (
	"context"
	"time"
)

// Event names one housekeeping job.
type Event int

const (
	// PurgeExpiredPresigned removes expired presigned upload rows and
	// their dangling bytes.
	PurgeExpiredPresigned Event = iota
	// PurgeExpiredWebsiteMetadata removes expired link metadata rows.
	PurgeExpiredWebsiteMetadata
	// PurgeExpiredTasks removes old task rows.
	PurgeExpiredTasks
)

// QueueEvent pairs an event with its firing interval.
type QueueEvent struct {
	Event    Event
	Interval time.Duration
}

// Scheduler emits each configured event once per interval. Ordering
// between distinct events is unspecified, successive firings of one event
// are monotonic.
type Scheduler struct {
	events []QueueEvent
}

// NewScheduler builds a scheduler over a fixed event list.
func NewScheduler(events []QueueEvent) *Scheduler {
	return &Scheduler{events: events}
}

// Run returns the stream of due events. The channel closes when ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)
		if len(s.events) == 0 {
			return
		}

		deadlines := make([]time.Time, len(s.events))
		now := time.Now()
		for i, e := range s.events {
			deadlines[i] = now.Add(e.Interval)
		}

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			next := 0
			for i := range deadlines {
				if deadlines[i].Before(deadlines[next]) {
					next = i
				}
			}

			timer.Reset(time.Until(deadlines[next]))
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			select {
			case <-ctx.Done():
				return
			case out <- s.events[next].Event:
			}

			deadlines[next] = time.Now().Add(s.events[next].Interval)
		}
	}()

	return out
}
