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

// Package rollback provides a guard that runs compensating actions for
// resources created during an operation that did not reach its commit.
package rollback

import (
	"context"
	"sync"

	"github.com/docbox-eu/docbox/pkg/appctx"
)

// Action undoes a single side effect. Failures are logged, never returned,
// a guard always attempts every registered action.
type Action struct {
	Name string
	Run  func(ctx context.Context) error
}

// Guard collects undo actions while an operation progresses. Unless Commit
// is called, Rollback runs every action in reverse registration order.
//
// The zero value is ready for use.
type Guard struct {
	mu        sync.Mutex
	actions   []Action
	committed bool
}

// Add registers an undo action with the guard.
func (g *Guard) Add(name string, run func(ctx context.Context) error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.actions = append(g.actions, Action{Name: name, Run: run})
}

// Commit cancels the rollback, used when all went fine.
func (g *Guard) Commit() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.committed = true
	g.actions = nil
}

// Rollback runs the registered actions unless the guard was committed.
// Meant to be deferred right after creating the guard.
func (g *Guard) Rollback(ctx context.Context) {
	g.mu.Lock()
	committed := g.committed
	actions := g.actions
	g.actions = nil
	g.mu.Unlock()

	if committed {
		return
	}

	log := appctx.GetLogger(ctx)
	for i := len(actions) - 1; i >= 0; i-- {
		a := actions[i]
		if err := a.Run(ctx); err != nil {
			log.Error().Err(err).Str("action", a.Name).Msg("rollback action failed")
		}
	}
}
