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

package timing

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlowFutureTriggersCallback(t *testing.T) {
	var slow atomic.Bool

	err := HandleSlow(context.Background(), 10*time.Millisecond, func() {
		slow.Store(true)
	}, func(context.Context) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, slow.Load())
}

func TestFastFutureDoesNotTriggerCallback(t *testing.T) {
	var slow atomic.Bool

	err := HandleSlow(context.Background(), time.Second, func() {
		slow.Store(true)
	}, func(context.Context) error {
		return nil
	})

	require.NoError(t, err)
	assert.False(t, slow.Load())
}

func TestResultIsPassedThrough(t *testing.T) {
	want := assert.AnError
	err := HandleSlow(context.Background(), time.Second, nil, func(context.Context) error {
		return want
	})
	assert.Equal(t, want, err)
}
