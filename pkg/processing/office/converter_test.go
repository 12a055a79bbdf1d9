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

package office

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToPdfReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	c := NewConverter(&Config{URL: srv.URL})
	pdf, err := c.ConvertToPdf(context.Background(), "application/msword", []byte("doc"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
}

func TestConvertToPdfSlowConversionFiresHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	ctx := appctx.WithLogger(context.Background(), &log)

	c := NewConverter(&Config{URL: srv.URL, SlowThreshold: 10 * time.Millisecond})
	_, err := c.ConvertToPdf(ctx, "application/msword", []byte("doc"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "office conversion is running slow")
}

func TestConvertToPdfTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	c := NewConverter(&Config{URL: srv.URL, Timeout: 20 * time.Millisecond, SlowThreshold: time.Hour})
	_, err := c.ConvertToPdf(context.Background(), "application/msword", []byte("doc"))
	assert.ErrorIs(t, err, ErrTimeout)
}
