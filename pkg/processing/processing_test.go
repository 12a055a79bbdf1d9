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

package processing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/processing/office"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := map[string]Route{
		"application/pdf": RoutePdf,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": RouteOffice,
		"application/msword":       RouteOffice,
		"application/vnd.ms-excel": RouteOffice,
		"application/vnd.oasis.opendocument.text": RouteOffice,
		"text/csv":                 RouteOffice,
		"text/plain":               RouteOther,
		"image/png":                RouteOther,
		"application/octet-stream": RouteOther,
	}
	for mime, want := range cases {
		assert.Equal(t, want, Classify(mime), mime)
	}
}

func converterReturning(t *testing.T, status int, body string) *Processor {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(office.NewConverter(&office.Config{URL: srv.URL}))
}

func TestProcessEncryptedDowngrades(t *testing.T) {
	p := converterReturning(t, http.StatusUnprocessableEntity, `{"code":"encrypted"}`)

	out, err := p.Process(context.Background(), "application/msword", []byte("doc"))
	require.NoError(t, err)
	assert.True(t, out.Encrypted)
	assert.Empty(t, out.Pages)
	assert.Empty(t, out.UploadQueue)
}

func TestProcessMalformedFails(t *testing.T) {
	p := converterReturning(t, http.StatusUnprocessableEntity, `{"code":"malformed"}`)

	_, err := p.Process(context.Background(), "application/msword", []byte("doc"))
	var malformed errtypes.IsMalformedContent
	assert.ErrorAs(t, err, &malformed)
}

func TestProcessConverterUnavailableFails(t *testing.T) {
	p := converterReturning(t, http.StatusInternalServerError, "boom")

	_, err := p.Process(context.Background(), "application/msword", []byte("doc"))
	assert.ErrorIs(t, err, office.ErrUnavailable)
}

func TestProcessOtherMimeSkipsPipeline(t *testing.T) {
	p := New(office.NewConverter(&office.Config{URL: "http://converter.invalid"}))

	out, err := p.Process(context.Background(), "text/plain", []byte("test"))
	require.NoError(t, err)
	assert.False(t, out.Encrypted)
	assert.Empty(t, out.Pages)
	assert.Empty(t, out.UploadQueue)
}
