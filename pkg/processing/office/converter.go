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

// Package office talks to the external office to PDF converter service.
// The converter is an unreliable RPC, its failure modes are part of the
// contract.
package office

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/utils/timing"
	"github.com/pkg/errors"
)

// Conversion failure modes.
var (
	// ErrEncryptedDocument means the document is password protected. Not
	// fatal, the file is stored flagged as encrypted with no extracted
	// content.
	ErrEncryptedDocument = errors.New("office document is encrypted")
	// ErrMalformedDocument means the document is corrupt, the upload
	// fails.
	ErrMalformedDocument = errors.New("office document is malformed")
	// ErrUnavailable means the converter cannot be reached.
	ErrUnavailable = errors.New("converter service unavailable")
	// ErrTimeout means the converter did not answer in time.
	ErrTimeout = errors.New("converter service timed out")
)

// Config holds the converter endpoint settings.
type Config struct {
	URL string `mapstructure:"url"`
	// Timeout bounds the conversion wall clock, zero means two minutes.
	Timeout time.Duration `mapstructure:"timeout"`
	// SlowThreshold fires the slow observability hook while a conversion
	// is still running, zero means 30 seconds.
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// Converter converts office documents to PDF over HTTP.
type Converter struct {
	url    string
	client *http.Client
	slow   time.Duration
}

// NewConverter builds a converter client.
func NewConverter(c *Config) *Converter {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	slow := c.SlowThreshold
	if slow == 0 {
		slow = 30 * time.Second
	}
	return &Converter{
		url:    c.URL,
		client: &http.Client{Timeout: timeout},
		slow:   slow,
	}
}

type converterError struct {
	Code string `json:"code"`
}

// ConvertToPdf posts the document bytes and returns the PDF rendition.
func (c *Converter) ConvertToPdf(ctx context.Context, mime string, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mime)
	req.Header.Set("Accept", "application/pdf")

	// The converter is the one remote call with real wall clock, surface
	// conversions that exceed the slow threshold while they still run.
	var res *http.Response
	err = timing.HandleSlow(ctx, c.slow, func() {
		appctx.GetLogger(ctx).Warn().
			Str("mime", mime).
			Dur("threshold", c.slow).
			Msg("office conversion is running slow")
	}, func(ctx context.Context) error {
		var doErr error
		res, doErr = c.client.Do(req)
		return doErr
	})
	if err != nil {
		var uerr *url.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &uerr) && uerr.Timeout()) {
			return nil, ErrTimeout
		}
		return nil, ErrUnavailable
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
		pdf, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, errors.Wrap(err, "reading converted pdf")
		}
		return pdf, nil

	case res.StatusCode == http.StatusUnprocessableEntity:
		var ce converterError
		if err := json.NewDecoder(res.Body).Decode(&ce); err == nil {
			switch ce.Code {
			case "encrypted":
				return nil, ErrEncryptedDocument
			case "malformed":
				return nil, ErrMalformedDocument
			}
		}
		return nil, ErrMalformedDocument

	case res.StatusCode >= 500:
		return nil, ErrUnavailable

	default:
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, errors.Errorf("converter returned %d: %s", res.StatusCode, string(raw))
	}
}
