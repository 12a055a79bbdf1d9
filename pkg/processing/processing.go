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

// Package processing turns uploaded blobs into indexable pages and derived
// artifacts. Office formats are converted to PDF by the external converter
// first, plain PDFs skip conversion, everything else is stored verbatim.
package processing

import (
	"context"

	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/processing/office"
	"github.com/docbox-eu/docbox/pkg/processing/pdfextract"
	"github.com/pkg/errors"
)

// PdfMime is the canonical PDF content type.
const PdfMime = "application/pdf"

// Route names the pipeline an upload takes based on its content type.
type Route int

const (
	// RouteOther stores the blob verbatim with no processing.
	RouteOther Route = iota
	// RoutePdf extracts page text straight from the upload.
	RoutePdf
	// RouteOffice converts to PDF first, then extracts page text.
	RouteOffice
)

// Classify returns the processing route for a content type.
func Classify(mime string) Route {
	switch {
	case mime == PdfMime:
		return RoutePdf
	case office.IsConvertible(mime):
		return RouteOffice
	default:
		return RouteOther
	}
}

// QueuedUpload is a derived artifact awaiting persistence alongside the
// file metadata.
type QueuedUpload struct {
	Mime  string
	Type  database.GeneratedFileType
	Bytes []byte
}

// Output is the result of processing one upload.
type Output struct {
	// Encrypted marks password protected documents, stored with empty
	// extracted content.
	Encrypted bool
	// Pages is the per page text attached to the search document.
	Pages []pdfextract.Page
	// UploadQueue holds derivatives to store with the file.
	UploadQueue []QueuedUpload
}

// Processor runs the conversion and extraction stages.
type Processor struct {
	converter *office.Converter
}

// New returns a processor using the given converter.
func New(converter *office.Converter) *Processor {
	return &Processor{converter: converter}
}

// Process dispatches by content type. Encrypted documents downgrade to an
// empty output with the encrypted flag, malformed documents fail the
// upload.
func (p *Processor) Process(ctx context.Context, mime string, data []byte) (*Output, error) {
	switch Classify(mime) {
	case RoutePdf:
		return p.processPdf(ctx, data)
	case RouteOffice:
		return p.processOffice(ctx, mime, data)
	default:
		return &Output{}, nil
	}
}

func (p *Processor) processPdf(_ context.Context, data []byte) (*Output, error) {
	pages, err := pdfextract.ExtractPages(data)
	if err != nil {
		if errors.Is(err, pdfextract.ErrEncryptedPdf) {
			return &Output{Encrypted: true}, nil
		}
		return nil, err
	}
	return &Output{Pages: pages}, nil
}

func (p *Processor) processOffice(ctx context.Context, mime string, data []byte) (*Output, error) {
	log := appctx.GetLogger(ctx)

	pdfBytes, err := p.converter.ConvertToPdf(ctx, mime, data)
	switch {
	case errors.Is(err, office.ErrEncryptedDocument):
		return &Output{Encrypted: true}, nil
	case errors.Is(err, office.ErrMalformedDocument):
		return nil, errtypes.MalformedContent("office file failed conversion")
	case err != nil:
		log.Error().Err(err).Msg("failed to convert document to pdf")
		return nil, err
	}

	output, err := p.processPdf(ctx, pdfBytes)
	if err != nil {
		return nil, err
	}

	// Keep the converted rendition next to the original.
	output.UploadQueue = append(output.UploadQueue, QueuedUpload{
		Mime:  PdfMime,
		Type:  database.GeneratedPdf,
		Bytes: pdfBytes,
	})
	return output, nil
}
