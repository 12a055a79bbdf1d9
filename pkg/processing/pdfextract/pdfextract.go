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

// Package pdfextract pulls per page plain text out of PDF bytes.
package pdfextract

import (
	"bytes"
	"strings"

	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// ErrEncryptedPdf means the document is password protected and no text can
// be extracted.
var ErrEncryptedPdf = errors.New("pdf is encrypted")

// Page is the extracted text of one page.
type Page struct {
	Page    int
	Content string
}

// ExtractPages returns the plain text of every page, 1-indexed. Pages that
// fail to decode are skipped, a document that cannot be opened at all is
// malformed.
func ExtractPages(data []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return nil, ErrEncryptedPdf
		}
		return nil, errtypes.MalformedContent("cannot open pdf: " + err.Error())
	}

	var pages []Page
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(fonts)
		if err != nil {
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		pages = append(pages, Page{Page: i, Content: content})
	}
	return pages, nil
}
