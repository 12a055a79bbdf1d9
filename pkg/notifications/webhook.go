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
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/go-chi/chi/v5"
)

// s3Notification is the subset of the S3 bucket notification payload the
// webhook consumes.
type s3Notification struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// ParseS3Notification extracts the (bucket, key) pairs of a notification
// body. Object keys arrive URL encoded.
func ParseS3Notification(body []byte) ([]FileCreated, error) {
	var n s3Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, err
	}

	var msgs []FileCreated
	for _, record := range n.Records {
		key := record.S3.Object.Key
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if record.S3.Bucket.Name == "" || key == "" {
			continue
		}
		msgs = append(msgs, FileCreated{
			BucketName: record.S3.Bucket.Name,
			ObjectKey:  key,
		})
	}
	return msgs, nil
}

// Router mounts the webhook accepting bucket notifications and posting
// them on the local queue.
func Router(sender *Sender) http.Handler {
	r := chi.NewRouter()
	r.Post("/hooks/s3", func(w http.ResponseWriter, req *http.Request) {
		log := appctx.GetLogger(req.Context())

		body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
		if err != nil {
			log.Warn().Err(err).Msg("cannot read notification body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		msgs, err := ParseS3Notification(body)
		if err != nil {
			log.Warn().Err(err).Msg("cannot parse bucket notification")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		for _, msg := range msgs {
			sender.Send(req.Context(), msg)
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
