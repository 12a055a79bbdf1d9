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

// Package nats provides the queue backed event publisher.
package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/events"
	natsio "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Connect dials a nats server, retrying exponentially, the server may come
// up after us.
func Connect(url string, log *zerolog.Logger, opts ...natsio.Option) (*natsio.Conn, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 5 * time.Minute

	var conn *natsio.Conn
	o := func() error {
		n := b.NextBackOff()
		c, err := natsio.Connect(url, opts...)
		if err != nil && n > time.Second && log != nil {
			log.Error().Err(err).Msgf("can't connect to nats server, retrying in %s", n)
		}
		conn = c
		return err
	}

	if err := backoff.Retry(o, b); err != nil {
		return nil, err
	}
	return conn, nil
}

// Publisher publishes tenant events as JSON messages on a per tenant
// subject.
type Publisher struct {
	conn    *natsio.Conn
	subject string
}

// NewPublisher binds a publisher to the given subject.
func NewPublisher(conn *natsio.Conn, subject string) *Publisher {
	return &Publisher{conn: conn, subject: subject}
}

// Publish implements events.Publisher. Failures are swallowed with a debug
// log, event delivery must never fail a committed mutation.
func (p *Publisher) Publish(ctx context.Context, event events.TenantEvent) {
	log := appctx.GetLogger(ctx)

	payload, err := json.Marshal(event)
	if err != nil {
		log.Debug().Err(err).Str("type", string(event.Type)).Msg("cannot marshal tenant event")
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		log.Debug().Err(err).Str("type", string(event.Type)).Str("subject", p.subject).Msg("cannot publish tenant event")
	}
}
