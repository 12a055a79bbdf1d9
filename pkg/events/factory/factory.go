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

// Package factory builds per tenant event publishers. Tenants without an
// event queue get the no-op publisher.
package factory

import (
	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/docbox-eu/docbox/pkg/events"
	"github.com/docbox-eu/docbox/pkg/events/channel"
	"github.com/docbox-eu/docbox/pkg/events/nats"
	"github.com/docbox-eu/docbox/pkg/events/noop"
	natsio "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Config selects and configures one of the event drivers.
type Config struct {
	Driver string `mapstructure:"driver"`
	// NatsURL is the server address for the nats driver.
	NatsURL string `mapstructure:"nats_url"`
	// Buffer is the channel capacity for the channel driver.
	Buffer int `mapstructure:"buffer"`
}

// Factory hands out tenant event publishers.
type Factory struct {
	driver  string
	conn    *natsio.Conn
	chanPub *channel.Publisher
	// Events receives everything published through the channel driver.
	Events <-chan events.TenantEvent
}

// New builds the event factory for the configured driver.
func New(c *Config, log *zerolog.Logger) (*Factory, error) {
	switch c.Driver {
	case "", "noop":
		return &Factory{driver: "noop"}, nil
	case "channel":
		pub, ch := channel.New(c.Buffer)
		return &Factory{driver: "channel", chanPub: pub, Events: ch}, nil
	case "nats":
		conn, err := nats.Connect(c.NatsURL, log)
		if err != nil {
			return nil, err
		}
		return &Factory{driver: "nats", conn: conn}, nil
	default:
		return nil, errtypes.NotSupported("events driver " + c.Driver)
	}
}

// ForTenant returns the publisher for a tenant. queueURL is the tenant's
// event queue, nil when the tenant does not publish events.
func (f *Factory) ForTenant(queueURL *string) events.Publisher {
	if queueURL == nil || *queueURL == "" {
		return noop.New()
	}
	switch f.driver {
	case "channel":
		return f.chanPub
	case "nats":
		return nats.NewPublisher(f.conn, *queueURL)
	default:
		return noop.New()
	}
}
