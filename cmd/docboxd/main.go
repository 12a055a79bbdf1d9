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

// Docboxd is the docbox daemon. It serves the bucket notification webhook,
// correlates presigned uploads and drives the periodic housekeeping.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/docbox-eu/docbox/internal/config"
	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/background"
	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/docbox"
	eventsfactory "github.com/docbox-eu/docbox/pkg/events/factory"
	"github.com/docbox-eu/docbox/pkg/logger"
	"github.com/docbox-eu/docbox/pkg/notifications"
	"github.com/docbox-eu/docbox/pkg/processing"
	"github.com/docbox-eu/docbox/pkg/processing/office"
	searchfactory "github.com/docbox-eu/docbox/pkg/search/factory"
	"github.com/docbox-eu/docbox/pkg/secrets"
	secretsaws "github.com/docbox-eu/docbox/pkg/secrets/aws"
	secretsmemory "github.com/docbox-eu/docbox/pkg/secrets/memory"
	"github.com/docbox-eu/docbox/pkg/storage"
	"github.com/docbox-eu/docbox/pkg/tenant"
	"github.com/go-chi/chi/v5"
)

func main() {
	configFile := flag.String("c", "docbox.toml", "configuration file")
	flag.Parse()

	c, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.WithLevel(c.Log.Level), logger.WithMode(c.Log.Mode))
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = appctx.WithLogger(ctx, log)

	secretManager, awsCreds, err := buildSecrets(ctx, &c.Secrets)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialize secret manager")
	}

	pools := database.NewPoolCache(c.Database, secretManager, awsCreds)

	storageFactory, err := storage.NewFactory(&c.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialize storage")
	}
	searchFactory, err := searchfactory.New(&c.Search)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialize search")
	}
	eventsFactory, err := eventsfactory.New(&c.Events, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialize events")
	}

	cache, err := tenant.NewCache()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialize tenant cache")
	}
	resolver := tenant.NewResolver(cache, pools, storageFactory, searchFactory, eventsFactory)

	processor := processing.New(office.NewConverter(&c.Converter))
	service := docbox.NewService(processor, &c.Docbox)

	queue, sender := notifications.NewChannelQueue()

	go background.Run(ctx, &c.Background, pools, storageFactory)
	go consumeNotifications(ctx, queue, pools, resolver, service)

	router := chi.NewRouter()
	router.Mount("/", notifications.Router(sender))
	router.Post("/admin/flush-tenant-cache", func(w http.ResponseWriter, _ *http.Request) {
		resolver.Flush()
		w.WriteHeader(http.StatusNoContent)
	})

	server := &http.Server{
		Addr:    c.HTTP.Address,
		Handler: router,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Info().Str("address", c.HTTP.Address).Msg("docboxd listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("webhook listener failed")
	}
}

// buildSecrets constructs the configured secret manager and, when AWS is
// in play, the credential provider used for IAM database tokens.
func buildSecrets(ctx context.Context, c *config.Secrets) (secrets.Manager, aws.CredentialsProvider, error) {
	switch c.Driver {
	case "aws":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		return secretsaws.New(secretsmanager.NewFromConfig(awsCfg)), awsCfg.Credentials, nil
	default:
		static := map[string]secrets.Secret{}
		for name, value := range c.Static {
			static[name] = secrets.Secret{String: value}
		}
		return secretsmemory.New(static, nil), nil, nil
	}
}

// consumeNotifications correlates bucket notifications with pending
// presigned uploads. The bucket name identifies the tenant.
func consumeNotifications(ctx context.Context, queue *notifications.ChannelQueue, pools *database.PoolCache, resolver *tenant.Resolver, service *docbox.Service) {
	log := appctx.GetLogger(ctx)

	for {
		msg, ok := queue.NextMessage(ctx)
		if !ok {
			return
		}

		root, err := pools.GetRootPool(ctx)
		if err != nil {
			log.Error().Err(err).Msg("cannot reach root database for notification")
			continue
		}
		tenants, err := database.AllTenants(ctx, root)
		if err != nil {
			log.Error().Err(err).Msg("cannot list tenants for notification")
			continue
		}

		for i := range tenants {
			if tenants[i].S3BucketName != msg.BucketName {
				continue
			}
			instance, err := resolver.Resolve(ctx, tenants[i].Env, tenants[i].ID)
			if err != nil {
				log.Error().Err(err).Str("tenant", tenants[i].ID.String()).Msg("cannot resolve tenant for notification")
				break
			}
			if _, err := service.CompletePresignedUpload(ctx, instance, msg.ObjectKey); err != nil {
				log.Error().Err(err).Str("key", msg.ObjectKey).Msg("cannot complete presigned upload")
			}
			break
		}
	}
}
