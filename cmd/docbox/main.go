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

// Docbox is the management command. It provisions tenants and applies the
// root, tenant and search migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/docbox-eu/docbox/internal/config"
	"github.com/docbox-eu/docbox/pkg/appctx"
	"github.com/docbox-eu/docbox/pkg/database"
	"github.com/docbox-eu/docbox/pkg/logger"
	"github.com/docbox-eu/docbox/pkg/manage"
	searchfactory "github.com/docbox-eu/docbox/pkg/search/factory"
	"github.com/docbox-eu/docbox/pkg/secrets"
	secretsaws "github.com/docbox-eu/docbox/pkg/secrets/aws"
	secretsmemory "github.com/docbox-eu/docbox/pkg/secrets/memory"
	"github.com/docbox-eu/docbox/pkg/storage"
	"github.com/docbox-eu/docbox/pkg/tenant"
	"github.com/google/uuid"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: docbox <command> [flags]

commands:
  migrate-root           apply pending root migrations
  pending-root           list pending root migrations
  create-tenant          provision a new tenant
  get-tenant             print one tenant
  list-tenants           print every tenant
  delete-tenant          destroy a tenant and its stores
  migrate-tenant         apply pending tenant database migrations
  migrate-tenant-search  apply pending tenant search migrations
  pending-tenant         list pending tenant database migrations
  pending-tenant-search  list pending tenant search migrations
  rotate-to-iam          switch a tenant to IAM database auth`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configFile := fs.String("c", "docbox.toml", "configuration file")
	env := fs.String("env", "", "tenant environment")
	tenantID := fs.String("tenant", "", "tenant id")
	target := fs.String("migration", "", "apply only this named migration")
	name := fs.String("name", "", "tenant display name")
	dbName := fs.String("db-name", "", "tenant database name")
	secretName := fs.String("db-secret", "", "tenant database secret name")
	iamUser := fs.String("db-iam-user", "", "tenant database IAM user")
	bucket := fs.String("bucket", "", "tenant bucket name")
	index := fs.String("index", "", "tenant search index name")
	queueURL := fs.String("queue-url", "", "tenant event queue")
	_ = fs.Parse(os.Args[2:])

	c, err := config.Load(*configFile)
	if err != nil {
		fatal(err)
	}

	log := logger.New(logger.WithLevel(c.Log.Level), logger.WithMode(c.Log.Mode))
	ctx := appctx.WithLogger(context.Background(), log)

	m, err := buildManager(ctx, c)
	if err != nil {
		fatal(err)
	}

	switch command {
	case "migrate-root":
		err = m.MigrateRoot(ctx, *target)

	case "pending-root":
		var pending []string
		pending, err = m.PendingRootMigrations(ctx)
		printNames(pending)

	case "create-tenant":
		req := manage.CreateTenantRequest{
			Env:             *env,
			Name:            *name,
			DBName:          *dbName,
			S3BucketName:    *bucket,
			SearchIndexName: *index,
		}
		if *tenantID != "" {
			req.ID, err = uuid.Parse(*tenantID)
			if err != nil {
				fatal(err)
			}
		}
		req.DBSecretName = optional(*secretName)
		req.DBIamUser = optional(*iamUser)
		req.EventQueueURL = optional(*queueURL)

		var created *database.Tenant
		created, err = m.CreateTenant(ctx, req)
		if err == nil {
			fmt.Printf("created tenant %s (%s)\n", created.ID, created.Name)
		}

	case "get-tenant":
		var t *database.Tenant
		t, err = m.GetTenant(ctx, *env, mustUUID(*tenantID))
		if err == nil {
			printTenant(t)
		}

	case "list-tenants":
		var tenants []database.Tenant
		tenants, err = m.GetTenants(ctx)
		for i := range tenants {
			printTenant(&tenants[i])
		}

	case "delete-tenant":
		err = m.DeleteTenant(ctx, *env, mustUUID(*tenantID))

	case "migrate-tenant":
		err = m.MigrateTenant(ctx, *env, mustUUID(*tenantID), *target)

	case "migrate-tenant-search":
		err = m.MigrateTenantSearch(ctx, *env, mustUUID(*tenantID), *target)

	case "pending-tenant":
		var pending []string
		pending, err = m.PendingTenantMigrations(ctx, *env, mustUUID(*tenantID))
		printNames(pending)

	case "pending-tenant-search":
		var pending []string
		pending, err = m.PendingTenantSearchMigrations(ctx, *env, mustUUID(*tenantID))
		printNames(pending)

	case "rotate-to-iam":
		err = m.MigrateTenantSecretToIAM(ctx, *env, mustUUID(*tenantID), *iamUser)

	default:
		usage()
	}

	if err != nil {
		fatal(err)
	}
}

func buildManager(ctx context.Context, c *config.Config) (*manage.Manager, error) {
	secretManager, awsCreds, err := buildSecrets(ctx, &c.Secrets)
	if err != nil {
		return nil, err
	}

	pools := database.NewPoolCache(c.Database, secretManager, awsCreds)
	storageFactory, err := storage.NewFactory(&c.Storage)
	if err != nil {
		return nil, err
	}
	searchFactory, err := searchfactory.New(&c.Search)
	if err != nil {
		return nil, err
	}
	cache, err := tenant.NewCache()
	if err != nil {
		return nil, err
	}
	return manage.NewManager(pools, storageFactory, searchFactory, secretManager, cache), nil
}

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

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func mustUUID(v string) uuid.UUID {
	id, err := uuid.Parse(v)
	if err != nil {
		fatal(fmt.Errorf("invalid tenant id %q: %w", v, err))
	}
	return id
}

func printNames(names []string) {
	for _, name := range names {
		fmt.Println(name)
	}
}

func printTenant(t *database.Tenant) {
	fmt.Printf("%s  env=%s name=%q db=%s bucket=%s index=%s\n",
		t.ID, t.Env, t.Name, t.DBName, t.S3BucketName, t.SearchIndexName)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "docbox: %v\n", err)
	os.Exit(1)
}
