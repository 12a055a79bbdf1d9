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

// Package database provides the PostgreSQL pools backing the authoritative
// metadata store. The root database holds the tenants table, every tenant
// owns its own database.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docbox-eu/docbox/pkg/appctx"

	// The pq driver registers itself with database/sql.
	_ "github.com/lib/pq"
)

// RootDatabaseName is the name of the database holding the tenants table.
const RootDatabaseName = "docbox"

// Executor is satisfied by *sql.DB and *sql.Tx so model queries can run
// inside and outside transactions.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Credentials are the settings needed to open one database.
type Credentials struct {
	Host     string
	Port     uint16
	Username string
	Password string
	// SSLMode defaults to "prefer".
	SSLMode string
}

// DSN renders the lib/pq connection string for the given database.
func (c Credentials) DSN(database string) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, database, sslMode,
	)
}

// Connect opens a pool against one database and verifies it with a ping.
func Connect(ctx context.Context, creds Credentials, database string) (*sql.DB, error) {
	db, err := sql.Open("postgres", creds.DSN(database))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, mapError(err)
	}
	return db, nil
}

// WithTx runs fn inside a transaction. The transaction is rolled back when
// fn returns an error and committed otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			appctx.GetLogger(ctx).Error().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}
	return mapError(tx.Commit())
}

// jsonArg renders a JSON payload for a jsonb parameter. The driver would
// send a plain []byte as bytea, which the column type rejects.
func jsonArg(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// CheckTableExists reports whether a table is present in the connected
// database.
func CheckTableExists(ctx context.Context, db Executor, table string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`,
		table,
	).Scan(&exists)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}
