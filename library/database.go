// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package library is the durable data library: a PostgreSQL-backed
// implementation of the ingest storage interfaces plus the read-only query
// surface used for reporting.
package library

import (
	"context"

	"github.com/instiflow/instiflow/ingest"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Library struct {
	DBUrl string
	Pool  *pgxpool.Pool
}

// NewFromDB connects to the database holding the data library
func NewFromDB(ctx context.Context, dbURL string) (*Library, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	return &Library{DBUrl: dbURL, Pool: pool}, nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	myLibrary.Pool.Close()
}

// WithTx runs fn inside a single transaction. An error from fn rolls the
// whole batch back, fact rows and dimension rows alike; otherwise the
// transaction commits. One logical writer holds the transaction at a time.
func (myLibrary *Library) WithTx(ctx context.Context, fn func(store ingest.Store) error) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(&txStore{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
