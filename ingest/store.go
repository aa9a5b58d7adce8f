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
package ingest

import (
	"context"

	"github.com/instiflow/instiflow/data"
)

// Store is the slice of the data library the pipeline writes through. All
// methods operate inside the transaction that WithTx opened; lookups see
// writes made earlier in the same transaction.
type Store interface {
	// Dimension lookups return ErrNotFound when no row matches the exact name.
	CompanyByName(ctx context.Context, name string) (*data.Company, error)
	CreateCompany(ctx context.Context, company *data.Company) error
	UpdateCompany(ctx context.Context, company *data.Company) error

	FundByName(ctx context.Context, name string) (*data.Fund, error)
	CreateFund(ctx context.Context, fund *data.Fund) error
	UpdateFund(ctx context.Context, fund *data.Fund) error

	// The dedup gate: an exact-match existence check on the natural key,
	// performed immediately before staging an insert.
	HoldingExists(ctx context.Context, key data.HoldingKey) (bool, error)
	InsertHolding(ctx context.Context, holding *data.Holding) error

	AwardExists(ctx context.Context, key data.AwardKey) (bool, error)
	InsertAward(ctx context.Context, award *data.Award) error

	PatentExists(ctx context.Context, key data.PatentKey) (bool, error)
	InsertPatent(ctx context.Context, patent *data.Patent) error

	FundTradeExists(ctx context.Context, key data.FundTradeKey) (bool, error)
	InsertFundTrade(ctx context.Context, trade *data.FundTrade) error
}

// DB hands out one transaction per connector batch. If fn returns an error
// the transaction is rolled back and nothing it wrote survives, dimension
// rows included.
type DB interface {
	WithTx(ctx context.Context, fn func(store Store) error) error
}
