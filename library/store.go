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
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/instiflow/instiflow/data"
	"github.com/instiflow/instiflow/ingest"
	"github.com/jackc/pgx/v5"
)

// txStore implements ingest.Store over one open transaction, so dimension
// rows created for a batch are visible to later lookups in the same batch and
// disappear with it on rollback.
type txStore struct {
	tx pgx.Tx
}

// nullable maps the empty string onto SQL NULL for optional columns.
func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func (store *txStore) CompanyByName(ctx context.Context, name string) (*data.Company, error) {
	company := &data.Company{}
	err := store.tx.QueryRow(ctx,
		`SELECT id, name, coalesce(ticker, ''), coalesce(cik, ''), coalesce(sector, ''), coalesce(country, '')
		 FROM companies WHERE name = $1`, name).
		Scan(&company.ID, &company.Name, &company.Ticker, &company.CIK, &company.Sector, &company.Country)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingest.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying company: %w", err)
	}
	return company, nil
}

func (store *txStore) CreateCompany(ctx context.Context, company *data.Company) error {
	return store.tx.QueryRow(ctx,
		`INSERT INTO companies ("name", "ticker", "cik", "sector", "country")
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		company.Name, nullable(company.Ticker), nullable(company.CIK),
		nullable(company.Sector), nullable(company.Country)).
		Scan(&company.ID)
}

func (store *txStore) UpdateCompany(ctx context.Context, company *data.Company) error {
	_, err := store.tx.Exec(ctx,
		`UPDATE companies SET ticker = $2, cik = $3, sector = $4, country = $5 WHERE id = $1`,
		company.ID, nullable(company.Ticker), nullable(company.CIK),
		nullable(company.Sector), nullable(company.Country))
	return err
}

func (store *txStore) FundByName(ctx context.Context, name string) (*data.Fund, error) {
	fund := &data.Fund{}
	err := store.tx.QueryRow(ctx,
		`SELECT id, name, coalesce(type, '') FROM funds WHERE name = $1`, name).
		Scan(&fund.ID, &fund.Name, &fund.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingest.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying fund: %w", err)
	}
	return fund, nil
}

func (store *txStore) CreateFund(ctx context.Context, fund *data.Fund) error {
	return store.tx.QueryRow(ctx,
		`INSERT INTO funds ("name", "type") VALUES ($1, $2) RETURNING id`,
		fund.Name, nullable(fund.Type)).
		Scan(&fund.ID)
}

func (store *txStore) UpdateFund(ctx context.Context, fund *data.Fund) error {
	_, err := store.tx.Exec(ctx,
		`UPDATE funds SET type = $2 WHERE id = $1`, fund.ID, nullable(fund.Type))
	return err
}

func (store *txStore) HoldingExists(ctx context.Context, key data.HoldingKey) (bool, error) {
	exists := false
	err := store.tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM holdings
			WHERE event_date = $1 AND fund_id = $2 AND company_id = $3 AND source = $4
		)`, key.Date, key.FundID, key.CompanyID, key.Source).
		Scan(&exists)
	return exists, err
}

func (store *txStore) InsertHolding(ctx context.Context, holding *data.Holding) error {
	return store.tx.QueryRow(ctx,
		`INSERT INTO holdings ("event_date", "fund_id", "company_id", "pos_usd", "source")
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		holding.Date, holding.FundID, holding.CompanyID, holding.PosUSD, holding.Source).
		Scan(&holding.ID)
}

func (store *txStore) AwardExists(ctx context.Context, key data.AwardKey) (bool, error) {
	exists := false
	err := store.tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM awards
			WHERE event_date = $1 AND company_id = $2 AND amount_usd = $3 AND source = $4
		)`, key.Date, key.CompanyID, key.AmountUSD, key.Source).
		Scan(&exists)
	return exists, err
}

func (store *txStore) InsertAward(ctx context.Context, award *data.Award) error {
	return store.tx.QueryRow(ctx,
		`INSERT INTO awards ("event_date", "agency", "recipient", "company_id", "amount_usd", "program", "source")
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		award.Date, award.Agency, award.Recipient, award.CompanyID,
		award.AmountUSD, nullable(award.Program), award.Source).
		Scan(&award.ID)
}

func (store *txStore) PatentExists(ctx context.Context, key data.PatentKey) (bool, error) {
	exists := false
	err := store.tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM patents
			WHERE pub_date = $1 AND company_id = $2 AND title = $3
		)`, key.PubDate, key.CompanyID, key.Title).
		Scan(&exists)
	return exists, err
}

func (store *txStore) InsertPatent(ctx context.Context, patent *data.Patent) error {
	return store.tx.QueryRow(ctx,
		`INSERT INTO patents ("pub_date", "company_id", "assignee", "title", "keywords", "url")
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		patent.PubDate, patent.CompanyID, nullable(patent.Assignee),
		patent.Title, nullable(patent.Keywords), nullable(patent.URL)).
		Scan(&patent.ID)
}

func (store *txStore) FundTradeExists(ctx context.Context, key data.FundTradeKey) (bool, error) {
	exists := false
	err := store.tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM fund_trades
			WHERE event_date = $1 AND fund = $2 AND ticker = $3 AND direction = $4
		)`, key.Date, key.Fund, key.Ticker, key.Direction).
		Scan(&exists)
	return exists, err
}

func (store *txStore) InsertFundTrade(ctx context.Context, trade *data.FundTrade) error {
	return store.tx.QueryRow(ctx,
		`INSERT INTO fund_trades ("event_date", "fund", "ticker", "direction", "value_usd", "source")
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		trade.Date, trade.Fund, trade.Ticker, trade.Direction, trade.ValueUSD, trade.Source).
		Scan(&trade.ID)
}
