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

// Package ingesttest provides an in-memory implementation of the ingest
// storage interfaces with copy-on-write transactions, so pipeline semantics
// can be tested without a database.
package ingesttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/instiflow/instiflow/data"
	"github.com/instiflow/instiflow/ingest"
)

// MemDB implements ingest.DB. Each transaction runs against a deep copy of
// the current state; the copy replaces the state only on a successful commit,
// which gives the same all-or-nothing behavior as a database transaction.
type MemDB struct {
	mu    sync.Mutex
	state *MemStore

	// FailCommit forces every commit to fail after the transaction body has
	// run, discarding the staged writes.
	FailCommit bool

	// TxCount is the number of transactions opened.
	TxCount int
}

func NewMemDB() *MemDB {
	return &MemDB{state: &MemStore{}}
}

func (db *MemDB) WithTx(_ context.Context, fn func(store ingest.Store) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.TxCount++
	staged := db.state.clone()
	if err := fn(staged); err != nil {
		return err
	}
	if db.FailCommit {
		return fmt.Errorf("commit refused")
	}
	db.state = staged
	return nil
}

// State returns the committed store for assertions.
func (db *MemDB) State() *MemStore {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state
}

// MemStore implements ingest.Store over plain slices.
type MemStore struct {
	nextID    int64
	Companies []*data.Company
	Funds     []*data.Fund
	Holdings  []*data.Holding
	Awards    []*data.Award
	Patents   []*data.Patent
	Trades    []*data.FundTrade
}

func (store *MemStore) clone() *MemStore {
	copied := &MemStore{nextID: store.nextID}
	for _, company := range store.Companies {
		c := *company
		copied.Companies = append(copied.Companies, &c)
	}
	for _, fund := range store.Funds {
		f := *fund
		copied.Funds = append(copied.Funds, &f)
	}
	for _, holding := range store.Holdings {
		h := *holding
		copied.Holdings = append(copied.Holdings, &h)
	}
	for _, award := range store.Awards {
		a := *award
		copied.Awards = append(copied.Awards, &a)
	}
	for _, patent := range store.Patents {
		p := *patent
		copied.Patents = append(copied.Patents, &p)
	}
	for _, trade := range store.Trades {
		t := *trade
		copied.Trades = append(copied.Trades, &t)
	}
	return copied
}

func (store *MemStore) id() int64 {
	store.nextID++
	return store.nextID
}

func (store *MemStore) CompanyByName(_ context.Context, name string) (*data.Company, error) {
	for _, company := range store.Companies {
		if company.Name == name {
			c := *company
			return &c, nil
		}
	}
	return nil, ingest.ErrNotFound
}

func (store *MemStore) CreateCompany(_ context.Context, company *data.Company) error {
	company.ID = store.id()
	c := *company
	store.Companies = append(store.Companies, &c)
	return nil
}

func (store *MemStore) UpdateCompany(_ context.Context, company *data.Company) error {
	for idx, existing := range store.Companies {
		if existing.ID == company.ID {
			c := *company
			store.Companies[idx] = &c
			return nil
		}
	}
	return ingest.ErrNotFound
}

func (store *MemStore) FundByName(_ context.Context, name string) (*data.Fund, error) {
	for _, fund := range store.Funds {
		if fund.Name == name {
			f := *fund
			return &f, nil
		}
	}
	return nil, ingest.ErrNotFound
}

func (store *MemStore) CreateFund(_ context.Context, fund *data.Fund) error {
	fund.ID = store.id()
	f := *fund
	store.Funds = append(store.Funds, &f)
	return nil
}

func (store *MemStore) UpdateFund(_ context.Context, fund *data.Fund) error {
	for idx, existing := range store.Funds {
		if existing.ID == fund.ID {
			f := *fund
			store.Funds[idx] = &f
			return nil
		}
	}
	return ingest.ErrNotFound
}

func (store *MemStore) HoldingExists(_ context.Context, key data.HoldingKey) (bool, error) {
	for _, holding := range store.Holdings {
		if holding.Date.Equal(key.Date) && holding.FundID == key.FundID &&
			holding.CompanyID == key.CompanyID && holding.Source == key.Source {
			return true, nil
		}
	}
	return false, nil
}

func (store *MemStore) InsertHolding(_ context.Context, holding *data.Holding) error {
	holding.ID = store.id()
	h := *holding
	store.Holdings = append(store.Holdings, &h)
	return nil
}

func (store *MemStore) AwardExists(_ context.Context, key data.AwardKey) (bool, error) {
	for _, award := range store.Awards {
		if award.Date.Equal(key.Date) && award.CompanyID == key.CompanyID &&
			award.AmountUSD == key.AmountUSD && award.Source == key.Source {
			return true, nil
		}
	}
	return false, nil
}

func (store *MemStore) InsertAward(_ context.Context, award *data.Award) error {
	award.ID = store.id()
	a := *award
	store.Awards = append(store.Awards, &a)
	return nil
}

func (store *MemStore) PatentExists(_ context.Context, key data.PatentKey) (bool, error) {
	for _, patent := range store.Patents {
		if patent.PubDate.Equal(key.PubDate) && patent.CompanyID == key.CompanyID &&
			patent.Title == key.Title {
			return true, nil
		}
	}
	return false, nil
}

func (store *MemStore) InsertPatent(_ context.Context, patent *data.Patent) error {
	patent.ID = store.id()
	p := *patent
	store.Patents = append(store.Patents, &p)
	return nil
}

func (store *MemStore) FundTradeExists(_ context.Context, key data.FundTradeKey) (bool, error) {
	for _, trade := range store.Trades {
		if trade.Date.Equal(key.Date) && trade.Fund == key.Fund &&
			trade.Ticker == key.Ticker && trade.Direction == key.Direction {
			return true, nil
		}
	}
	return false, nil
}

func (store *MemStore) InsertFundTrade(_ context.Context, trade *data.FundTrade) error {
	trade.ID = store.id()
	t := *trade
	store.Trades = append(store.Trades, &t)
	return nil
}
