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
package data

import "time"

// Company is a dimension entity shared by all fact tables. Identity is the
// exact name; nullable attributes are backfilled once and never overwritten.
type Company struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Ticker  string `json:"ticker"`
	CIK     string `json:"cik"`
	Sector  string `json:"sector"`
	Country string `json:"country"`
}

// Fund is a dimension entity identifying an institutional filer or ETF.
type Fund struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Holding is a point-in-time position disclosed by a fund.
type Holding struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	FundID    int64     `json:"fund_id"`
	CompanyID int64     `json:"company_id"`
	PosUSD    float64   `json:"pos_usd"`
	Source    string    `json:"source"`
}

// Award is a federal contract or grant obligation.
type Award struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	Agency    string    `json:"agency"`
	Recipient string    `json:"recipient"`
	CompanyID int64     `json:"company_id"`
	AmountUSD float64   `json:"amount_usd"`
	Program   string    `json:"program"`
	Source    string    `json:"source"`
}

// Patent is a research or innovation disclosure.
type Patent struct {
	ID        int64     `json:"id"`
	PubDate   time.Time `json:"pub_date"`
	CompanyID int64     `json:"company_id"`
	Assignee  string    `json:"assignee"`
	Title     string    `json:"title"`
	Keywords  string    `json:"keywords"`
	URL       string    `json:"url"`
}

// FundTrade is a disclosed buy or sell from a fund trade feed.
type FundTrade struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	Fund      string    `json:"fund"`
	Ticker    string    `json:"ticker"`
	Direction string    `json:"direction"`
	ValueUSD  float64   `json:"value_usd"`
	Source    string    `json:"source"`
}

// Natural keys identify a fact row within one source. Dedup compares every
// field exactly; non-key metadata never participates.

type HoldingKey struct {
	Date      time.Time
	FundID    int64
	CompanyID int64
	Source    string
}

type AwardKey struct {
	Date      time.Time
	CompanyID int64
	AmountUSD float64
	Source    string
}

type PatentKey struct {
	PubDate   time.Time
	CompanyID int64
	Title     string
}

type FundTradeKey struct {
	Date      time.Time
	Fund      string
	Ticker    string
	Direction string
}

func (h *Holding) Key() HoldingKey {
	return HoldingKey{Date: h.Date, FundID: h.FundID, CompanyID: h.CompanyID, Source: h.Source}
}

func (a *Award) Key() AwardKey {
	return AwardKey{Date: a.Date, CompanyID: a.CompanyID, AmountUSD: a.AmountUSD, Source: a.Source}
}

func (p *Patent) Key() PatentKey {
	return PatentKey{PubDate: p.PubDate, CompanyID: p.CompanyID, Title: p.Title}
}

func (t *FundTrade) Key() FundTradeKey {
	return FundTradeKey{Date: t.Date, Fund: t.Fund, Ticker: t.Ticker, Direction: t.Direction}
}
