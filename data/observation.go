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

// CompanyRef names a company before it has been resolved to a dimension row.
// Optional fields are backfill candidates, not identity.
type CompanyRef struct {
	Name    string
	Ticker  string
	CIK     string
	Sector  string
	Country string
}

// FundRef names a fund before resolution.
type FundRef struct {
	Name string
	Type string
}

// Observation is a validated candidate fact produced by a connector. Exactly
// one of the pointers is set. Dimension references are carried by name and
// resolved inside the persistence transaction.
type Observation struct {
	Holding   *HoldingObs
	Award     *AwardObs
	Patent    *PatentObs
	FundTrade *FundTradeObs
}

type HoldingObs struct {
	Date    time.Time
	Fund    FundRef
	Company CompanyRef
	PosUSD  float64
	Source  string
}

type AwardObs struct {
	Date      time.Time
	Agency    string
	Recipient string
	Company   CompanyRef
	AmountUSD float64
	Program   string
	Source    string
}

type PatentObs struct {
	PubDate  time.Time
	Company  CompanyRef
	Assignee string
	Title    string
	Keywords string
	URL      string
}

// FundTradeObs carries a company ref even though the fact row stores no
// company id; the traded name still seeds the company dimension.
type FundTradeObs struct {
	Date      time.Time
	Fund      string
	Ticker    string
	Direction string
	ValueUSD  float64
	Company   CompanyRef
	Source    string
}
