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
	"fmt"

	"github.com/instiflow/instiflow/data"
)

// Counts summarizes one connector invocation.
type Counts struct {
	Attempted        int
	Inserted         int
	SkippedInvalid   int
	SkippedDuplicate int
}

// Save persists one connector's staged observations as a single all-or-
// nothing transaction. No transaction is opened when the batch is empty.
// Dimension resolution and the dedup gate run inside the transaction, so a
// failed commit also discards any companies or funds created for the batch.
func Save(ctx context.Context, db DB, observations []*data.Observation) (Counts, error) {
	counts := Counts{Attempted: len(observations)}
	if len(observations) == 0 {
		return counts, nil
	}

	err := db.WithTx(ctx, func(store Store) error {
		resolver := NewResolver(store)
		for _, observation := range observations {
			inserted, err := saveObservation(ctx, store, resolver, observation)
			if err != nil {
				return err
			}
			if inserted {
				counts.Inserted++
			} else {
				counts.SkippedDuplicate++
			}
		}
		return nil
	})
	if err != nil {
		counts.Inserted = 0
		counts.SkippedDuplicate = 0
		return counts, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	return counts, nil
}

// saveObservation resolves referenced dimensions, consults the dedup gate,
// and inserts the fact row. Returns false when the natural key already
// exists; the candidate is discarded silently.
func saveObservation(ctx context.Context, store Store, resolver *Resolver, observation *data.Observation) (bool, error) {
	switch {
	case observation.Holding != nil:
		obs := observation.Holding
		fundID, err := resolver.ResolveFund(ctx, obs.Fund)
		if err != nil {
			return false, err
		}
		companyID, err := resolver.ResolveCompany(ctx, obs.Company)
		if err != nil {
			return false, err
		}
		row := &data.Holding{
			Date:      obs.Date,
			FundID:    fundID,
			CompanyID: companyID,
			PosUSD:    obs.PosUSD,
			Source:    obs.Source,
		}
		exists, err := store.HoldingExists(ctx, row.Key())
		if err != nil || exists {
			return false, err
		}
		return true, store.InsertHolding(ctx, row)

	case observation.Award != nil:
		obs := observation.Award
		companyID, err := resolver.ResolveCompany(ctx, obs.Company)
		if err != nil {
			return false, err
		}
		row := &data.Award{
			Date:      obs.Date,
			Agency:    obs.Agency,
			Recipient: obs.Recipient,
			CompanyID: companyID,
			AmountUSD: obs.AmountUSD,
			Program:   obs.Program,
			Source:    obs.Source,
		}
		exists, err := store.AwardExists(ctx, row.Key())
		if err != nil || exists {
			return false, err
		}
		return true, store.InsertAward(ctx, row)

	case observation.Patent != nil:
		obs := observation.Patent
		companyID, err := resolver.ResolveCompany(ctx, obs.Company)
		if err != nil {
			return false, err
		}
		row := &data.Patent{
			PubDate:   obs.PubDate,
			CompanyID: companyID,
			Assignee:  obs.Assignee,
			Title:     obs.Title,
			Keywords:  obs.Keywords,
			URL:       obs.URL,
		}
		exists, err := store.PatentExists(ctx, row.Key())
		if err != nil || exists {
			return false, err
		}
		return true, store.InsertPatent(ctx, row)

	case observation.FundTrade != nil:
		obs := observation.FundTrade
		if obs.Company.Name != "" {
			// seeds the company dimension; the fact row itself keys on ticker
			if _, err := resolver.ResolveCompany(ctx, obs.Company); err != nil {
				return false, err
			}
		}
		row := &data.FundTrade{
			Date:      obs.Date,
			Fund:      obs.Fund,
			Ticker:    obs.Ticker,
			Direction: obs.Direction,
			ValueUSD:  obs.ValueUSD,
			Source:    obs.Source,
		}
		exists, err := store.FundTradeExists(ctx, row.Key())
		if err != nil || exists {
			return false, err
		}
		return true, store.InsertFundTrade(ctx, row)
	}

	return false, fmt.Errorf("observation has no fact set")
}
