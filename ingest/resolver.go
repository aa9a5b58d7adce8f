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
	"errors"
	"fmt"

	"github.com/alphadose/haxmap"
	"github.com/instiflow/instiflow/data"
)

// Resolver maps free-text names to stable dimension identities, creating a
// row on first reference. The lookup key is the name verbatim; no fuzzy
// matching. A name resolved earlier in the run returns the same identity
// again, served from the cache when no backfill is pending.
type Resolver struct {
	store     Store
	companies *haxmap.Map[string, int64]
	funds     *haxmap.Map[string, int64]
}

func NewResolver(store Store) *Resolver {
	return &Resolver{
		store:     store,
		companies: haxmap.New[string, int64](),
		funds:     haxmap.New[string, int64](),
	}
}

// ResolveCompany returns the identity for ref.Name, creating the company if
// it is unknown. Optional fields backfill a stored NULL exactly once; a
// populated field is never overwritten.
func (resolver *Resolver) ResolveCompany(ctx context.Context, ref data.CompanyRef) (int64, error) {
	if ref.Name == "" {
		return 0, fmt.Errorf("company ref has no name")
	}

	// fast path: already resolved this run and nothing to backfill
	if id, ok := resolver.companies.Get(ref.Name); ok && ref.Ticker == "" && ref.CIK == "" && ref.Sector == "" && ref.Country == "" {
		return id, nil
	}

	company, err := resolver.store.CompanyByName(ctx, ref.Name)
	switch {
	case errors.Is(err, ErrNotFound):
		company = &data.Company{
			Name:    ref.Name,
			Ticker:  ref.Ticker,
			CIK:     ref.CIK,
			Sector:  ref.Sector,
			Country: ref.Country,
		}
		if err := resolver.store.CreateCompany(ctx, company); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	default:
		changed := false
		if company.Ticker == "" && ref.Ticker != "" {
			company.Ticker = ref.Ticker
			changed = true
		}
		if company.CIK == "" && ref.CIK != "" {
			company.CIK = ref.CIK
			changed = true
		}
		if company.Sector == "" && ref.Sector != "" {
			company.Sector = ref.Sector
			changed = true
		}
		if company.Country == "" && ref.Country != "" {
			company.Country = ref.Country
			changed = true
		}
		if changed {
			if err := resolver.store.UpdateCompany(ctx, company); err != nil {
				return 0, err
			}
		}
	}

	resolver.companies.Set(ref.Name, company.ID)
	return company.ID, nil
}

// ResolveFund is ResolveCompany for the fund dimension.
func (resolver *Resolver) ResolveFund(ctx context.Context, ref data.FundRef) (int64, error) {
	if ref.Name == "" {
		return 0, fmt.Errorf("fund ref has no name")
	}

	if id, ok := resolver.funds.Get(ref.Name); ok && ref.Type == "" {
		return id, nil
	}

	fund, err := resolver.store.FundByName(ctx, ref.Name)
	switch {
	case errors.Is(err, ErrNotFound):
		fund = &data.Fund{Name: ref.Name, Type: ref.Type}
		if err := resolver.store.CreateFund(ctx, fund); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	default:
		if fund.Type == "" && ref.Type != "" {
			fund.Type = ref.Type
			if err := resolver.store.UpdateFund(ctx, fund); err != nil {
				return 0, err
			}
		}
	}

	resolver.funds.Set(ref.Name, fund.ID)
	return fund.ID, nil
}
