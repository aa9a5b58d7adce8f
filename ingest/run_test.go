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
package ingest_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/instiflow/instiflow/data"
	"github.com/instiflow/instiflow/ingest"
	"github.com/instiflow/instiflow/ingest/ingesttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDate(day int) time.Time {
	return time.Date(2024, time.May, day, 0, 0, 0, 0, time.UTC)
}

func holdingObs(company string, posUSD float64) *data.Observation {
	return &data.Observation{
		Holding: &data.HoldingObs{
			Date:    testDate(15),
			Fund:    data.FundRef{Name: "BERKSHIRE HATHAWAY INC", Type: "13F filer"},
			Company: data.CompanyRef{Name: company},
			PosUSD:  posUSD,
			Source:  "SEC 13F",
		},
	}
}

func awardObs(recipient string, amount float64) *data.Observation {
	return &data.Observation{
		Award: &data.AwardObs{
			Date:      testDate(10),
			Agency:    "Department of Defense",
			Recipient: recipient,
			Company:   data.CompanyRef{Name: recipient},
			AmountUSD: amount,
			Source:    "USAspending",
		},
	}
}

func TestSaveEmptyBatchOpensNoTransaction(t *testing.T) {
	db := ingesttest.NewMemDB()

	counts, err := ingest.Save(context.Background(), db, nil)
	require.NoError(t, err)
	assert.Equal(t, ingest.Counts{}, counts)
	assert.Zero(t, db.TxCount)
}

func TestSaveIdempotentAcrossRuns(t *testing.T) {
	ctx := context.Background()
	db := ingesttest.NewMemDB()

	batch := []*data.Observation{
		holdingObs("APPLE INC", 1000000),
		holdingObs("COCA COLA CO", 500000),
		awardObs("ACME CORP", 75000),
	}

	counts, err := ingest.Save(ctx, db, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Inserted)
	assert.Equal(t, 0, counts.SkippedDuplicate)

	// an identical payload on a later run yields zero net new rows
	counts, err = ingest.Save(ctx, db, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Inserted)
	assert.Equal(t, 3, counts.SkippedDuplicate)

	state := db.State()
	assert.Len(t, state.Holdings, 2)
	assert.Len(t, state.Awards, 1)
	assert.Len(t, state.Funds, 1)
	assert.Len(t, state.Companies, 3)
}

func TestSaveNaturalKeyDominatesMetadata(t *testing.T) {
	ctx := context.Background()
	db := ingesttest.NewMemDB()

	first := awardObs("ACME CORP", 75000)
	first.Award.Program = "R&D"

	// same natural key, different non-key metadata: treated as the same fact
	second := awardObs("ACME CORP", 75000)
	second.Award.Program = "Logistics"
	second.Award.Agency = "Department of Energy"

	counts, err := ingest.Save(ctx, db, []*data.Observation{first, second})
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Inserted)
	assert.Equal(t, 1, counts.SkippedDuplicate)

	state := db.State()
	require.Len(t, state.Awards, 1)
	assert.Equal(t, "R&D", state.Awards[0].Program)
}

func TestSaveRollsBackWholeBatchOnCommitFailure(t *testing.T) {
	ctx := context.Background()
	db := ingesttest.NewMemDB()
	db.FailCommit = true

	batch := make([]*data.Observation, 0, 5)
	for idx := 0; idx < 5; idx++ {
		batch = append(batch, awardObs(fmt.Sprintf("CONTRACTOR %d", idx), float64(10000*(idx+1))))
	}

	counts, err := ingest.Save(ctx, db, batch)
	require.ErrorIs(t, err, ingest.ErrPersist)
	assert.Equal(t, 0, counts.Inserted)

	// dimension rows created for the batch roll back with the facts
	state := db.State()
	assert.Empty(t, state.Awards)
	assert.Empty(t, state.Companies)
}

func TestSaveFundTradeSeedsCompanyDimension(t *testing.T) {
	ctx := context.Background()
	db := ingesttest.NewMemDB()

	trade := &data.Observation{
		FundTrade: &data.FundTradeObs{
			Date:      testDate(20),
			Fund:      "ARKK",
			Ticker:    "TSLA",
			Direction: "Buy",
			ValueUSD:  123456.78,
			Company:   data.CompanyRef{Name: "TESLA INC", Ticker: "TSLA"},
			Source:    "ARK",
		},
	}

	counts, err := ingest.Save(ctx, db, []*data.Observation{trade})
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Inserted)

	state := db.State()
	require.Len(t, state.Companies, 1)
	assert.Equal(t, "TESLA INC", state.Companies[0].Name)
	assert.Equal(t, "TSLA", state.Companies[0].Ticker)
	require.Len(t, state.Trades, 1)
	assert.Equal(t, "ARKK", state.Trades[0].Fund)
}

func TestRunAllIsolatesConnectorFailures(t *testing.T) {
	db := ingesttest.NewMemDB()

	failing := &stubConnector{name: "failing", err: fmt.Errorf("%w: boom", ingest.ErrFetch)}
	healthy := &stubConnector{name: "healthy", observations: []*data.Observation{awardObs("ACME CORP", 75000)}}

	results := ingest.RunAll(context.Background(), db, []ingest.Connector{failing, healthy})
	require.Len(t, results, 2)

	assert.ErrorIs(t, results[0].Err, ingest.ErrFetch)
	assert.Equal(t, 0, results[0].Counts.Inserted)

	require.NoError(t, results[1].Err)
	assert.Equal(t, 1, results[1].Counts.Inserted)
	assert.Len(t, db.State().Awards, 1)
}

type stubConnector struct {
	name         string
	observations []*data.Observation
	skipped      int
	err          error
}

func (stub *stubConnector) Name() string   { return stub.name }
func (stub *stubConnector) Source() string { return "stub" }

func (stub *stubConnector) Fetch(_ context.Context) ([]*data.Observation, int, error) {
	return stub.observations, stub.skipped, stub.err
}
