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
package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/instiflow/instiflow/ingest"
	"github.com/instiflow/instiflow/ingest/ingesttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const edgarSubmissionsPayload = `{
	"name": "TEST CAPITAL MANAGEMENT",
	"filings": {
		"recent": {
			"form": ["10-K", "13F-HR", "13F-HR"],
			"accessionNumber": ["0000123456-24-000009", "0000123456-24-000001", "0000123456-23-000088"],
			"filingDate": ["2024-06-01", "2024-05-15", "2023-11-14"]
		}
	}
}`

const edgarNamespacedTable = `<?xml version="1.0" encoding="UTF-8"?>
<informationTable xmlns="http://www.sec.gov/edgar/document/thirteenf/informationtable">
	<infoTable>
		<nameOfIssuer>APPLE INC</nameOfIssuer>
		<cusip>037833100</cusip>
		<value>1000</value>
	</infoTable>
	<infoTable>
		<nameOfIssuer>COCA COLA CO</nameOfIssuer>
		<cusip>191216100</cusip>
		<value>2,500</value>
	</infoTable>
	<infoTable>
		<nameOfIssuer>MISSING VALUE CO</nameOfIssuer>
		<cusip>000000000</cusip>
	</infoTable>
</informationTable>`

const edgarPlainTable = `<?xml version="1.0" encoding="UTF-8"?>
<informationTable>
	<infoTable>
		<nameOfIssuer>APPLE INC</nameOfIssuer>
		<cusip>037833100</cusip>
		<value>1000</value>
	</infoTable>
</informationTable>`

func testEdgar(t *testing.T, handler http.Handler) *Edgar {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	edgar := NewEdgar()
	edgar.CIK = "0000123456"
	edgar.SubmissionsURL = server.URL + "/submissions"
	edgar.ArchivesURL = server.URL + "/archives"
	return edgar
}

func TestEdgarFetchFilingTable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/submissions/CIK0000123456.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(edgarSubmissionsPayload))
	})
	// first candidate document name 404s; the connector falls through to the next
	mux.HandleFunc("/archives/123456/000012345624000001/infotable.xml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(edgarNamespacedTable))
	})

	edgar := testEdgar(t, mux)
	observations, skipped, err := edgar.Fetch(context.Background())
	require.NoError(t, err)

	// the line item without a reported value is skipped individually
	assert.Equal(t, 1, skipped)
	require.Len(t, observations, 2)

	apple := observations[0].Holding
	require.NotNil(t, apple)
	assert.Equal(t, "APPLE INC", apple.Company.Name)
	assert.Equal(t, "037833100", apple.Company.Ticker)
	assert.Equal(t, 1000*edgarValueScale, apple.PosUSD)
	assert.Equal(t, "SEC 13F", apple.Source)
	assert.Equal(t, "TEST CAPITAL MANAGEMENT", apple.Fund.Name)
	assert.Equal(t, "2024-05-15", apple.Date.Format("2006-01-02"))

	// thousands separators in the reported value are accepted
	assert.Equal(t, 2500*edgarValueScale, observations[1].Holding.PosUSD)
}

func TestEdgarFilingScenarioPersists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/submissions/CIK0000123456.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(edgarSubmissionsPayload))
	})
	mux.HandleFunc("/archives/123456/000012345624000001/form13fInfoTable.xml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(edgarNamespacedTable))
	})

	edgar := testEdgar(t, mux)
	observations, skipped, err := edgar.Fetch(context.Background())
	require.NoError(t, err)

	db := ingesttest.NewMemDB()
	counts, err := ingest.Save(context.Background(), db, observations)
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	assert.Equal(t, 2, counts.Inserted)

	state := db.State()
	assert.Len(t, state.Funds, 1)
	assert.Len(t, state.Companies, 2)
	assert.Len(t, state.Holdings, 2)
}

func TestEdgarTableWithoutNamespace(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/submissions/CIK0000123456.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(edgarSubmissionsPayload))
	})
	mux.HandleFunc("/archives/123456/000012345624000001/form13fInfoTable.xml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(edgarPlainTable))
	})

	edgar := testEdgar(t, mux)
	observations, _, err := edgar.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "APPLE INC", observations[0].Holding.Company.Name)
}

func TestEdgarNoMatchingFiling(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/submissions/CIK0000123456.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name": "TEST CAPITAL MANAGEMENT", "filings": {"recent": {"form": ["10-K"], "accessionNumber": ["x"], "filingDate": ["2024-06-01"]}}}`))
	})

	edgar := testEdgar(t, mux)
	observations, skipped, err := edgar.Fetch(context.Background())

	// a filer without a 13F-HR is a clean outcome, not an error
	require.NoError(t, err)
	assert.Empty(t, observations)
	assert.Zero(t, skipped)
}

func TestEdgarTruncatedSubmissionsIndex(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/submissions/CIK0000123456.json", func(w http.ResponseWriter, _ *http.Request) {
		// filingDate is shorter than its sibling arrays
		_, _ = w.Write([]byte(`{"name": "TEST CAPITAL MANAGEMENT", "filings": {"recent": {"form": ["10-K", "13F-HR"], "accessionNumber": ["0000123456-24-000009", "0000123456-24-000001"], "filingDate": ["2024-06-01"]}}}`))
	})

	edgar := testEdgar(t, mux)
	observations, _, err := edgar.Fetch(context.Background())
	assert.ErrorIs(t, err, ingest.ErrParse)
	assert.Empty(t, observations)
}

func TestEdgarMissingHoldingsDocument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/submissions/CIK0000123456.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(edgarSubmissionsPayload))
	})

	edgar := testEdgar(t, mux)
	_, _, err := edgar.Fetch(context.Background())
	assert.ErrorIs(t, err, ingest.ErrFetch)
}

func TestCIKFormatting(t *testing.T) {
	assert.Equal(t, "0000123456", padCIK("123456"))
	assert.Equal(t, "0001067983", padCIK("0001067983"))
	assert.Equal(t, "1067983", trimCIK("0001067983"))
	assert.Equal(t, "0", trimCIK("0"))
}
