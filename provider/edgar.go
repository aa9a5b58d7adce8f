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
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/instiflow/instiflow/data"
	"github.com/instiflow/instiflow/ingest"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// Reported 13F position values are in thousands of dollars.
const edgarValueScale = 1000.0

// Edgar pulls the most recent 13F-HR holdings table for a configured filer
// from the SEC EDGAR full-text archives.
type Edgar struct {
	CIK            string
	SubmissionsURL string
	ArchivesURL    string
	Client         *resty.Client

	limiter *rate.Limiter
}

func NewEdgar() *Edgar {
	cik := viper.GetString("edgar.cik")
	if cik == "" {
		cik = "0001067983"
	}

	return &Edgar{
		CIK:            cik,
		SubmissionsURL: "https://data.sec.gov/submissions",
		ArchivesURL:    "https://www.sec.gov/Archives/edgar/data",
		Client:         NewClient(),
		// SEC fair access policy caps clients at 10 requests per second
		limiter: rate.NewLimiter(rate.Every(time.Second/10), 1),
	}
}

func (edgar *Edgar) Name() string {
	return "edgar-13f"
}

func (edgar *Edgar) Source() string {
	return "SEC 13F"
}

type edgarSubmissions struct {
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			Form            []string `json:"form"`
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
		} `json:"recent"`
	} `json:"filings"`
}

// informationTable matches the 13F info table whether or not the document
// declares the ns1 namespace; encoding/xml compares local names only.
type informationTable struct {
	XMLName xml.Name
	Tables  []edgarInfoTable `xml:"infoTable"`
}

type edgarInfoTable struct {
	NameOfIssuer string `xml:"nameOfIssuer"`
	CUSIP        string `xml:"cusip"`
	Value        string `xml:"value"`
}

func (edgar *Edgar) Fetch(ctx context.Context) ([]*data.Observation, int, error) {
	logger := zerolog.Ctx(ctx)

	submissions, err := edgar.fetchSubmissions(ctx)
	if err != nil {
		return nil, 0, err
	}

	recent := submissions.Filings.Recent
	targetIndex := -1
	for idx, form := range recent.Form {
		if form == "13F-HR" {
			targetIndex = idx
			break
		}
	}
	if targetIndex == -1 {
		// a clean outcome, not an error: the filer simply has nothing to report
		logger.Info().Str("CIK", edgar.CIK).Msg("no matching 13F-HR filing")
		return nil, 0, nil
	}
	// form, accessionNumber, and filingDate are parallel arrays
	if targetIndex >= len(recent.AccessionNumber) || targetIndex >= len(recent.FilingDate) {
		return nil, 0, fmt.Errorf("%w: submissions index arrays are not the same length", ingest.ErrParse)
	}

	filingDate, err := parseDate(recent.FilingDate[targetIndex])
	if err != nil {
		filingDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	document, err := edgar.fetchInfoTable(ctx, recent.AccessionNumber[targetIndex])
	if err != nil {
		return nil, 0, err
	}

	fundName := submissions.Name
	if fundName == "" {
		fundName = fmt.Sprintf("CIK %s", trimCIK(edgar.CIK))
	}
	fund := data.FundRef{Name: fundName, Type: "13F filer"}

	observations := make([]*data.Observation, 0, len(document.Tables))
	skipped := 0
	for _, table := range document.Tables {
		issuer := strings.TrimSpace(table.NameOfIssuer)
		valueStr := strings.TrimSpace(table.Value)
		if issuer == "" || valueStr == "" {
			skipped++
			continue
		}

		value, err := parseAmount(valueStr)
		if err != nil {
			logger.Debug().Str("Issuer", issuer).Str("Value", valueStr).Msg("skipping line item with unparseable value")
			skipped++
			continue
		}

		observations = append(observations, &data.Observation{
			Holding: &data.HoldingObs{
				Date:    filingDate,
				Fund:    fund,
				Company: data.CompanyRef{Name: issuer, Ticker: strings.TrimSpace(table.CUSIP)},
				PosUSD:  value * edgarValueScale,
				Source:  edgar.Source(),
			},
		})
	}

	return observations, skipped, nil
}

func (edgar *Edgar) fetchSubmissions(ctx context.Context) (*edgarSubmissions, error) {
	if err := edgar.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ingest.ErrFetch, err)
	}

	url := fmt.Sprintf("%s/CIK%s.json", edgar.SubmissionsURL, padCIK(edgar.CIK))
	resp, err := edgar.Client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: submissions index: %v", ingest.ErrFetch, err)
	}
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: submissions index returned status %d", ingest.ErrFetch, resp.StatusCode())
	}

	submissions := &edgarSubmissions{}
	if err := json.Unmarshal(resp.Body(), submissions); err != nil {
		return nil, fmt.Errorf("%w: submissions index: %v", ingest.ErrParse, err)
	}

	return submissions, nil
}

// fetchInfoTable locates the holdings detail document by trying the known
// file names under the filing's archive folder, first success wins.
func (edgar *Edgar) fetchInfoTable(ctx context.Context, accession string) (*informationTable, error) {
	accessionCompact := strings.ReplaceAll(accession, "-", "")
	baseURL := fmt.Sprintf("%s/%s/%s", edgar.ArchivesURL, trimCIK(edgar.CIK), accessionCompact)

	var body []byte
	for _, name := range []string{"form13fInfoTable.xml", "infotable.xml", "primary_doc.xml"} {
		if err := edgar.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ingest.ErrFetch, err)
		}

		resp, err := edgar.Client.R().SetContext(ctx).Get(fmt.Sprintf("%s/%s", baseURL, name))
		if err != nil || resp.StatusCode() >= 300 {
			continue
		}
		body = resp.Body()
		break
	}
	if body == nil {
		return nil, fmt.Errorf("%w: no holdings table found for accession %s", ingest.ErrFetch, accession)
	}

	document := &informationTable{}
	if err := xml.Unmarshal(body, document); err != nil {
		return nil, fmt.Errorf("%w: holdings table: %v", ingest.ErrParse, err)
	}

	return document, nil
}

func padCIK(cik string) string {
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}

func trimCIK(cik string) string {
	trimmed := strings.TrimLeft(cik, "0")
	if trimmed == "" {
		return cik
	}
	return trimmed
}
