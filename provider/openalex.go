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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/instiflow/instiflow/data"
	"github.com/instiflow/instiflow/ingest"
	"github.com/rs/zerolog"
)

// OpenAlex pulls recent research disclosures from the OpenAlex works API.
// Works are filtered to a trailing window and sorted newest first; the
// abstract arrives as an inverted index and is reconstructed into plain text.
type OpenAlex struct {
	WorksURL   string
	PerPage    int
	WindowDays int
	Client     *resty.Client
}

func NewOpenAlex() *OpenAlex {
	return &OpenAlex{
		WorksURL:   "https://api.openalex.org/works",
		PerPage:    25,
		WindowDays: 90,
		Client:     NewClient(),
	}
}

func (alex *OpenAlex) Name() string {
	return "openalex-works"
}

func (alex *OpenAlex) Source() string {
	return "OpenAlex"
}

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	PublicationDate       string               `json:"publication_date"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
}

type openAlexAuthorship struct {
	Institutions []openAlexInstitution `json:"institutions"`
}

type openAlexInstitution struct {
	DisplayName string `json:"display_name"`
	CountryCode string `json:"country_code"`
}

func (alex *OpenAlex) Fetch(ctx context.Context) ([]*data.Observation, int, error) {
	logger := zerolog.Ctx(ctx)

	fromDate := time.Now().UTC().AddDate(0, 0, -alex.WindowDays)

	resp, err := alex.Client.R().
		SetContext(ctx).
		SetQueryParam("filter", fmt.Sprintf("from_publication_date:%s", fromDate.Format("2006-01-02"))).
		SetQueryParam("sort", "publication_date:desc").
		SetQueryParam("per-page", fmt.Sprintf("%d", alex.PerPage)).
		SetQueryParam("mailto", Contact()).
		Get(alex.WorksURL)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: works query: %v", ingest.ErrFetch, err)
	}
	if resp.StatusCode() >= 300 {
		return nil, 0, fmt.Errorf("%w: works query returned status %d", ingest.ErrFetch, resp.StatusCode())
	}

	payload := &openAlexResponse{}
	if err := json.Unmarshal(resp.Body(), payload); err != nil {
		return nil, 0, fmt.Errorf("%w: works payload: %v", ingest.ErrParse, err)
	}

	observations := make([]*data.Observation, 0, len(payload.Results))
	skipped := 0
	for _, work := range payload.Results {
		title := strings.TrimSpace(work.Title)
		if title == "" {
			skipped++
			continue
		}

		pubDate, err := parseDate(work.PublicationDate)
		if err != nil {
			logger.Debug().Str("Title", title).Str("PublicationDate", work.PublicationDate).Msg("skipping work with unparseable date")
			skipped++
			continue
		}

		assignee, country := firstInstitution(work.Authorships)
		companyName := assignee
		if companyName == "" {
			companyName = strings.Fields(title)[0]
		}

		observations = append(observations, &data.Observation{
			Patent: &data.PatentObs{
				PubDate:  pubDate,
				Company:  data.CompanyRef{Name: companyName, Country: country},
				Assignee: assignee,
				Title:    title,
				Keywords: reconstructAbstract(work.AbstractInvertedIndex),
				URL:      work.ID,
			},
		})
	}

	return observations, skipped, nil
}

// firstInstitution returns the first listed affiliated organization across
// the work's authorships, in order.
func firstInstitution(authorships []openAlexAuthorship) (name string, country string) {
	for _, authorship := range authorships {
		for _, institution := range authorship.Institutions {
			if institution.DisplayName != "" {
				return institution.DisplayName, institution.CountryCode
			}
		}
	}
	return "", ""
}

// reconstructAbstract flattens an inverted index (word -> positions) back
// into the abstract text: every (position, word) pair sorted by position,
// joined by single spaces.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	type placed struct {
		position int
		word     string
	}

	words := make([]placed, 0, len(index))
	for word, positions := range index {
		for _, position := range positions {
			words = append(words, placed{position: position, word: word})
		}
	}
	sort.Slice(words, func(i, j int) bool { return words[i].position < words[j].position })

	builder := strings.Builder{}
	for idx, entry := range words {
		if idx > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(entry.word)
	}
	return builder.String()
}
