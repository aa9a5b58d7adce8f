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
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TableInfo is the reporting collaborator's view of one canonical table: a
// row count and a short preview of the most recent rows.
type TableInfo struct {
	Table   string
	Rows    int64
	Preview []string
}

// previewQueries order each table by its business date descending, then a
// magnitude field descending; dimension tables fall back to identity
// ascending. %d is the preview size.
var previewQueries = []struct {
	table string
	query string
}{
	{"companies", `SELECT name || coalesce(' [' || ticker || ']', '')
		FROM companies ORDER BY id ASC LIMIT %d`},
	{"funds", `SELECT name || coalesce(' (' || type || ')', '')
		FROM funds ORDER BY id ASC LIMIT %d`},
	{"holdings", `SELECT to_char(event_date, 'YYYY-MM-DD') || ' ' || source || ' $' || round(pos_usd)::text
		FROM holdings ORDER BY event_date DESC, pos_usd DESC LIMIT %d`},
	{"awards", `SELECT to_char(event_date, 'YYYY-MM-DD') || ' ' || recipient || ' $' || round(amount_usd)::text
		FROM awards ORDER BY event_date DESC, amount_usd DESC LIMIT %d`},
	{"patents", `SELECT to_char(pub_date, 'YYYY-MM-DD') || ' ' || title
		FROM patents ORDER BY pub_date DESC, id ASC LIMIT %d`},
	{"fund_trades", `SELECT to_char(event_date, 'YYYY-MM-DD') || ' ' || fund || ' ' || direction || ' ' || ticker
		FROM fund_trades ORDER BY event_date DESC, value_usd DESC LIMIT %d`},
}

// Overview returns counts and previews for every canonical table. An absent
// schema is reported as an empty library, not an error.
func (myLibrary *Library) Overview(ctx context.Context, previewSize int) ([]TableInfo, error) {
	infos := make([]TableInfo, 0, len(previewQueries))

	for _, spec := range previewQueries {
		info := TableInfo{Table: spec.table}

		err := myLibrary.Pool.QueryRow(ctx,
			fmt.Sprintf("SELECT count(*) FROM %s", spec.table)).Scan(&info.Rows)
		if isUndefinedTable(err) {
			return []TableInfo{}, nil
		}
		if err != nil {
			return nil, err
		}

		if err := pgxscan.Select(ctx, myLibrary.Pool, &info.Preview,
			fmt.Sprintf(spec.query, previewSize)); err != nil {
			return nil, err
		}

		infos = append(infos, info)
	}

	return infos, nil
}

// LastEventDate returns the most recent business date across the fact tables.
func (myLibrary *Library) LastEventDate(ctx context.Context) (time.Time, error) {
	var lastEvent time.Time
	err := myLibrary.Pool.QueryRow(ctx, `SELECT coalesce(max(event_date), '0001-01-01'::date) FROM (
		SELECT max(event_date) AS event_date FROM holdings
		UNION ALL SELECT max(event_date) FROM awards
		UNION ALL SELECT max(pub_date) FROM patents
		UNION ALL SELECT max(event_date) FROM fund_trades
	) events`).Scan(&lastEvent)
	if isUndefinedTable(err) {
		return time.Time{}, nil
	}
	return lastEvent, err
}

// Summary returns a markdown description of the library
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString("# InstiFlow data library\n\n")
	builder.WriteString(fmt.Sprintf("Database: %s\n\n", myLibrary.DBUrl))

	infos, err := myLibrary.Overview(ctx, 5)
	if err != nil {
		return "", err
	}

	if len(infos) == 0 {
		builder.WriteString("The library schema has not been initialized yet. Run `instiflow init`.\n")
		return builder.String(), nil
	}

	for _, info := range infos {
		builder.WriteString(p.Sprintf("## %s (%d rows)\n\n", info.Table, info.Rows))
		for _, line := range info.Preview {
			builder.WriteString(fmt.Sprintf("  * %s\n", line))
		}
		builder.WriteString("\n")
	}

	lastEvent, err := myLibrary.LastEventDate(ctx)
	if err != nil {
		return "", err
	}
	if !lastEvent.IsZero() && lastEvent.Year() > 1 {
		builder.WriteString(fmt.Sprintf("Most recent observation: %s\n", timeago.English.Format(lastEvent)))
	}

	return builder.String(), nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}
