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
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats are the row counts of the library tables
type Stats struct {
	NumItems        int64
	NumEquities     int64
	NumBars         int64
	NumFundamentals int64
	LastBar         time.Time
}

// Stats returns row counts and the date of the most recent price bar
func (myLibrary *Library) Stats(ctx context.Context) (*Stats, error) {
	if myLibrary.Pool == nil {
		return nil, ErrNoDatabase
	}

	stats := &Stats{}
	sql := fmt.Sprintf(`SELECT
	(SELECT count(*) FROM %[1]s) AS num_items,
	(SELECT count(*) FROM %[1]s WHERE "type"='EQUITY') AS num_equities,
	(SELECT count(*) FROM %[2]s) AS num_bars,
	(SELECT count(*) FROM %[3]s) AS num_fundamentals,
	to_timestamp(coalesce((SELECT max("timestamp") FROM %[2]s), -62135596800)) AS last_bar`,
		myLibrary.ItemTable, myLibrary.OHLCVTable, myLibrary.FundamentalTable)

	if err := pgxscan.Get(ctx, myLibrary.Pool, stats, sql); err != nil {
		return nil, err
	}

	return stats, nil
}

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	stats, err := myLibrary.Stats(ctx)
	if err != nil {
		return "", err
	}

	return stats.Markdown(myLibrary.Config), nil
}

// Markdown renders the statistics for display with glamour
func (stats *Stats) Markdown(cfg Config) string {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString("# NASDAQ Library\n")
	builder.WriteString("## Details\n\n")

	database := cfg.Database
	if cfg.Host != "" {
		database = fmt.Sprintf("%s on %s", cfg.Database, cfg.Host)
	}
	if cfg.Schema != "" {
		database = fmt.Sprintf("%s (schema %s)", database, cfg.Schema)
	}
	builder.WriteString(fmt.Sprintf("Database: %s\n\n", database))

	builder.WriteString(p.Sprintf("  * Items: %d (%d equities)\n", stats.NumItems, stats.NumEquities))
	builder.WriteString(p.Sprintf("  * Daily Bars: %d\n", stats.NumBars))
	builder.WriteString(p.Sprintf("  * Fundamentals: %d\n\n", stats.NumFundamentals))

	if stats.LastBar.Year() <= 1 {
		builder.WriteString("Last Bar: Never\n\n")
	} else {
		age := timeago.English.Format(stats.LastBar)
		builder.WriteString(fmt.Sprintf("Last Bar: %s (%s)\n\n", age, stats.LastBar.Local().Format("01/02/2006")))
	}

	return builder.String()
}
