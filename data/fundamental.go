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

import (
	"context"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Fundamental is the most recent financial snapshot of a company as known
// at fetch time
type Fundamental struct {
	// [Entity] Ticker symbol the snapshot belongs to
	Code string

	// [Entity] End of the most recent fiscal quarter (YYYY-MM-DD HH:MM:SS, UTC)
	Timestamp null.String

	// [Price] Last traded price
	Close null.Float

	// [Price] Volume of the regular market session
	Volume null.Int

	// [Shares] Number of shares outstanding
	IssuedShare null.Int

	// [Metrics] Market capitalization
	Cap null.Int

	// [Metrics] Trailing twelve month price to earnings ratio
	SectorPER null.Float

	// [Dividend] Forward annual dividend rate per share
	Dividend null.Float

	// [Dividend] Ex-dividend date (YYYY-MM-DD, UTC)
	DivReleaseDate null.String

	// [Income Statement] Total revenue, trailing twelve months
	TotalRevenue null.Int

	// [Cash Flow Statement] Operating cash flow, trailing twelve months
	OperatingIncome null.Int

	// [Income Statement] Net income available to common shareholders
	NetIncome null.Int

	// [Balance Sheet]
	TotalAssets null.Int

	// [Balance Sheet] Total debt
	TotalLiabilities null.Int

	// [Balance Sheet] Book value per share
	TotalEquity null.Float
}

func NewFundamental(symbol string, info Info) *Fundamental {
	fundamental := &Fundamental{
		Code:             symbol,
		Timestamp:        ConvertUnixToDatetime(info.Int("mostRecentQuarter")),
		Close:            info.Float("currentPrice"),
		Volume:           info.Int("regularMarketVolume"),
		IssuedShare:      info.Int("sharesOutstanding"),
		Cap:              info.Int("marketCap"),
		SectorPER:        info.Float("trailingPE"),
		Dividend:         info.Float("dividendRate"),
		DivReleaseDate:   ConvertUnixToDate(info.Int("exDividendDate")),
		TotalRevenue:     info.Int("totalRevenue"),
		OperatingIncome:  info.Int("operatingCashflow"),
		NetIncome:        info.Int("netIncomeToCommon"),
		TotalAssets:      info.Int("totalAssets"),
		TotalLiabilities: info.Int("totalDebt"),
		TotalEquity:      info.Float("bookValue"),
	}

	if code := info.Str("symbol"); code.Valid && code.String != "" {
		fundamental.Code = code.String
	}

	return fundamental
}

func (fundamental *Fundamental) Fields() Fields {
	fields := Fields{{Column: "code", Value: fundamental.Code}}
	fields = fields.withString("timestamp", fundamental.Timestamp)
	fields = fields.withFloat("close", fundamental.Close)
	fields = fields.withInt("volume", fundamental.Volume)
	fields = fields.withInt("issued_share", fundamental.IssuedShare)
	fields = fields.withInt("cap", fundamental.Cap)
	fields = fields.withFloat("sector_per", fundamental.SectorPER)
	fields = fields.withFloat("dividend", fundamental.Dividend)
	fields = fields.withString("div_release_date", fundamental.DivReleaseDate)
	fields = fields.withInt("total_revenue", fundamental.TotalRevenue)
	fields = fields.withInt("operating_income", fundamental.OperatingIncome)
	fields = fields.withInt("net_income", fundamental.NetIncome)
	fields = fields.withInt("total_assets", fundamental.TotalAssets)
	fields = fields.withInt("total_liabilities", fundamental.TotalLiabilities)
	fields = fields.withFloat("total_equity", fundamental.TotalEquity)
	return fields
}

func (fundamental *Fundamental) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Code", fundamental.Code)
	e.Str("Timestamp", fundamental.Timestamp.ValueOrZero())
}

// SaveDB attempts a single insert of the snapshot. If a snapshot for the same
// code and quarter already exists nothing is written and the duplicate is
// reported via the result.
func (fundamental *Fundamental) SaveDB(ctx context.Context, tbl string, db Beginner) (SaveResult, error) {
	fields := fundamental.Fields()
	sql := fields.InsertSQL(tbl, "ON CONFLICT DO NOTHING")
	result := ResultFailed

	err := inTx(ctx, db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, fields.Values()...)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			result = ResultSkippedDuplicate
		} else {
			result = ResultInserted
		}
		return nil
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return ResultSkippedDuplicate, nil
		}
		log.Error().Err(err).Str("SQL", sql).Object("Fundamental", fundamental).Msg("save fundamental to DB failed")
		return ResultFailed, err
	}

	return result, nil
}
