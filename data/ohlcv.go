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

// Ohlcv is one price bar; rows are unique on (code, window_size, timestamp)
type Ohlcv struct {
	Code       string
	WindowSize int
	Timestamp  int64
	Open       null.Float
	High       null.Float
	Low        null.Float
	Close      null.Float
	Volume     null.Int
	TradingVal null.Float
}

// NewOhlcv converts a provider quote into a daily bar. The trading value is
// only derived when both volume and close are present and non-zero.
func NewOhlcv(code string, quote *Quote) *Ohlcv {
	bar := &Ohlcv{
		Code:       code,
		WindowSize: DailyWindow,
		Timestamp:  quote.Date.Unix(),
		Open:       quote.Open,
		High:       quote.High,
		Low:        quote.Low,
		Close:      quote.Close,
		Volume:     quote.Volume,
	}

	if quote.Volume.Valid && quote.Volume.Int64 != 0 && quote.Close.Valid && quote.Close.Float64 != 0 {
		bar.TradingVal = null.FloatFrom(float64(quote.Volume.Int64) * quote.Close.Float64)
	}

	return bar
}

func (bar *Ohlcv) Fields() Fields {
	fields := Fields{
		{Column: "code", Value: bar.Code},
		{Column: "window_size", Value: bar.WindowSize},
		{Column: "timestamp", Value: bar.Timestamp},
	}
	fields = fields.withFloat("open", bar.Open)
	fields = fields.withFloat("high", bar.High)
	fields = fields.withFloat("low", bar.Low)
	fields = fields.withFloat("close", bar.Close)
	fields = fields.withInt("volume", bar.Volume)
	fields = fields.withFloat("trading_val", bar.TradingVal)
	return fields
}

func (bar *Ohlcv) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Code", bar.Code)
	e.Int("WindowSize", bar.WindowSize)
	e.Int64("Timestamp", bar.Timestamp)
}

// SaveDB inserts the bar in its own transaction. A bar that already exists
// is reported as a skipped duplicate and leaves the table unchanged.
func (bar *Ohlcv) SaveDB(ctx context.Context, tbl string, db Beginner) (SaveResult, error) {
	fields := bar.Fields()
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
		log.Error().Err(err).Str("SQL", sql).Object("Bar", bar).Msg("save ohlcv to DB failed")
		return ResultFailed, err
	}

	return result, nil
}
