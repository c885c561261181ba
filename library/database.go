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
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/import-nasdaq/data"
	"github.com/rs/zerolog"
)

// DB is the subset of *pgxpool.Pool used by the library
type DB interface {
	data.Beginner
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type Library struct {
	Config Config

	ItemTable        string
	OHLCVTable       string
	FundamentalTable string

	Pool DB
}

// New creates a library for the given database settings; call Connect
// before saving observations
func New(cfg Config) *Library {
	return &Library{
		Config:           cfg,
		ItemTable:        data.ItemTable,
		OHLCVTable:       data.OHLCVTable,
		FundamentalTable: data.FundamentalTable,
	}
}

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	poolCfg, err := myLibrary.Config.PoolConfig()
	if err != nil {
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	myLibrary.Pool = pool
	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	if myLibrary.Pool != nil {
		myLibrary.Pool.Close()
	}
}

// Save writes the item, each price bar and the fundamental snapshot of an
// observation. Records that already exist are skipped. A failed bar does not
// stop the remaining bars; all failures are returned together.
func (myLibrary *Library) Save(ctx context.Context, obs *data.Observation) error {
	if myLibrary.Pool == nil {
		return ErrNoDatabase
	}

	logger := zerolog.Ctx(ctx).With().Str("Ticker", obs.Ticker).Logger()
	var errs []error

	if obs.Item != nil {
		result, err := obs.Item.SaveDB(ctx, myLibrary.ItemTable, myLibrary.Pool)
		switch result {
		case data.ResultInserted:
			logger.Info().Msgf("Inserted Item data for %s", obs.Ticker)
		case data.ResultSkippedDuplicate:
			logger.Info().Msgf("Item data for %s already exists, skipping", obs.Ticker)
		default:
			logger.Error().Err(err).Msg("save item failed")
			errs = append(errs, fmt.Errorf("item: %w", err))
		}
	}

	inserted, skipped := 0, 0
	for _, bar := range obs.Bars {
		result, err := bar.SaveDB(ctx, myLibrary.OHLCVTable, myLibrary.Pool)
		switch result {
		case data.ResultInserted:
			inserted++
		case data.ResultSkippedDuplicate:
			skipped++
			logger.Debug().Time("Date", time.Unix(bar.Timestamp, 0)).Msg("bar already exists, skipping")
		default:
			logger.Error().Err(err).Int64("Timestamp", bar.Timestamp).Msg("save ohlcv failed")
			errs = append(errs, fmt.Errorf("ohlcv %d: %w", bar.Timestamp, err))
		}
	}

	if len(obs.Bars) > 0 {
		logger.Info().Int("Inserted", inserted).Int("Skipped", skipped).Msgf("Saved OHLCV data for %s", obs.Ticker)
	}

	if obs.Fundamental != nil {
		result, err := obs.Fundamental.SaveDB(ctx, myLibrary.FundamentalTable, myLibrary.Pool)
		switch result {
		case data.ResultInserted:
			logger.Info().Msgf("Inserted Fundamental data for %s", obs.Ticker)
		case data.ResultSkippedDuplicate:
			logger.Info().Msgf("Fundamental data for %s already exists, skipping", obs.Ticker)
		default:
			logger.Error().Err(err).Msg("save fundamental failed")
			errs = append(errs, fmt.Errorf("fundamental: %w", err))
		}
	}

	return errors.Join(errs...)
}
