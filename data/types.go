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
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

const (
	ItemTable        = "item"
	OHLCVTable       = "ohlcv"
	FundamentalTable = "fundamental"

	// DailyWindow is the number of minutes aggregated by a daily bar
	DailyWindow = 1440
)

type RunSummary struct {
	RunID        uuid.UUID
	StartTime    time.Time
	EndTime      time.Time
	NumTickers   int
	NumSucceeded int
	NumFailed    int
}

// Observation holds every record produced by a single upstream fetch for a ticker
type Observation struct {
	Ticker      string
	Item        *Item
	Bars        []*Ohlcv
	Fundamental *Fundamental
}

// SaveResult is the outcome of writing a single record to the database
type SaveResult int

const (
	ResultFailed SaveResult = iota
	ResultInserted
	ResultSkippedDuplicate
)

func (result SaveResult) String() string {
	switch result {
	case ResultInserted:
		return "inserted"
	case ResultSkippedDuplicate:
		return "skipped-duplicate"
	default:
		return "failed"
	}
}

// Beginner is satisfied by *pgxpool.Pool, *pgx.Conn and pgxmock pools
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// inTx runs fn inside a transaction; the transaction is committed when fn
// succeeds and rolled back otherwise
func inTx(ctx context.Context, db Beginner, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Error().Err(rbErr).Msg("error rollingback tx")
		}
		return err
	}

	return tx.Commit(ctx)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}
