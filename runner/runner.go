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
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/import-nasdaq/data"
	"github.com/penny-vault/import-nasdaq/provider"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	ErrPanic     = errors.New("recovered from panic")
	ErrNoFetcher = errors.New("runner has no fetcher")
	ErrNoSink    = errors.New("runner has no sink")
)

// Source lists the tickers to import
type Source interface {
	Tickers(ctx context.Context) []string
}

// Sink persists the records of a single ticker
type Sink interface {
	Save(ctx context.Context, obs *data.Observation) error
}

// BarlessSink is implemented by sinks that do not store price bars; the
// runner does not request history for them
type BarlessSink interface {
	SkipsBars() bool
}

// Enricher adds identifiers to items before they are saved. Prepare is
// called once with the full ticker list before any ticker is fetched.
type Enricher interface {
	Prepare(ctx context.Context, tickers []string)
	Enrich(item *data.Item)
}

// Runner drives the import one ticker at a time. A failure while fetching,
// mapping or saving a ticker is logged and the run moves on to the next
// ticker.
type Runner struct {
	Source   Source
	Fetcher  provider.Fetcher
	Sink     Sink
	Enricher Enricher

	// Limit restricts the run to the first Limit tickers; 0 means no limit
	Limit int

	// ProgressInterval is the minimum time between progress log messages
	ProgressInterval time.Duration
}

// Run imports every ticker in tickers. If tickers is empty the list is
// requested from the runner's Source.
func (runner *Runner) Run(ctx context.Context, tickers []string) data.RunSummary {
	summary := data.RunSummary{
		RunID:     uuid.New(),
		StartTime: time.Now(),
	}

	logger := log.With().Str("RunID", summary.RunID.String()).Logger()
	ctx = logger.WithContext(ctx)

	if len(tickers) == 0 && runner.Source != nil {
		tickers = runner.Source.Tickers(ctx)
	}

	logger.Info().Int("NumTickers", len(tickers)).Msgf("Total NASDAQ tickers: %d", len(tickers))

	if runner.Limit > 0 && len(tickers) > runner.Limit {
		tickers = tickers[:runner.Limit]
		logger.Info().Int("Limit", runner.Limit).Msg("limiting run to the first tickers of the listing")
	}

	if runner.Enricher != nil {
		runner.Enricher.Prepare(ctx, tickers)
	}

	interval := runner.ProgressInterval
	if interval == 0 {
		interval = time.Minute
	}
	sometimes := rate.Sometimes{Interval: interval}

	for idx, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Int("Remaining", len(tickers)-idx).Msg("run cancelled")
			break
		}

		summary.NumTickers++
		logger.Info().Str("Ticker", ticker).Msgf("Fetching data for %s...", ticker)

		if err := runner.processTicker(ctx, ticker); err != nil {
			summary.NumFailed++
			logger.Error().Err(err).Str("Ticker", ticker).Msgf("Error processing %s", ticker)
		} else {
			summary.NumSucceeded++
		}

		sometimes.Do(func() {
			elapsed := time.Since(summary.StartTime)
			perTicker := elapsed / time.Duration(idx+1)
			timeLeft := perTicker * time.Duration(len(tickers)-idx-1)
			logger.Info().Int("Completed", idx+1).Int("NumTickersLeft", len(tickers)-idx-1).
				Str("SinceStarted", elapsed.Round(time.Second).String()).
				Str("PerTicker", perTicker.Round(time.Millisecond).String()).
				Str("ETA", timeLeft.Round(time.Second).String()).Msg("import progress")
		})
	}

	summary.EndTime = time.Now()
	return summary
}

// processTicker fetches, maps and saves a single ticker. Panics raised along
// the way are returned as errors so that the run continues.
func (runner *Runner) processTicker(ctx context.Context, ticker string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	if runner.Fetcher == nil {
		return ErrNoFetcher
	}

	if runner.Sink == nil {
		return ErrNoSink
	}

	info, err := runner.Fetcher.Info(ctx, ticker)
	if err != nil {
		return fmt.Errorf("fetch info: %w", err)
	}

	var quotes []*data.Quote
	if barless, ok := runner.Sink.(BarlessSink); !ok || !barless.SkipsBars() {
		quotes, err = runner.Fetcher.History(ctx, ticker)
		switch {
		case errors.Is(err, provider.ErrNoData):
			zerolog.Ctx(ctx).Warn().Err(err).Str("Ticker", ticker).Msg("no price history available")
			quotes = nil
		case err != nil:
			return fmt.Errorf("fetch history: %w", err)
		}
	}

	obs := data.NewObservation(ticker, info, quotes)
	if runner.Enricher != nil && obs.Item != nil {
		runner.Enricher.Enrich(obs.Item)
	}

	zerolog.Ctx(ctx).Debug().Object("Item", obs.Item).Int("NumBars", len(obs.Bars)).Msg("mapped ticker")

	return runner.Sink.Save(ctx, obs)
}
