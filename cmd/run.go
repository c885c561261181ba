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
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hako/durafmt"
	"github.com/penny-vault/import-nasdaq/backblaze"
	"github.com/penny-vault/import-nasdaq/data"
	"github.com/penny-vault/import-nasdaq/figi"
	"github.com/penny-vault/import-nasdaq/healthcheck"
	"github.com/penny-vault/import-nasdaq/library"
	"github.com/penny-vault/import-nasdaq/nasdaq"
	"github.com/penny-vault/import-nasdaq/provider"
	"github.com/penny-vault/import-nasdaq/runner"
	"github.com/penny-vault/import-nasdaq/textfile"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	sinkDB   = "db"
	sinkFile = "file"
)

var (
	ErrUnknownSink = errors.New("unknown sink")
	ErrNoTickers   = errors.New("no tickers were processed")
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [ticker...]",
	Short: "Import NASDAQ tickers",
	Long: `The run sub-command downloads the NASDAQ listing and imports the profile,
fundamentals and one month of daily prices for every ticker. If tickers are
provided as arguments only those tickers are imported and the listing is not
downloaded.

Records are saved to the configured PostgreSQL database (--sink db) or
appended to a text file (--sink file).`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = log.Logger.WithContext(ctx)

		check := healthcheck.New(viper.GetString("healthchecks.check_id"))
		if err := check.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("could not signal start to healthchecks")
		}

		fail := func(err error, msg string) {
			if pingErr := check.Fail(ctx, fmt.Sprintf("%s: %s", msg, err)); pingErr != nil {
				log.Warn().Err(pingErr).Msg("could not signal failure to healthchecks")
			}
			log.Fatal().Err(err).Msg(msg)
		}

		listing := nasdaq.NewListing(viper.GetString("nasdaq.url"))
		listing.SkipTestIssues = viper.GetBool("nasdaq.skip_test_issues")

		myRunner := &runner.Runner{
			Source:  listing,
			Fetcher: provider.NewYahoo(viper.GetString("yahoo.base_url")),
			Limit:   viper.GetInt("run.limit"),
		}

		sink := viper.GetString("run.sink")
		outputFile := viper.GetString("output.file")

		switch sink {
		case sinkDB:
			myLibrary := library.New(libraryConfig())
			if err := myLibrary.Connect(ctx); err != nil {
				fail(err, "could not connect to database")
			}
			defer myLibrary.Close()
			myRunner.Sink = myLibrary

			if apiKey := viper.GetString("openfigi.apikey"); apiKey != "" {
				cache := figi.NewCache()
				if err := cache.LoadFromDB(ctx, myLibrary.Pool, myLibrary.ItemTable); err != nil {
					log.Warn().Err(err).Msg("could not load figi cache; all tickers will be looked up")
				}
				myRunner.Enricher = figi.New(apiKey, cache)
			}
		case sinkFile:
			myRunner.Sink = textfile.New(outputFile)
		default:
			fail(fmt.Errorf("%w: %s", ErrUnknownSink, sink), "invalid --sink")
		}

		tickers := args
		if len(tickers) == 0 {
			tickers = viper.GetStringSlice("run.tickers")
		}

		summary := myRunner.Run(ctx, tickers)
		logSummary(summary)

		if summary.NumTickers == 0 {
			fail(ErrNoTickers, "import failed")
		}

		if viper.GetBool("run.upload") {
			if sink != sinkFile {
				log.Warn().Str("Sink", sink).Msg("--upload only applies to the file sink")
			} else if err := backblaze.Upload(backblazeConfig(), outputFile); err != nil {
				fail(err, "upload to backblaze failed")
			}
		}

		msg := fmt.Sprintf("run %s: %d tickers, %d succeeded, %d failed", summary.RunID, summary.NumTickers, summary.NumSucceeded, summary.NumFailed)
		if err := check.Success(ctx, msg); err != nil {
			log.Warn().Err(err).Msg("could not signal success to healthchecks")
		}
	},
}

func logSummary(summary data.RunSummary) {
	runTime := summary.EndTime.Sub(summary.StartTime)
	log.Info().
		Str("RunID", summary.RunID.String()).
		Str("RunTime", durafmt.Parse(runTime).LimitFirstN(2).String()).
		Int("NumTickers", summary.NumTickers).
		Int("NumSucceeded", summary.NumSucceeded).
		Int("NumFailed", summary.NumFailed).
		Msg("import finished")
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("sink", sinkDB, "where to save records: db or file")
	runCmd.Flags().StringP("output", "o", textfile.DefaultFilename, "output file used by the file sink")
	runCmd.Flags().Int("limit", 0, "only import the first N tickers of the listing (0 imports all)")
	runCmd.Flags().StringSlice("tickers", nil, "comma separated list of tickers to import instead of the listing")
	runCmd.Flags().Bool("upload", false, "upload the output file to backblaze after the run")

	for key, flag := range map[string]string{
		"run.sink":    "sink",
		"output.file": "output",
		"run.limit":   "limit",
		"run.tickers": "tickers",
		"run.upload":  "upload",
	} {
		if err := viper.BindPFlag(key, runCmd.Flags().Lookup(flag)); err != nil {
			log.Panic().Err(err).Str("Flag", flag).Msg("BindPFlag failed")
		}
	}
}
