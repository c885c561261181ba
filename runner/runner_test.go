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
package runner_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/import-nasdaq/data"
	"github.com/penny-vault/import-nasdaq/provider"
	"github.com/penny-vault/import-nasdaq/runner"
)

var errUpstream = errors.New("upstream unavailable")

type fakeFetcher struct{}

func (fakeFetcher) Info(ctx context.Context, symbol string) (data.Info, error) {
	switch symbol {
	case "BAD1":
		return nil, errUpstream
	case "PANIC":
		panic("unexpected payload")
	}
	return data.Info{"symbol": symbol, "shortName": symbol + " Corp", "quoteType": "EQUITY"}, nil
}

func (fakeFetcher) History(ctx context.Context, symbol string) ([]*data.Quote, error) {
	switch symbol {
	case "NEWCO":
		return nil, fmt.Errorf("%w: empty chart for %s", provider.ErrNoData, symbol)
	case "FLAKY":
		return nil, errUpstream
	}
	return []*data.Quote{
		{Date: time.Unix(1699938000, 0), Close: null.FloatFrom(10), Volume: null.IntFrom(5)},
	}, nil
}

type memorySink struct {
	saved []*data.Observation
}

func (sink *memorySink) Save(ctx context.Context, obs *data.Observation) error {
	sink.saved = append(sink.saved, obs)
	return nil
}

func (sink *memorySink) codes() []string {
	codes := make([]string, len(sink.saved))
	for idx, obs := range sink.saved {
		codes[idx] = obs.Item.Code
	}
	return codes
}

// barlessSink records observations like a text file sink and fails if
// price bars are ever handed to it
type barlessSink struct {
	memorySink
}

func (sink *barlessSink) SkipsBars() bool {
	return true
}

func (sink *barlessSink) Save(ctx context.Context, obs *data.Observation) error {
	if len(obs.Bars) > 0 {
		return errors.New("unexpected price bars")
	}
	return sink.memorySink.Save(ctx, obs)
}

type historyCounter struct {
	fakeFetcher
	calls int
}

func (fetcher *historyCounter) History(ctx context.Context, symbol string) ([]*data.Quote, error) {
	fetcher.calls++
	return fetcher.fakeFetcher.History(ctx, symbol)
}

type staticSource []string

func (source staticSource) Tickers(ctx context.Context) []string {
	return source
}

type figiEnricher struct {
	prepared []string
}

func (enricher *figiEnricher) Prepare(ctx context.Context, tickers []string) {
	enricher.prepared = tickers
}

func (enricher *figiEnricher) Enrich(item *data.Item) {
	item.CompositeFigi = null.StringFrom("BBG-" + item.Code)
}

var _ = Describe("Runner", func() {
	var (
		sink     *memorySink
		myRunner *runner.Runner
		ctx      context.Context
		listing  = []string{"GOOD1", "BAD1", "GOOD2"}
	)

	BeforeEach(func() {
		sink = &memorySink{}
		myRunner = &runner.Runner{
			Source:  staticSource(listing),
			Fetcher: fakeFetcher{},
			Sink:    sink,
		}
		ctx = context.Background()
	})

	It("continues after a ticker fails", func() {
		summary := myRunner.Run(ctx, nil)

		Expect(sink.codes()).To(Equal([]string{"GOOD1", "GOOD2"}))
		Expect(summary.NumTickers).To(Equal(3))
		Expect(summary.NumSucceeded).To(Equal(2))
		Expect(summary.NumFailed).To(Equal(1))
		Expect(summary.EndTime).To(BeTemporally(">=", summary.StartTime))
	})

	It("recovers from a panic while processing a ticker", func() {
		summary := myRunner.Run(ctx, []string{"PANIC", "GOOD2"})

		Expect(sink.codes()).To(Equal([]string{"GOOD2"}))
		Expect(summary.NumFailed).To(Equal(1))
	})

	It("uses an explicit ticker list instead of the source", func() {
		myRunner.Run(ctx, []string{"MSFT"})
		Expect(sink.codes()).To(Equal([]string{"MSFT"}))
	})

	It("stops after the configured limit", func() {
		myRunner.Limit = 1
		summary := myRunner.Run(ctx, nil)

		Expect(summary.NumTickers).To(Equal(1))
		Expect(sink.codes()).To(Equal([]string{"GOOD1"}))
	})

	It("does nothing when the listing is empty", func() {
		myRunner.Source = staticSource{}
		summary := myRunner.Run(ctx, nil)

		Expect(summary.NumTickers).To(Equal(0))
		Expect(sink.saved).To(BeEmpty())
	})

	It("enriches items before saving", func() {
		enricher := &figiEnricher{}
		myRunner.Enricher = enricher
		myRunner.Run(ctx, nil)

		Expect(enricher.prepared).To(Equal(listing))
		Expect(sink.saved[0].Item.CompositeFigi).To(Equal(null.StringFrom("BBG-GOOD1")))
	})

	It("stores price bars under the item code", func() {
		myRunner.Run(ctx, []string{"GOOD1"})
		Expect(sink.saved[0].Bars).To(HaveLen(1))
		Expect(sink.saved[0].Bars[0].Code).To(Equal("GOOD1"))
		Expect(sink.saved[0].Bars[0].TradingVal).To(Equal(null.FloatFrom(50)))
	})

	It("saves the item and fundamental when no price history exists", func() {
		summary := myRunner.Run(ctx, []string{"NEWCO"})

		Expect(summary.NumSucceeded).To(Equal(1))
		Expect(summary.NumFailed).To(Equal(0))
		Expect(sink.saved).To(HaveLen(1))
		Expect(sink.saved[0].Item.Code).To(Equal("NEWCO"))
		Expect(sink.saved[0].Fundamental).NotTo(BeNil())
		Expect(sink.saved[0].Bars).To(BeEmpty())
	})

	It("fails the ticker on other history errors", func() {
		summary := myRunner.Run(ctx, []string{"FLAKY", "GOOD1"})

		Expect(summary.NumFailed).To(Equal(1))
		Expect(sink.codes()).To(Equal([]string{"GOOD1"}))
	})

	It("does not request history for sinks without bars", func() {
		fetcher := &historyCounter{}
		textSink := &barlessSink{}
		myRunner.Fetcher = fetcher
		myRunner.Sink = textSink

		summary := myRunner.Run(ctx, []string{"GOOD1", "FLAKY"})

		Expect(fetcher.calls).To(Equal(0))
		Expect(summary.NumFailed).To(Equal(0))
		Expect(textSink.codes()).To(Equal([]string{"GOOD1", "FLAKY"}))
	})
})
