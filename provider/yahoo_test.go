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
package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/guregu/null/v6"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/import-nasdaq/provider"
)

const quoteSummaryAAPL = `{"quoteSummary":{"result":[{
  "quoteType":{"exchange":"NMS","quoteType":"EQUITY","symbol":"AAPL","shortName":"Apple Inc.","timeZoneFullName":"America/New_York"},
  "assetProfile":{"country":"United States","sector":"Technology","sectorKey":"technology","companyOfficers":[{"name":"Tim Cook"}],"fullTimeEmployees":161000},
  "summaryDetail":{"marketCap":{"raw":2950000000000,"fmt":"2.95T"},"trailingPE":{"raw":30.1,"fmt":"30.10"},"dividendRate":{"raw":0.96,"fmt":"0.96"},"exDividendDate":{"raw":1699574400,"fmt":"2023-11-10"},"regularMarketVolume":{"raw":53000000,"fmt":"53M"},"fiveYearAvgDividendYield":{}},
  "price":{"shortName":"Apple Inc. (price)","symbol":"AAPL","regularMarketVolume":{"raw":1,"fmt":"1"}},
  "defaultKeyStatistics":{"sharesOutstanding":{"raw":15552799744},"mostRecentQuarter":{"raw":1696032000},"bookValue":{"raw":3.997},"netIncomeToCommon":{"raw":96995000320}},
  "financialData":{"currentPrice":{"raw":189.71},"totalRevenue":{"raw":383285002240},"totalDebt":{"raw":123930001408},"operatingCashflow":{"raw":110543003648}}
}],"error":null}}`

const chartAAPL = `{"chart":{"result":[{
  "meta":{"symbol":"AAPL","exchangeTimezoneName":"America/New_York"},
  "timestamp":[1699972200,1700058600,1700145000],
  "indicators":{"quote":[{
    "open":[187.7,189.57,null],
    "high":[188.11,190.96,null],
    "low":[186.3,188.65,null],
    "close":[187.44,188.01,null],
    "volume":[60108400,0,null]
  }]}
}],"error":null}}`

var _ = Describe("Yahoo", func() {
	var (
		server     *httptest.Server
		yahoo      *provider.Yahoo
		crumbCalls int
	)

	BeforeEach(func() {
		crumbCalls = 0
		mux := http.NewServeMux()
		mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
			w.WriteHeader(http.StatusNotFound)
		})
		mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
			crumbCalls++
			if _, err := r.Cookie("A3"); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte("abc123"))
		})
		mux.HandleFunc("/v10/finance/quoteSummary/AAPL", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("crumb") != "abc123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(quoteSummaryAAPL))
		})
		mux.HandleFunc("/v10/finance/quoteSummary/BAD1", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found for symbol: BAD1"}}}`))
		})
		mux.HandleFunc("/v8/finance/chart/AAPL", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("range") != "1mo" || r.URL.Query().Get("interval") != "1d" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(chartAAPL))
		})
		mux.HandleFunc("/v8/finance/chart/BAD1", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
		})

		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)

		yahoo = provider.NewYahoo(server.URL)
		yahoo.CookieURL = server.URL + "/cookie"
	})

	Context("info", func() {
		It("flattens the quote summary modules", func() {
			info, err := yahoo.Info(context.Background(), "AAPL")
			Expect(err).NotTo(HaveOccurred())

			Expect(info.Str("symbol")).To(Equal(null.StringFrom("AAPL")))
			Expect(info.Str("shortName")).To(Equal(null.StringFrom("Apple Inc.")))
			Expect(info.Str("country")).To(Equal(null.StringFrom("United States")))
			Expect(info.Int("marketCap")).To(Equal(null.IntFrom(2950000000000)))
			Expect(info.Int("regularMarketVolume")).To(Equal(null.IntFrom(53000000)))
			Expect(info.Int("mostRecentQuarter")).To(Equal(null.IntFrom(1696032000)))
			Expect(info.Float("currentPrice")).To(Equal(null.FloatFrom(189.71)))
			Expect(info).NotTo(HaveKey("companyOfficers"))
			Expect(info).NotTo(HaveKey("fiveYearAvgDividendYield"))
		})

		It("reuses the session crumb", func() {
			_, err := yahoo.Info(context.Background(), "AAPL")
			Expect(err).NotTo(HaveOccurred())
			_, err = yahoo.History(context.Background(), "AAPL")
			Expect(err).NotTo(HaveOccurred())
			Expect(crumbCalls).To(Equal(1))
		})

		It("reports unknown symbols", func() {
			_, err := yahoo.Info(context.Background(), "BAD1")
			Expect(err).To(MatchError(provider.ErrNoData))
		})
	})

	Context("history", func() {
		It("returns daily bars at exchange midnight", func() {
			quotes, err := yahoo.History(context.Background(), "AAPL")
			Expect(err).NotTo(HaveOccurred())
			Expect(quotes).To(HaveLen(2))

			nyc, err := time.LoadLocation("America/New_York")
			Expect(err).NotTo(HaveOccurred())
			Expect(quotes[0].Date).To(Equal(time.Date(2023, 11, 14, 0, 0, 0, 0, nyc)))
			Expect(quotes[0].Date.Unix()).To(Equal(int64(1699938000)))
			Expect(quotes[0].Close).To(Equal(null.FloatFrom(187.44)))
			Expect(quotes[0].Volume).To(Equal(null.IntFrom(60108400)))
			Expect(quotes[1].Volume).To(Equal(null.IntFrom(0)))
		})

		It("reports symbols without history", func() {
			_, err := yahoo.History(context.Background(), "BAD1")
			Expect(err).To(MatchError(provider.ErrNoData))
		})
	})

	It("fails when no crumb can be obtained", func() {
		yahoo.CookieURL = server.URL + "/missing"
		_, err := yahoo.Info(context.Background(), "AAPL")
		Expect(err).To(MatchError(provider.ErrNoCrumb))
	})
})
