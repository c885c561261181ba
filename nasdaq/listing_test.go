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
package nasdaq_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/import-nasdaq/nasdaq"
)

const listingFile = `Symbol|Security Name|Market Category|Test Issue|Financial Status|Round Lot Size|ETF|NextShares
AACG|ATA Creativity Global - American Depositary Shares, each representing two common shares|G|N|N|100|N|N
AAPL|Apple Inc. - Common Stock|Q|N|N|100|N|N
ZJZZT|NASDAQ TEST STOCK|Q|Y|N|100|N|N
||||||||
MSFT|Microsoft Corporation - Common Stock|Q|N|N|100|N|N
File Creation Time: 1119202418:01|||||||
`

var _ = Describe("Listing", func() {
	It("extracts symbols in file order", func() {
		tickers, err := nasdaq.ParseListing(strings.NewReader(listingFile))
		Expect(err).NotTo(HaveOccurred())
		Expect(tickers).To(Equal([]string{"AACG", "AAPL", "ZJZZT", "MSFT"}))
	})

	It("handles an empty listing", func() {
		tickers, err := nasdaq.ParseListing(strings.NewReader("Symbol|Security Name\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(tickers).To(BeEmpty())
	})

	Context("downloading", func() {
		var (
			server *httptest.Server
			status int
		)

		BeforeEach(func() {
			status = http.StatusOK
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(listingFile))
				}
			}))
			DeferCleanup(server.Close)
		})

		It("fetches the listing over http", func() {
			listing := nasdaq.NewListing(server.URL + "/nasdaqlisted.txt")
			Expect(listing.Tickers(context.Background())).To(Equal([]string{"AACG", "AAPL", "ZJZZT", "MSFT"}))
		})

		It("can exclude test issues", func() {
			listing := nasdaq.NewListing(server.URL + "/nasdaqlisted.txt")
			listing.SkipTestIssues = true
			Expect(listing.Tickers(context.Background())).To(Equal([]string{"AACG", "AAPL", "MSFT"}))
		})

		It("returns an empty list when the server fails", func() {
			status = http.StatusServiceUnavailable
			listing := nasdaq.NewListing(server.URL + "/nasdaqlisted.txt")
			tickers := listing.Tickers(context.Background())
			Expect(tickers).NotTo(BeNil())
			Expect(tickers).To(BeEmpty())
		})

		It("returns an empty list for an unsupported scheme", func() {
			listing := nasdaq.NewListing("gopher://example.com/nasdaqlisted.txt")
			Expect(listing.Tickers(context.Background())).To(BeEmpty())
		})
	})
})
