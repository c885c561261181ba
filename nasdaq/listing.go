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
package nasdaq

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
	"github.com/jlaffaye/ftp"
	"github.com/rs/zerolog"
)

const (
	DefaultURL = "ftp://ftp.nasdaqtrader.com/SymbolDirectory/nasdaqlisted.txt"

	symbolHeader = "Symbol"
	footerPrefix = "File Creation Time"
)

var (
	ErrInvalidStatusCode = errors.New("invalid status code")
	ErrUnsupportedScheme = errors.New("unsupported listing url scheme")
)

type listingRow struct {
	Symbol         string `csv:"Symbol"`
	SecurityName   string `csv:"Security Name"`
	MarketCategory string `csv:"Market Category"`
	TestIssue      string `csv:"Test Issue"`
	ETF            string `csv:"ETF"`
}

// Listing downloads the NASDAQ symbol directory
type Listing struct {
	URL            string
	SkipTestIssues bool

	client *resty.Client
}

func NewListing(listingURL string) *Listing {
	if listingURL == "" {
		listingURL = DefaultURL
	}

	return &Listing{
		URL:    listingURL,
		client: resty.New(),
	}
}

// Tickers returns the symbols in the listing in file order. Any download or
// parse failure is logged and results in an empty list.
func (listing *Listing) Tickers(ctx context.Context) []string {
	logger := zerolog.Ctx(ctx).With().Str("Url", listing.URL).Logger()

	body, err := listing.open(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error fetching NASDAQ tickers")
		return []string{}
	}
	defer body.Close()

	tickers, err := parse(body, listing.SkipTestIssues)
	if err != nil {
		logger.Error().Err(err).Msg("Error fetching NASDAQ tickers")
		return []string{}
	}

	logger.Debug().Int("NumTickers", len(tickers)).Msg("downloaded NASDAQ listing")
	return tickers
}

// ParseListing extracts the Symbol column from a pipe delimited NASDAQ
// listing. Empty symbols, repeated header values and the trailing file
// creation time row are dropped.
func ParseListing(reader io.Reader) ([]string, error) {
	return parse(reader, false)
}

func parse(reader io.Reader, skipTestIssues bool) ([]string, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = '|'
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	rows := make([]*listingRow, 0, 5000)
	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(rows))
	for _, row := range rows {
		symbol := strings.TrimSpace(row.Symbol)
		switch {
		case symbol == "", symbol == symbolHeader:
			continue
		case strings.HasPrefix(symbol, footerPrefix):
			continue
		case skipTestIssues && row.TestIssue == "Y":
			continue
		}

		tickers = append(tickers, symbol)
	}

	return tickers, nil
}

func (listing *Listing) open(ctx context.Context) (io.ReadCloser, error) {
	parsed, err := url.Parse(listing.URL)
	if err != nil {
		return nil, err
	}

	switch parsed.Scheme {
	case "ftp":
		return openFTP(ctx, parsed)
	case "http", "https":
		return listing.openHTTP(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, parsed.Scheme)
	}
}

func (listing *Listing) openHTTP(ctx context.Context) (io.ReadCloser, error) {
	resp, err := listing.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(listing.URL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() >= 300 {
		resp.RawBody().Close()
		return nil, fmt.Errorf("%w (%d): %s", ErrInvalidStatusCode, resp.StatusCode(), listing.URL)
	}

	return resp.RawBody(), nil
}

// ftpFile closes the control connection along with the transfer
type ftpFile struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (file *ftpFile) Close() error {
	err := file.Response.Close()
	if quitErr := file.conn.Quit(); err == nil {
		err = quitErr
	}
	return err
}

func openFTP(ctx context.Context, parsed *url.URL) (io.ReadCloser, error) {
	host := parsed.Host
	if parsed.Port() == "" {
		host += ":21"
	}

	conn, err := ftp.Dial(host, ftp.DialWithContext(ctx))
	if err != nil {
		return nil, err
	}

	user, password := "anonymous", "anonymous"
	if parsed.User != nil {
		user = parsed.User.Username()
		if pass, ok := parsed.User.Password(); ok {
			password = pass
		}
	}

	if err := conn.Login(user, password); err != nil {
		conn.Quit()
		return nil, err
	}

	resp, err := conn.Retr(parsed.Path)
	if err != nil {
		conn.Quit()
		return nil, err
	}

	return &ftpFile{Response: resp, conn: conn}, nil
}
