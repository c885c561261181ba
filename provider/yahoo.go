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
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/penny-vault/import-nasdaq/data"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	YahooBaseURL   = "https://query2.finance.yahoo.com"
	YahooCookieURL = "https://fc.yahoo.com"

	yahooUserAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	defaultTimezone = "America/New_York"
)

// quoteSummary modules merged into the info record; earlier modules win
// when a key is reported more than once
var infoModules = []string{
	"quoteType",
	"assetProfile",
	"summaryDetail",
	"price",
	"defaultKeyStatistics",
	"financialData",
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResponse struct {
	Chart struct {
		Result []*chartResult `json:"result"`
		Error  *yahooError    `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Yahoo fetches ticker data from the Yahoo Finance query API. A session
// cookie and crumb are obtained on first use and reused afterwards.
type Yahoo struct {
	BaseURL   string
	CookieURL string

	client *resty.Client
	crumb  string
}

func NewYahoo(baseURL string) *Yahoo {
	if baseURL == "" {
		baseURL = YahooBaseURL
	}

	client := resty.New().SetHeader("User-Agent", yahooUserAgent)
	client.JSONUnmarshal = json.Unmarshal

	return &Yahoo{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		CookieURL: YahooCookieURL,
		client:    client,
	}
}

// Info returns the flattened quoteSummary record for symbol
func (yahoo *Yahoo) Info(ctx context.Context, symbol string) (data.Info, error) {
	logger := zerolog.Ctx(ctx).With().Str("Ticker", symbol).Logger()

	crumb, err := yahoo.session(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s", yahoo.BaseURL, symbol)
	resp, err := yahoo.client.R().
		SetContext(ctx).
		SetQueryParam("modules", strings.Join(infoModules, ",")).
		SetQueryParam("crumb", crumb).
		Get(reqURL)
	if err != nil {
		logger.Error().Err(err).Msg("resty returned an error when querying quoteSummary")
		return nil, err
	}

	body := resp.Body()
	if errDesc := gjson.GetBytes(body, "quoteSummary.error.description"); errDesc.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrNoData, errDesc.String())
	}

	if resp.StatusCode() >= 300 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("Url", reqURL).Msg("received an invalid status code when querying quoteSummary")
		return nil, fmt.Errorf("%w (%d): %s", ErrInvalidStatusCode, resp.StatusCode(), string(body))
	}

	result := gjson.GetBytes(body, "quoteSummary.result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("%w: empty quoteSummary for %s", ErrNoData, symbol)
	}

	return flattenModules(result), nil
}

// History returns the daily bars of the last month for symbol. Bar dates are
// midnight in the exchange timezone; bars without any price are dropped.
func (yahoo *Yahoo) History(ctx context.Context, symbol string) ([]*data.Quote, error) {
	logger := zerolog.Ctx(ctx).With().Str("Ticker", symbol).Logger()

	crumb, err := yahoo.session(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s", yahoo.BaseURL, symbol)
	respContent := chartResponse{}
	resp, err := yahoo.client.R().
		SetContext(ctx).
		SetQueryParam("range", "1mo").
		SetQueryParam("interval", "1d").
		SetQueryParam("includePrePost", "false").
		SetQueryParam("events", "div,splits").
		SetQueryParam("crumb", crumb).
		ForceContentType("application/json").
		SetResult(&respContent).
		SetError(&respContent).
		Get(reqURL)
	if err != nil {
		logger.Error().Err(err).Msg("resty returned an error when querying chart")
		return nil, err
	}

	if respContent.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, respContent.Chart.Error.Description)
	}

	if resp.StatusCode() >= 300 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("Url", reqURL).Msg("received an invalid status code when querying chart")
		return nil, fmt.Errorf("%w (%d): %s", ErrInvalidStatusCode, resp.StatusCode(), string(resp.Body()))
	}

	if len(respContent.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty chart for %s", ErrNoData, symbol)
	}

	return respContent.Chart.Result[0].quotes(), nil
}

// session returns the crumb for the current session, creating the session if
// required
func (yahoo *Yahoo) session(ctx context.Context) (string, error) {
	if yahoo.crumb != "" {
		return yahoo.crumb, nil
	}

	// the cookie endpoint answers with an error status but sets the session cookie
	if _, err := yahoo.client.R().SetContext(ctx).Get(yahoo.CookieURL); err != nil {
		return "", fmt.Errorf("get session cookie: %w", err)
	}

	resp, err := yahoo.client.R().SetContext(ctx).Get(yahoo.BaseURL + "/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("get crumb: %w", err)
	}

	crumb := strings.TrimSpace(resp.String())
	if resp.StatusCode() != http.StatusOK || crumb == "" || strings.Contains(crumb, "<") {
		return "", fmt.Errorf("%w (%d)", ErrNoCrumb, resp.StatusCode())
	}

	zerolog.Ctx(ctx).Debug().Str("Crumb", crumb).Msg("established yahoo session")
	yahoo.crumb = crumb
	return crumb, nil
}

// flattenModules merges the quoteSummary modules into a single record.
// Formatted numbers ({"raw": 1, "fmt": "1"}) collapse to their raw value and
// empty or nested objects are dropped.
func flattenModules(result gjson.Result) data.Info {
	info := make(data.Info)

	for _, module := range infoModules {
		result.Get(module).ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if _, ok := info[name]; ok {
				return true
			}

			if val, ok := scalar(value); ok {
				info[name] = val
			}
			return true
		})
	}

	return info
}

func scalar(value gjson.Result) (any, bool) {
	if value.IsObject() {
		raw := value.Get("raw")
		if !raw.Exists() {
			return nil, false
		}
		value = raw
	}

	switch value.Type {
	case gjson.String:
		return value.String(), true
	case gjson.Number:
		return value.Float(), true
	case gjson.True, gjson.False:
		return value.Bool(), true
	default:
		return nil, false
	}
}

func (result *chartResult) quotes() []*data.Quote {
	loc, err := time.LoadLocation(result.Meta.ExchangeTimezoneName)
	if err != nil || result.Meta.ExchangeTimezoneName == "" {
		if loc, err = time.LoadLocation(defaultTimezone); err != nil {
			loc = time.UTC
		}
	}

	quotes := make([]*data.Quote, 0, len(result.Timestamp))
	if len(result.Indicators.Quote) == 0 {
		return quotes
	}
	indicator := result.Indicators.Quote[0]

	for idx, ts := range result.Timestamp {
		quote := &data.Quote{
			Open:  floatAt(indicator.Open, idx),
			High:  floatAt(indicator.High, idx),
			Low:   floatAt(indicator.Low, idx),
			Close: floatAt(indicator.Close, idx),
		}

		if !quote.Open.Valid && !quote.High.Valid && !quote.Low.Valid && !quote.Close.Valid {
			continue
		}

		if volume := floatAt(indicator.Volume, idx); volume.Valid {
			quote.Volume = null.IntFrom(int64(volume.Float64))
		}

		local := time.Unix(ts, 0).In(loc)
		quote.Date = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		quotes = append(quotes, quote)
	}

	return quotes
}

func floatAt(vals []*float64, idx int) null.Float {
	if idx >= len(vals) || vals[idx] == nil {
		return null.Float{}
	}
	return null.FloatFrom(*vals[idx])
}
