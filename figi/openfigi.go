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
package figi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/penny-vault/import-nasdaq/data"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	ErrInvalidStatusCode = errors.New("invalid status code received")
)

const (
	OpenFigiMappingURL = "https://api.openfigi.com/v3/mapping"

	maxJobsPerRequest = 100
)

type MappingResponse struct {
	Data    []*OpenFigiAsset `json:"data"`
	Warning string           `json:"warning"`
	Error   string           `json:"error"`
}

type OpenFigiAsset struct {
	Figi                string `json:"figi"`
	SecurityType        string `json:"securityType"`
	MarketSector        string `json:"marketSector"`
	Ticker              string `json:"ticker"`
	Name                string `json:"name"`
	ExchangeCode        string `json:"exchCode"`
	ShareClassFIGI      string `json:"shareClassFIGI"`
	CompositeFIGI       string `json:"compositeFIGI"`
	SecurityType2       string `json:"securityType2"`
	SecurityDescription string `json:"securityDescription"`
}

type OpenFigiQuery struct {
	IdType                  string `json:"idType"`
	IdValue                 string `json:"idValue"`
	ExchangeCode            string `json:"exchCode"`
	MarketSectorDescription string `json:"marketSecDes"`
}

// OpenFigi looks up composite FIGIs for US equity tickers and attaches them
// to items
type OpenFigi struct {
	URL   string
	Cache *Cache

	apiKey  string
	client  *resty.Client
	limiter *rate.Limiter
}

func New(apiKey string, cache *Cache) *OpenFigi {
	if cache == nil {
		cache = NewCache()
	}

	client := resty.New()
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &OpenFigi{
		URL:     OpenFigiMappingURL,
		Cache:   cache,
		apiKey:  apiKey,
		client:  client,
		limiter: rateLimit(),
	}
}

// 25 requests per 6 seconds with an api key
func rateLimit() *rate.Limiter {
	dur := (time.Second * 6) / 25
	return rate.NewLimiter(rate.Every(dur), 10)
}

// Prepare maps every ticker that is not already cached in batches of 100
func (openFigi *OpenFigi) Prepare(ctx context.Context, tickers []string) {
	logger := zerolog.Ctx(ctx)

	missing := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if _, ok := openFigi.Cache.Get(ticker); !ok {
			missing = append(missing, ticker)
		}
	}

	logger.Info().Int("NumTickers", len(missing)).Int("NumCached", len(tickers)-len(missing)).Msg("looking up composite figis")

	for start := 0; start < len(missing); start += maxJobsPerRequest {
		end := min(start+maxJobsPerRequest, len(missing))
		batch := missing[start:end]

		if err := openFigi.limiter.Wait(ctx); err != nil {
			logger.Error().Err(err).Msg("rate limiter failed")
			return
		}

		if err := openFigi.lookup(ctx, batch); err != nil {
			logger.Error().Err(err).Int("BatchStart", start).Msg("openfigi lookup failed")
		}
	}
}

// Enrich sets the composite FIGI of item when one is known
func (openFigi *OpenFigi) Enrich(item *data.Item) {
	if item.CompositeFigi.Valid {
		return
	}

	if compositeFigi, ok := openFigi.Cache.Get(item.Code); ok && compositeFigi != "" {
		item.CompositeFigi = null.StringFrom(compositeFigi)
	}
}

func (openFigi *OpenFigi) lookup(ctx context.Context, tickers []string) error {
	logger := zerolog.Ctx(ctx)

	query := make([]*OpenFigiQuery, len(tickers))
	for idx, ticker := range tickers {
		query[idx] = &OpenFigiQuery{
			IdType:                  "TICKER",
			IdValue:                 ticker,
			ExchangeCode:            "US",
			MarketSectorDescription: "Equity",
		}
	}

	mappingResponse := make([]*MappingResponse, 0, len(query))
	req := openFigi.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(query).
		SetResult(&mappingResponse)
	if openFigi.apiKey != "" {
		req.SetHeader("X-OPENFIGI-APIKEY", openFigi.apiKey)
	}

	resp, err := req.Post(openFigi.URL)
	logger.Debug().Str("URL", openFigi.URL).Int("NumTickers", len(query)).Msg("map tickers to FIGIs")
	if err != nil {
		return err
	}

	if resp.StatusCode() >= 400 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("Body", string(resp.Body())).Msg("openfigi api call returned invalid status code")
		return fmt.Errorf("%w (%d)", ErrInvalidStatusCode, resp.StatusCode())
	}

	// responses are returned in the same order as the jobs
	for idx, mapping := range mappingResponse {
		if idx >= len(tickers) || len(mapping.Data) == 0 {
			continue
		}

		if compositeFigi := mapping.Data[0].CompositeFIGI; compositeFigi != "" {
			openFigi.Cache.Set(tickers[idx], compositeFigi)
		}
	}

	return nil
}
