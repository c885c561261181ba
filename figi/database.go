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
	"fmt"

	"github.com/alphadose/haxmap"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/rs/zerolog/log"
)

type cachedItem struct {
	Code          string
	CompositeFigi string
}

// Cache maps ticker symbols to composite FIGIs
type Cache struct {
	figiMap *haxmap.Map[string, string]
}

func NewCache() *Cache {
	return &Cache{
		figiMap: haxmap.New[string, string](),
	}
}

func (cache *Cache) Get(ticker string) (string, bool) {
	return cache.figiMap.Get(ticker)
}

func (cache *Cache) Set(ticker, compositeFigi string) {
	cache.figiMap.Set(ticker, compositeFigi)
}

func (cache *Cache) Len() int {
	return int(cache.figiMap.Len())
}

// LoadFromDB fills the cache with every item that already has a composite
// FIGI so those tickers are not looked up again
func (cache *Cache) LoadFromDB(ctx context.Context, db pgxscan.Querier, itemTable string) error {
	sql := fmt.Sprintf(`SELECT "code", "composite_figi" FROM %s WHERE "composite_figi" IS NOT NULL`, itemTable)

	var items []*cachedItem
	if err := pgxscan.Select(ctx, db, &items, sql); err != nil {
		log.Error().Err(err).Str("SQL", sql).Msg("load figi cache from DB failed")
		return err
	}

	for _, item := range items {
		cache.Set(item.Code, item.CompositeFigi)
	}

	log.Debug().Int("NumItems", len(items)).Msg("loaded figi cache")
	return nil
}
