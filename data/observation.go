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

// NewObservation maps the info record and price history fetched for symbol
// into the Item, OHLCV and Fundamental records. Bars are keyed by the same
// code as the item so that re-runs hit the same unique keys.
func NewObservation(symbol string, info Info, quotes []*Quote) *Observation {
	item := NewItem(symbol, info)

	bars := make([]*Ohlcv, 0, len(quotes))
	for _, quote := range quotes {
		bars = append(bars, NewOhlcv(item.Code, quote))
	}

	return &Observation{
		Ticker:      symbol,
		Item:        item,
		Bars:        bars,
		Fundamental: NewFundamental(symbol, info),
	}
}
