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

import (
	"math"
	"time"

	"github.com/guregu/null/v6"
)

// Info is the profile / quote record returned by a data provider for a
// single ticker. Values are strings, float64s or bools; missing keys mean
// the provider had no value.
type Info map[string]any

// Str returns the string stored at key
func (info Info) Str(key string) null.String {
	if val, ok := info[key].(string); ok {
		return null.StringFrom(val)
	}
	return null.String{}
}

// Float returns the numeric value stored at key
func (info Info) Float(key string) null.Float {
	switch val := info[key].(type) {
	case float64:
		if math.IsNaN(val) {
			return null.Float{}
		}
		return null.FloatFrom(val)
	case float32:
		return null.FloatFrom(float64(val))
	case int:
		return null.FloatFrom(float64(val))
	case int64:
		return null.FloatFrom(float64(val))
	}
	return null.Float{}
}

// Int returns the numeric value stored at key truncated to an integer.
// Values outside the int64 range are treated as missing.
func (info Info) Int(key string) null.Int {
	switch val := info[key].(type) {
	case int64:
		return null.IntFrom(val)
	case int:
		return null.IntFrom(int64(val))
	}

	f := info.Float(key)
	if !f.Valid || f.Float64 >= float64(math.MaxInt64) || f.Float64 < float64(math.MinInt64) {
		return null.Int{}
	}
	return null.IntFrom(int64(f.Float64))
}

// Quote is a single daily price bar as reported by a data provider
type Quote struct {
	Date   time.Time
	Open   null.Float
	High   null.Float
	Low    null.Float
	Close  null.Float
	Volume null.Int
}
