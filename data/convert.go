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
	"time"

	"github.com/guregu/null/v6"
)

const (
	DateFormat     = "2006-01-02"
	DatetimeFormat = "2006-01-02 15:04:05"
)

// ConvertUnixToDate formats epoch seconds as YYYY-MM-DD in UTC. A missing
// or zero timestamp yields an empty value.
func ConvertUnixToDate(ts null.Int) null.String {
	return formatUnix(ts, DateFormat)
}

// ConvertUnixToDatetime formats epoch seconds as YYYY-MM-DD HH:MM:SS in UTC.
// A missing or zero timestamp yields an empty value.
func ConvertUnixToDatetime(ts null.Int) null.String {
	return formatUnix(ts, DatetimeFormat)
}

func formatUnix(ts null.Int, layout string) null.String {
	if !ts.Valid || ts.Int64 == 0 {
		return null.String{}
	}
	return null.StringFrom(time.Unix(ts.Int64, 0).UTC().Format(layout))
}
