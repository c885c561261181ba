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
	"errors"

	"github.com/penny-vault/import-nasdaq/data"
)

var (
	ErrInvalidStatusCode = errors.New("invalid status code received")
	ErrNoData            = errors.New("provider returned no data")
	ErrNoCrumb           = errors.New("could not obtain session crumb")
)

// Fetcher retrieves the profile and recent price history of a single ticker
type Fetcher interface {
	// Info returns the combined profile, quote and statistics record
	Info(ctx context.Context, symbol string) (data.Info, error)

	// History returns one month of daily bars in ascending date order
	History(ctx context.Context, symbol string) ([]*data.Quote, error)
}
