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
	"context"
	"errors"
	"fmt"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const EquityType = "EQUITY"

// Item identifies a traded instrument
type Item struct {
	Code          string
	Name          null.String
	Country       null.String
	Market        null.String
	SectorName    null.String
	SectorCode    null.String
	Type          null.String
	CompositeFigi null.String
}

// NewItem projects a provider info record onto an Item. The code is the
// symbol reported by the provider, or the requested symbol if the provider
// did not echo one back.
func NewItem(symbol string, info Info) *Item {
	item := &Item{
		Code:       symbol,
		Name:       info.Str("shortName"),
		Country:    info.Str("country"),
		Market:     info.Str("exchange"),
		SectorName: info.Str("sector"),
		SectorCode: info.Str("sectorKey"),
	}

	if code := info.Str("symbol"); code.Valid && code.String != "" {
		item.Code = code.String
	}

	if quoteType := info.Str("quoteType"); quoteType.Valid && quoteType.String == EquityType {
		item.Type = null.StringFrom(EquityType)
	}

	return item
}

func (item *Item) Fields() Fields {
	fields := Fields{{Column: "code", Value: item.Code}}
	fields = fields.withString("name", item.Name)
	fields = fields.withString("country", item.Country)
	fields = fields.withString("market", item.Market)
	fields = fields.withString("sector_name", item.SectorName)
	fields = fields.withString("sector_code", item.SectorCode)
	fields = fields.withString("type", item.Type)
	fields = fields.withString("composite_figi", item.CompositeFigi)
	return fields
}

func (item *Item) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Code", item.Code)
	e.Str("Name", item.Name.ValueOrZero())
	e.Str("Market", item.Market.ValueOrZero())
}

// SaveDB inserts the item unless a row with the same code already exists.
// The existence check and insert share a transaction; nothing is written
// when the item is already present.
func (item *Item) SaveDB(ctx context.Context, tbl string, db Beginner) (SaveResult, error) {
	result := ResultFailed

	err := inTx(ctx, db, func(tx pgx.Tx) error {
		var existing string
		err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT "code" FROM %s WHERE "code"=$1`, tbl), item.Code).Scan(&existing)
		if err == nil {
			result = ResultSkippedDuplicate
			return nil
		}

		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		fields := item.Fields()
		sql := fields.InsertSQL(tbl, "")
		if _, err := tx.Exec(ctx, sql, fields.Values()...); err != nil {
			log.Error().Err(err).Str("SQL", sql).Object("Item", item).Msg("save item to DB failed")
			return err
		}

		result = ResultInserted
		return nil
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return ResultSkippedDuplicate, nil
		}
		return ResultFailed, err
	}

	return result, nil
}
