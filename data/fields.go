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
	"fmt"
	"strings"

	"github.com/guregu/null/v6"
)

// Field is a single populated column of a record
type Field struct {
	Column string
	Value  any
}

// Fields is the sparse projection of a record: only columns that have a
// value are present, in table order.
type Fields []Field

func (fields Fields) Columns() []string {
	cols := make([]string, len(fields))
	for idx, field := range fields {
		cols[idx] = field.Column
	}
	return cols
}

func (fields Fields) Values() []any {
	vals := make([]any, len(fields))
	for idx, field := range fields {
		vals[idx] = field.Value
	}
	return vals
}

// Get returns the value stored for column and whether it is present
func (fields Fields) Get(column string) (any, bool) {
	for _, field := range fields {
		if field.Column == column {
			return field.Value, true
		}
	}
	return nil, false
}

// InsertSQL builds an INSERT statement for the populated columns. suffix is
// appended verbatim (e.g. an ON CONFLICT clause).
func (fields Fields) InsertSQL(tbl string, suffix string) string {
	cols := make([]string, len(fields))
	params := make([]string, len(fields))
	for idx, field := range fields {
		cols[idx] = fmt.Sprintf("%q", field.Column)
		params[idx] = fmt.Sprintf("$%d", idx+1)
	}

	sql := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, tbl, strings.Join(cols, ", "), strings.Join(params, ", "))
	if suffix != "" {
		sql = sql + " " + suffix
	}

	return sql
}

func (fields Fields) withString(column string, val null.String) Fields {
	if val.Valid {
		return append(fields, Field{Column: column, Value: val.String})
	}
	return fields
}

func (fields Fields) withInt(column string, val null.Int) Fields {
	if val.Valid {
		return append(fields, Field{Column: column, Value: val.Int64})
	}
	return fields
}

func (fields Fields) withFloat(column string, val null.Float) Fields {
	if val.Valid {
		return append(fields, Field{Column: column, Value: val.Float64})
	}
	return fields
}
