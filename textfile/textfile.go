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
package textfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/penny-vault/import-nasdaq/data"
	"github.com/rs/zerolog"
)

const (
	DefaultFilename = "ticker_data.txt"
	unknownCode     = "Unknown"
)

var separator = strings.Repeat("=", 80)

// Sink appends a human readable dump of each observation to a text file.
// The file is opened for every observation so partial runs leave complete
// entries behind.
type Sink struct {
	Path string
}

func New(path string) *Sink {
	if path == "" {
		path = DefaultFilename
	}
	return &Sink{Path: path}
}

// Save appends the item and fundamental fields of obs to the output file
// SkipsBars reports that price bars are not written to the text file
func (sink *Sink) SkipsBars() bool {
	return true
}

func (sink *Sink) Save(ctx context.Context, obs *data.Observation) error {
	fh, err := os.OpenFile(sink.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(fh)
	if err := writeObservation(writer, obs); err != nil {
		fh.Close()
		return err
	}

	if err := writer.Flush(); err != nil {
		fh.Close()
		return err
	}

	if err := fh.Close(); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Str("Ticker", obs.Ticker).Str("FileName", sink.Path).Msgf("Saved data for %s", obs.Ticker)
	return nil
}

func writeObservation(writer *bufio.Writer, obs *data.Observation) error {
	var itemFields, fundamentalFields data.Fields
	if obs.Item != nil {
		itemFields = obs.Item.Fields()
	}
	if obs.Fundamental != nil {
		fundamentalFields = obs.Fundamental.Fields()
	}

	itemDump, err := Dump(itemFields)
	if err != nil {
		return err
	}

	fundamentalDump, err := Dump(fundamentalFields)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(writer, "Item Data for %s:\n%s\n\nFundamental Data for %s:\n%s\n%s\n",
		codeOf(itemFields), itemDump, codeOf(fundamentalFields), fundamentalDump, separator)
	return err
}

// Dump renders fields as {"column": value, ...} with JSON encoded values
func Dump(fields data.Fields) (string, error) {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		val, err := json.Marshal(field.Value)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", field.Column, err)
		}
		parts = append(parts, fmt.Sprintf("%q: %s", field.Column, val))
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

func codeOf(fields data.Fields) string {
	if code, ok := fields.Get("code"); ok {
		if str, ok := code.(string); ok && str != "" {
			return str
		}
	}
	return unknownCode
}
