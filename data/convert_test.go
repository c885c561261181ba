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
package data_test

import (
	"github.com/guregu/null/v6"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/import-nasdaq/data"
)

var _ = Describe("Convert", func() {
	DescribeTable("ConvertUnixToDate",
		func(ts null.Int, expected null.String) {
			Expect(data.ConvertUnixToDate(ts)).To(Equal(expected))
		},
		Entry("epoch 1700000000", null.IntFrom(1700000000), null.StringFrom("2023-11-14")),
		Entry("start of day", null.IntFrom(1699920000), null.StringFrom("2023-11-14")),
		Entry("missing value", null.Int{}, null.String{}),
		Entry("zero is treated as missing", null.IntFrom(0), null.String{}),
	)

	DescribeTable("ConvertUnixToDatetime",
		func(ts null.Int, expected null.String) {
			Expect(data.ConvertUnixToDatetime(ts)).To(Equal(expected))
		},
		Entry("epoch 1700000000", null.IntFrom(1700000000), null.StringFrom("2023-11-14 22:13:20")),
		Entry("quarter end", null.IntFrom(1696032000), null.StringFrom("2023-09-30 00:00:00")),
		Entry("missing value", null.Int{}, null.String{}),
	)
})
