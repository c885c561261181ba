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
package pkginfo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/import-nasdaq/pkginfo"
)

var _ = Describe("BuildInfo", func() {
	It("prefers values set at link time", func() {
		DeferCleanup(func(version, commit string) {
			pkginfo.Version = version
			pkginfo.CommitHash = commit
		}, pkginfo.Version, pkginfo.CommitHash)

		pkginfo.Version = "1.2.3"
		pkginfo.CommitHash = "abc123"

		info := pkginfo.Current()
		Expect(info.Name).To(Equal("import-nasdaq"))
		Expect(info.Version).To(Equal("1.2.3"))
		Expect(info.CommitHash).To(Equal("abc123"))
		Expect(info.String()).To(HavePrefix("import-nasdaq 1.2.3 "))
	})

	It("always reports a version", func() {
		Expect(pkginfo.Current().Version).NotTo(BeEmpty())
	})
})
