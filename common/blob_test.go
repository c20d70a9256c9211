// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/advisor/common"
)

var _ = Describe("Blob envelope", func() {
	It("round trips a payload", func() {
		payload := []byte(strings.Repeat(`{"date":"2022-06-01","pnl_pct":0.5}`, 200))

		blob, err := common.CompressBlob(payload)
		Expect(err).To(BeNil())

		restored, err := common.DecompressBlob(blob)
		Expect(err).To(BeNil())
		Expect(restored).To(Equal(payload))
	})

	It("compresses repetitive payloads", func() {
		payload := bytes.Repeat([]byte("daily result row "), 1000)

		blob, err := common.CompressBlob(payload)
		Expect(err).To(BeNil())
		Expect(len(blob)).To(BeNumerically("<", len(payload)))
	})

	It("round trips an empty payload", func() {
		blob, err := common.CompressBlob([]byte{})
		Expect(err).To(BeNil())

		restored, err := common.DecompressBlob(blob)
		Expect(err).To(BeNil())
		Expect(restored).To(BeEmpty())
	})

	It("rejects blobs shorter than the checksum envelope", func() {
		_, err := common.DecompressBlob([]byte("short"))
		Expect(err).To(MatchError(common.ErrBlobTooShort))
	})

	It("detects a corrupted checksum", func() {
		blob, err := common.CompressBlob([]byte("hello world"))
		Expect(err).To(BeNil())

		blob[0] ^= 0xff
		_, err = common.DecompressBlob(blob)
		Expect(err).To(MatchError(common.ErrChecksumMismatch))
	})
})

var _ = Describe("Version", func() {
	It("formats a release version without a suffix", func() {
		v := common.Version{Major: 1, Minor: 2, Patch: 3}
		Expect(v.String()).To(Equal("1.2.3"))
	})

	It("appends the pre-release suffix", func() {
		v := common.Version{Major: 0, Minor: 4, Patch: 0, Suffix: "DEV"}
		Expect(v.String()).To(HavePrefix("0.4.0-DEV"))
	})

	It("names the binary in the version banner", func() {
		Expect(common.BuildVersionString()).To(ContainSubstring("advisor v"))
	})
})
