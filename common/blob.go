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

package common

import (
	"bytes"
	"errors"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"
)

var (
	ErrBlobTooShort     = errors.New("blob shorter than checksum envelope")
	ErrChecksumMismatch = errors.New("blob checksum mismatch")
)

const checksumLen = 32

// CompressBlob lz4-compresses data and prepends a blake3 checksum of the
// uncompressed payload. Used for the daily-result blobs stored with each
// backtest run.
func CompressBlob(in []byte) ([]byte, error) {
	sum := blake3.Sum256(in)

	w := &bytes.Buffer{}
	w.Write(sum[:])
	zw := lz4.NewWriter(w)
	if _, err := io.Copy(zw, bytes.NewReader(in)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecompressBlob reverses CompressBlob and verifies the embedded checksum
func DecompressBlob(in []byte) ([]byte, error) {
	if len(in) < checksumLen {
		return nil, ErrBlobTooShort
	}

	w := &bytes.Buffer{}
	zr := lz4.NewReader(bytes.NewReader(in[checksumLen:]))
	if _, err := io.Copy(w, zr); err != nil {
		return nil, err
	}

	sum := blake3.Sum256(w.Bytes())
	if !bytes.Equal(sum[:], in[:checksumLen]) {
		return nil, ErrChecksumMismatch
	}
	return w.Bytes(), nil
}
