// Copyright 2025 Zintix Labs
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

package core

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zintix-labs/packlab/errs"
)

// DeriveSeed 由 base seed 與 attempt 序號派生子 seed。
//
// 以 splitmix64(base+attempt) 混洗後遮成非負 int63，讓每個 attempt 可獨立重現，
// 同時避免 seed 與 seed+1 兩條序列之間的相關性。
func DeriveSeed(base int64, attempt int) int64 {
	x := splitmix64(uint64(base) + uint64(attempt))
	return int64(x & math.MaxInt64)
}

// ParseSeed 將邊界輸入的字串 seed 轉為 int64。
//
//   - 十進位整數字串直接解析（允許負號）。
//   - 其他任何字串以 xxhash64 雜湊後遮成非負 int63。
//
// 空字串回傳 ok=false，由呼叫端決定是否改用 NewCryptoSeed。
func ParseSeed(s string) (seed int64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	return int64(xxhash.Sum64String(s) & math.MaxInt64), true
}

// NewCryptoSeed 以 crypto/rand 產生非負 seed。
// 呼叫端未提供 seed 時使用，產生的 seed 會被記錄在卡包 metadata 上，卡包仍可重播。
func NewCryptoSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, errs.Wrap(err, "read crypto seed")
	}
	return int64(binary.LittleEndian.Uint64(b[:]) & math.MaxInt64), nil
}
