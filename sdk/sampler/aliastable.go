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

package sampler

import (
	"math"
	"math/bits"

	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/sdk/core"
)

// AliasTable 是 Vose Alias Method 的整數版本，O(1) 加權抽樣。
//
// 閃卡版本（none / standard / reverse / full_art / prismatic）以每個稀有度一張表的方式使用：
// 建表在設定載入時完成一次，抽樣時固定消耗 2 次 IntN。
//
//   - Prob：整數 scaling 後的機率（weight * Size），與 Total 比較，避免浮點誤差。
//   - Aliases：機率不足時補位的索引。
//   - Total：權重總和。
type AliasTable struct {
	Prob    []int
	Aliases []int
	Size    int
	Total   int
}

// NewAliasTable 與 BuildAliasTable 相同，但以 error 回報不合法的權重，
// 供設定載入路徑使用（設定錯誤不應 panic）。
func NewAliasTable(weights []int) (*AliasTable, error) {
	if len(weights) == 0 {
		return nil, errs.NewFatal("alias table: empty weights")
	}
	total := uint64(0)
	for i, w := range weights {
		if w < 0 {
			return nil, errs.Fatalf("alias table: negative weight at index %d", i)
		}
		if total > uint64(math.MaxInt)-uint64(w) {
			return nil, errs.NewFatal("alias table: total weight overflow int range")
		}
		total += uint64(w)
	}
	if total == 0 {
		return nil, errs.NewFatal("alias table: all weights are zero")
	}
	if !isSafeMultiply(int(total), len(weights)) {
		return nil, errs.NewFatal("alias table: weights are too large, causing overflow")
	}
	return build(weights, int(total)), nil
}

// BuildAliasTable 根據權重建立 AliasTable；權重不合法時 panic。
// 只用於權重在程式中寫死、錯誤即代表 bug 的場合。空輸入回傳空表（Pick 回傳 -1）。
func BuildAliasTable(weights []int) *AliasTable {
	if len(weights) == 0 {
		return &AliasTable{Prob: []int{}, Aliases: []int{}}
	}
	at, err := NewAliasTable(weights)
	if err != nil {
		panic(err.Error())
	}
	return at
}

func build(weights []int, total int) *AliasTable {
	n := len(weights)
	prob := make([]int, n)
	aliases := make([]int, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)

	for i, w := range weights {
		prob[i] = w * n
		if prob[i] < total {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		aliases[s] = l
		// 維持 sum(prob) = total * n
		prob[l] = prob[l] + prob[s] - total
		if prob[l] < total {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}
	// 殘留於任一桶的索引機率必為 total（整數運算無誤差），自身即可
	for _, i := range large {
		aliases[i] = i
	}
	for _, i := range small {
		aliases[i] = i
	}

	return &AliasTable{Prob: prob, Aliases: aliases, Size: n, Total: total}
}

// isSafeMultiply 檢查 a*b 是否會超過 math.MaxInt64。
func isSafeMultiply(a, b int) bool {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	return hi == 0 && lo <= math.MaxInt64
}

// Pick 從 AliasTable 中抽取一個索引，若表為空則回傳 -1。
// 先以 IntN(Size) 選桶，再以 IntN(Total) < Prob[idx] 決定取自身或 alias。
func (at *AliasTable) Pick(c *core.Core) int {
	if at.Size == 0 {
		return -1
	}
	idx := c.IntN(at.Size)
	if c.IntN(at.Total) < at.Prob[idx] {
		return idx
	}
	return at.Aliases[idx]
}

// Weight 回傳索引 i 的機率（供報表與測試使用）。
func (at *AliasTable) Weight(i int) float64 {
	if at.Size == 0 || i < 0 || i >= at.Size {
		return 0
	}
	own := float64(at.Prob[i])
	for j := 0; j < at.Size; j++ {
		if j != i && at.Aliases[j] == i {
			own += float64(at.Total - at.Prob[j])
		}
	}
	return own / float64(at.Total*at.Size)
}
