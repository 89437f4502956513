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

// Package sampler 卡包生成用的加權抽樣工具：
// 閃卡版本用 alias table（O(1) 抽樣），稀有度用累積分布（單次亂數、稀有者優先檢查）。
package sampler

// Float 機率陣列允許的元素型別。
type Float interface {
	~float32 | ~float64
}

// Cumulative 以單一均勻亂數 u ∈ [0,1) 走訪累積分布，回傳落點索引。
//
// 走訪方向為「由尾到頭」：索引越大代表越稀有，稀有項目先被檢查，
// 浮點累加誤差因此全部落到索引 0（最常見的項目）上。
// 機率總和小於 1 時剩餘的質量同樣歸給索引 0。空輸入回傳 -1。
func Cumulative[T Float](probs []T, u float64) int {
	if len(probs) == 0 {
		return -1
	}
	acc := 0.0
	for i := len(probs) - 1; i > 0; i-- {
		acc += float64(probs[i])
		if u < acc {
			return i
		}
	}
	return 0
}
