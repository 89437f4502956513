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

// Package core 是整個 packlab 唯一的亂數入口。
//
// 稀有度抽取、卡片挑選、閃卡版本抽取與 variance 抖動全部透過 *Core 取得亂數；
// 沒有任何全域亂數狀態，每次生成（每次 attempt）都以自己的 seed 建立獨立的 Core，
// 因此相同 seed 一定得到相同序列。
package core

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// bounded 取樣（UintN / IntN）與 Float64 的精度交由實作決定，
// 讓 32-bit 原生的 PRNG 不必被迫走 uint64 再裁切的路徑。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：在同一個實作與同一個版本下，New(seed) 必須是決定性的，
	// 相同的 seed 必須產生相同的初始內部狀態與輸出序列。
	// 卡包的 Replay 與審計完全依賴這個性質。
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory（PCG64）。
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) PRNG {
	return NewPCG64(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// NewDefault 以預設 PCG64 與指定 seed 建立 Core。
func NewDefault(seed int64) *Core {
	return &Core{NewPCG64(seed)}
}

// Between 回傳 [lo, hi) 的均勻浮點數。lo >= hi 時直接回傳 lo（不消耗亂數）。
//
// 典型用途是 variance 抖動：Between(1-v, 1+v)。
func (c *Core) Between(lo, hi float64) float64 {
	if lo >= hi {
		return lo
	}
	return lo + (hi-lo)*c.Float64()
}
