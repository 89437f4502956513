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

package rarity

import (
	"math"

	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/sdk/core"
	"github.com/zintix-labs/packlab/sdk/sampler"
)

// probEpsilon 機率總和的浮點容忍度。
const probEpsilon = 1e-9

// Config 為 Distributor 的輸入設定，由 spec.PackSetting 編譯而來。
//
//   - BaseProb：各稀有度的基礎機率。Common 的值不被使用，由 1 - sum(其他) 補足。
//   - Pity：保底門檻（連續幾包未出該等級或以上時強制給出），0 表示該等級無保底。
//   - Guaranteed：slot -> 最低稀有度。
//   - Variance：抖動幅度 v，非 common 機率整體乘上 f ∈ [1-v, 1+v)。
type Config struct {
	PackSize   int
	BaseProb   [Count]float64
	Pity       [Count]int
	Guaranteed map[int]Tier
	MaxTier    Tier
	PitySlot   int
	Variance   float64
}

// Validate 檢查設定是否合法，所有錯誤皆為 config 分類的 Fatal。
func (c *Config) Validate() error {
	if c.PackSize <= 0 {
		return errs.Configf("pack size must be positive: %d", c.PackSize)
	}
	if !c.MaxTier.Valid() {
		return errs.Configf("invalid max tier: %d", c.MaxTier)
	}
	if c.Variance < 0 || c.Variance >= 1 || math.IsNaN(c.Variance) {
		return errs.Configf("variance must be in [0,1): %v", c.Variance)
	}
	sum := 0.0
	for t := Uncommon; int(t) < Count; t++ {
		p := c.BaseProb[t]
		if p < 0 || p > 1 || math.IsNaN(p) {
			return errs.Configf("base probability of %s outside [0,1]: %v", t, p)
		}
		sum += p
	}
	if sum > 1+probEpsilon {
		return errs.Configf("base probabilities sum above 1: %v", sum)
	}
	if c.PitySlot < 0 || c.PitySlot >= c.PackSize {
		return errs.Configf("pity slot %d outside [0,%d)", c.PitySlot, c.PackSize)
	}
	for t, th := range c.Pity {
		if th < 0 {
			return errs.Configf("pity threshold of %s is negative: %d", Tier(t), th)
		}
		if th > 0 && Tier(t) > c.MaxTier {
			return errs.Configf("pity threshold on %s above max tier %s", Tier(t), c.MaxTier)
		}
	}
	for slot, min := range c.Guaranteed {
		if slot < 0 || slot >= c.PackSize {
			return errs.Configf("guaranteed slot %d outside [0,%d)", slot, c.PackSize)
		}
		if !min.Valid() {
			return errs.Configf("guaranteed slot %d has invalid tier", slot)
		}
		if min > c.MaxTier {
			return errs.Configf("guaranteed slot %d minimum %s above max tier %s", slot, min, c.MaxTier)
		}
	}
	return nil
}

// Plan 一包卡的保底計畫，每包只計算一次。
type Plan struct {
	Active bool
	Forced Tier
	Slot   int
}

// Distributor 將一次亂數抽取與保底計畫映射為單一卡槽的稀有度。
// 建立後唯讀，可被多個 goroutine 共用。
type Distributor struct {
	cfg     Config
	minTier []Tier
	mass    float64 // sum of non-common base probabilities
}

func NewDistributor(cfg Config) (*Distributor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Distributor{cfg: cfg, minTier: make([]Tier, cfg.PackSize)}
	for slot, min := range cfg.Guaranteed {
		d.minTier[slot] = min
	}
	for t := Uncommon; int(t) < Count; t++ {
		d.mass += cfg.BaseProb[t]
	}
	return d, nil
}

// PackSize 回傳每包卡槽數 N。
func (d *Distributor) PackSize() int { return d.cfg.PackSize }

// MaxTier 回傳設定允許的最高稀有度。
func (d *Distributor) MaxTier() Tier { return d.cfg.MaxTier }

// MinTier 回傳 slot 的保證最低稀有度（未設定為 Common）。
func (d *Distributor) MinTier(slot int) Tier {
	if slot < 0 || slot >= len(d.minTier) {
		return Common
	}
	return d.minTier[slot]
}

// Plan 依保底計數器決定本包是否強制給出某稀有度。
//
// 計數器為「距離上次抽到該等級或以上已開幾包」，本包是第 counter+1 包，
// 因此 counter+1 >= threshold 即觸發。多個等級同時觸發時取最稀有者：
// 較稀有的結果同時滿足較低等級的保底。
func (d *Distributor) Plan(counters [Count]int) Plan {
	for t := Count - 1; t >= 0; t-- {
		th := d.cfg.Pity[t]
		if th > 0 && counters[t]+1 >= th {
			return Plan{Active: true, Forced: Tier(t), Slot: d.cfg.PitySlot}
		}
	}
	return Plan{}
}

// Probabilities 回傳抖動係數 f 下的各等級機率。
// 非 common 的基礎機率乘上 f；總和超過 1 時等比縮放、common 為 0，否則 common 補足剩餘。
func (d *Distributor) Probabilities(f float64) [Count]float64 {
	var out [Count]float64
	scaled := d.mass * f
	for t := Uncommon; int(t) < Count; t++ {
		out[t] = d.cfg.BaseProb[t] * f
	}
	if scaled > 1 {
		for t := Uncommon; int(t) < Count; t++ {
			out[t] /= scaled
		}
		return out
	}
	out[Common] = 1 - scaled
	return out
}

// Expected 回傳一般卡槽（無保證、無保底影響）在 clamp 之後的期望分布。
// 抖動係數為 [1-v,1+v) 均勻分布，機率對 f 線性，只要 (1+v) 倍時不觸發縮放，期望即為 f=1 的分布。
func (d *Distributor) Expected() [Count]float64 {
	p := d.Probabilities(1)
	for t := Count - 1; t > int(d.cfg.MaxTier); t-- {
		p[d.cfg.MaxTier] += p[t]
		p[t] = 0
	}
	return p
}

// Roll 決定 slot 的稀有度。固定消耗兩次 Float64（抖動、累積分布），
// 保底卡槽不消耗亂數。
func (d *Distributor) Roll(c *core.Core, slot int, plan Plan) Tier {
	min := d.MinTier(slot)
	if plan.Active && slot == plan.Slot {
		return d.clamp(MaxOf(plan.Forced, min))
	}

	f := c.Between(1-d.cfg.Variance, 1+d.cfg.Variance)
	probs := d.Probabilities(f)
	t := Tier(sampler.Cumulative(probs[:], c.Float64()))

	// 保底包內其他卡槽壓在強制等級之下，使整包恰好一張強制等級或以上
	if plan.Active && min < plan.Forced && t >= plan.Forced {
		t = plan.Forced - 1
	}
	return d.clamp(MaxOf(t, min))
}

func (d *Distributor) clamp(t Tier) Tier {
	return MinOf(t, d.cfg.MaxTier)
}

// Reachable 回傳在此設定下可能出現的稀有度（任一卡槽、任一保底狀態）。
// 卡池對可達等級必須有卡，否則為設定錯誤。
func (d *Distributor) Reachable() [Count]bool {
	var draws [Count]bool
	// common 可達：最小抖動下仍有剩餘質量
	draws[Common] = d.mass*(1-d.cfg.Variance) < 1-probEpsilon
	for t := Uncommon; int(t) < Count; t++ {
		draws[t] = d.cfg.BaseProb[t] > 0
	}

	var out [Count]bool
	for slot := 0; slot < d.cfg.PackSize; slot++ {
		min := d.minTier[slot]
		for t := range draws {
			if draws[t] {
				out[d.clamp(MaxOf(Tier(t), min))] = true
			}
		}
		for p, th := range d.cfg.Pity {
			if th <= 0 {
				continue
			}
			forced := Tier(p)
			if slot == d.cfg.PitySlot {
				out[d.clamp(MaxOf(forced, min))] = true
				continue
			}
			if min >= forced {
				continue
			}
			for t := range draws {
				if draws[t] && Tier(t) >= forced {
					out[d.clamp(MaxOf(forced-1, min))] = true
				}
			}
		}
	}
	return out
}
