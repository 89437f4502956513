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

// Package selector 依稀有度從卡池挑出具體卡片與閃卡版本。
package selector

import (
	"github.com/zintix-labs/packlab/catalog"
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/sdk/core"
	"github.com/zintix-labs/packlab/sdk/sampler"
	"github.com/zintix-labs/packlab/spec"
)

// Pick 單一卡槽的選卡結果。
type Pick struct {
	Card      catalog.CardRecord
	Holo      rarity.Holo
	Duplicate bool // 該等級已無未選過的卡，退回允許包內重複
}

// Selector 綁定一份卡包設定與卡池快照，建立後唯讀。
type Selector struct {
	byTier [rarity.Count][]catalog.CardRecord
	holo   [rarity.Count]*sampler.AliasTable
}

// New 建立 Selector。reachable 為此設定下可能出現的稀有度；
// 任何可達等級在卡池中沒有卡即為設定錯誤，在任何抽取之前回報。
// ps.Series 非空時卡池只保留該系列的卡。
func New(p catalog.Provider, ps *spec.PackSetting, reachable [rarity.Count]bool) (*Selector, error) {
	if p == nil || ps == nil {
		return nil, errs.Configf("selector requires a catalog and a pack setting")
	}
	s := &Selector{}
	for t := range s.byTier {
		tier := rarity.Tier(t)
		s.byTier[t] = inSeries(p.CardsByRarity(tier), ps)
		if reachable[t] && len(s.byTier[t]) == 0 {
			if ps.Series != "" {
				return nil, errs.Configf("pack %s: series %q has no %s cards but %s is reachable", ps.PackType, ps.Series, tier, tier)
			}
			return nil, errs.Configf("pack %s: catalog has no %s cards but %s is reachable", ps.PackType, tier, tier)
		}
		at, err := sampler.NewAliasTable(ps.HoloWeights[t][:])
		if err != nil {
			return nil, errs.Wrap(err, "build holo table").WithCode(errs.CodeConfig)
		}
		s.holo[t] = at
	}
	return s, nil
}

func inSeries(cards []catalog.CardRecord, ps *spec.PackSetting) []catalog.CardRecord {
	if ps.Series == "" {
		return cards
	}
	out := make([]catalog.CardRecord, 0, len(cards))
	for _, c := range cards {
		if ps.InSeries(c.Series) {
			out = append(out, c)
		}
	}
	return out
}

// Available 回傳該等級的卡片數量。
func (s *Selector) Available(t rarity.Tier) int {
	if !t.Valid() {
		return 0
	}
	return len(s.byTier[t])
}

// Select 在等級 t 中均勻抽出一張本包尚未選過的卡。
//
// 未選過的子集為空時退回整個等級（允許重複並標記），生成永不因卡池耗盡而卡住。
// 閃卡版本以另一次抽取決定；不可閃的卡固定為 none 且不消耗亂數。
func (s *Selector) Select(c *core.Core, t rarity.Tier, chosen map[string]struct{}) (Pick, error) {
	if !t.Valid() || len(s.byTier[t]) == 0 {
		return Pick{}, errs.Configf("no %s cards to select from", t)
	}
	pool := s.byTier[t]

	avail := 0
	for i := range pool {
		if _, ok := chosen[pool[i].ID]; !ok {
			avail++
		}
	}

	var p Pick
	if avail == 0 {
		p.Card = pool[c.IntN(len(pool))]
		p.Duplicate = true
	} else {
		k := c.IntN(avail)
		for i := range pool {
			if _, ok := chosen[pool[i].ID]; ok {
				continue
			}
			if k == 0 {
				p.Card = pool[i]
				break
			}
			k--
		}
	}

	if p.Card.HoloEligible {
		p.Holo = rarity.Holo(s.holo[t].Pick(c))
	}
	return p, nil
}
