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

package recorder

import (
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/pack"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/spec"
	"github.com/zintix-labs/packlab/stats"
)

// PackRecorder 開包紀錄員
//
// PackRecorder 負責紀錄被接受的卡包與失敗的生成，並透過 Done 輸出統計報表。
// 單一 PackRecorder 不是併發安全的：每個 worker 持有自己的一份，最後以 MergePackRecorder 合併。
type PackRecorder struct {
	PackType spec.PackType
	PackSize int
	Basic    *BasicRecord
	Tier     *TierRecord
	Value    *ValueRecord
	Player   *PlayerRecord

	free     []bool // 無保證最低稀有度的卡槽
	expected [rarity.Count]float64
	pityTh   [rarity.Count]int
	buckets  *stats.ValueBuckets
}

// BasicRecord 基本紀錄
type BasicRecord struct {
	Packs        int
	Failures     int
	Exhausted    int
	NonRetryable int
	Attempts     int
	PityPacks    int
	Duplicates   int
}

// TierRecord 稀有度 / 閃卡落點計數
type TierRecord struct {
	Slot [rarity.Count]int
	Free [rarity.Count]int
	Best [rarity.Count]int
	Holo [rarity.HoloCount]int
}

// ValueRecord 每包價值
type ValueRecord struct {
	Total   int
	SqSum   int // 平方和
	Collect []int
}

// PlayerRecord 玩家歷程
type PlayerRecord struct {
	active   bool
	cur      stats.Journey
	gap      [rarity.Count]int
	Journeys []stats.Journey
}

// NewPackRecorder 依卡包設定與一般卡槽的理論分布建立紀錄員。
func NewPackRecorder(ps *spec.PackSetting, expected [rarity.Count]float64, buckets *stats.ValueBuckets) (*PackRecorder, error) {
	if ps == nil || ps.PackSize <= 0 {
		return nil, errs.NewFatal("pack recorder requires an initialised pack setting")
	}
	if buckets == nil {
		buckets = stats.NewValueBuckets(nil)
	}
	r := &PackRecorder{
		PackType: ps.PackType,
		PackSize: ps.PackSize,
		Basic:    new(BasicRecord),
		Tier:     new(TierRecord),
		Value:    &ValueRecord{Collect: make([]int, buckets.Len())},
		Player:   new(PlayerRecord),
		free:     make([]bool, ps.PackSize),
		expected: expected,
		pityTh:   ps.Rarity.Pity,
		buckets:  buckets,
	}
	for slot := range r.free {
		_, guaranteed := ps.Rarity.Guaranteed[slot]
		r.free[slot] = !guaranteed
	}
	return r, nil
}

// Record 紀錄一包被接受的卡包與其嘗試次數。
func (r *PackRecorder) Record(p *pack.Pack, attempts int) {
	b := r.Basic
	b.Packs++
	b.Attempts += attempts
	b.Duplicates += p.Duplicates()
	pityPack := p.PityForced != nil
	if pityPack {
		b.PityPacks++
	}

	t := r.Tier
	for _, pk := range p.Picks {
		t.Slot[pk.Rarity]++
		t.Holo[pk.Holo]++
		if !pityPack && pk.Slot < len(r.free) && r.free[pk.Slot] {
			t.Free[pk.Rarity]++
		}
	}
	t.Best[p.BestRarity]++

	v := r.Value
	v.Total += p.Value
	v.SqSum += p.Value * p.Value
	v.Collect[r.buckets.Index(p.Value)]++
}

// RecordFailure 紀錄一次生成失敗。
func (r *PackRecorder) RecordFailure(reason errs.Code, attempts int) {
	r.Basic.Failures++
	r.Basic.Attempts += attempts
	switch reason {
	case errs.CodeExhausted:
		r.Basic.Exhausted++
	case errs.CodeNonRetryable:
		r.Basic.NonRetryable++
	}
}

// StartPlayer 開始紀錄一位新玩家的歷程。
func (r *PackRecorder) StartPlayer() {
	r.Player.active = true
	r.Player.cur = stats.Journey{}
	r.Player.gap = [rarity.Count]int{}
}

// RecordWithPlayer 在 Record 的基礎上更新目前玩家的歷程。
func (r *PackRecorder) RecordWithPlayer(p *pack.Pack, attempts int) {
	r.Record(p, attempts)
	pl := r.Player
	if !pl.active {
		return
	}
	pl.cur.Packs++
	for t := range pl.gap {
		if rarity.Tier(t) <= p.BestRarity {
			pl.cur.MaxGap[t] = max(pl.cur.MaxGap[t], pl.gap[t])
			pl.gap[t] = 0
			if pl.cur.FirstAt[t] == 0 {
				pl.cur.FirstAt[t] = pl.cur.Packs
			}
			continue
		}
		pl.gap[t]++
	}
}

// EndPlayer 結束目前玩家並保存歷程。
func (r *PackRecorder) EndPlayer() {
	pl := r.Player
	if !pl.active {
		return
	}
	for t := range pl.gap {
		pl.cur.MaxGap[t] = max(pl.cur.MaxGap[t], pl.gap[t])
	}
	pl.Journeys = append(pl.Journeys, pl.cur)
	pl.active = false
}

// Journeys 回傳已結束的玩家歷程。
func (r *PackRecorder) Journeys() []stats.Journey {
	return r.Player.Journeys
}

// Estimator 以玩家歷程產生體驗評估。
func (r *PackRecorder) Estimator() *stats.EstimatorPlayers {
	return stats.EstimatorPlayerJourneys(r.Player.Journeys, r.pityTh)
}

// MergePackRecorder 合併多個同一卡包類型的紀錄員。
func MergePackRecorder(rs []*PackRecorder) (*PackRecorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("merge pack record err : empty input")
	}
	r0 := rs[0]
	out := &PackRecorder{
		PackType: r0.PackType,
		PackSize: r0.PackSize,
		Basic:    new(BasicRecord),
		Tier:     new(TierRecord),
		Value:    &ValueRecord{Collect: make([]int, r0.buckets.Len())},
		Player:   new(PlayerRecord),
		free:     r0.free,
		expected: r0.expected,
		pityTh:   r0.pityTh,
		buckets:  r0.buckets,
	}
	for _, v := range rs {
		if v.PackType != r0.PackType {
			return nil, errs.NewFatal("merge pack record err : different pack type")
		}
		if v.PackSize != r0.PackSize || len(v.Value.Collect) != len(out.Value.Collect) {
			return nil, errs.NewFatal("merge pack record err : different layout")
		}
		b := out.Basic
		b.Packs += v.Basic.Packs
		b.Failures += v.Basic.Failures
		b.Exhausted += v.Basic.Exhausted
		b.NonRetryable += v.Basic.NonRetryable
		b.Attempts += v.Basic.Attempts
		b.PityPacks += v.Basic.PityPacks
		b.Duplicates += v.Basic.Duplicates

		for i := range out.Tier.Slot {
			out.Tier.Slot[i] += v.Tier.Slot[i]
			out.Tier.Free[i] += v.Tier.Free[i]
			out.Tier.Best[i] += v.Tier.Best[i]
		}
		for i := range out.Tier.Holo {
			out.Tier.Holo[i] += v.Tier.Holo[i]
		}

		out.Value.Total += v.Value.Total
		out.Value.SqSum += v.Value.SqSum
		for i := range out.Value.Collect {
			out.Value.Collect[i] += v.Value.Collect[i]
		}
		out.Player.Journeys = append(out.Player.Journeys, v.Player.Journeys...)
	}
	return out, nil
}

// Done 輸出統計報表（尚未呼叫 Report.Done）。
func (r *PackRecorder) Done() *stats.Report {
	tiers := make([]string, rarity.Count)
	for i, t := range rarity.All() {
		tiers[i] = t.String()
	}
	holos := make([]string, rarity.HoloCount)
	for i := range holos {
		holos[i] = rarity.Holo(i).String()
	}
	return &stats.Report{
		Summary: &stats.SummaryReport{
			PackType:     r.PackType,
			PackSize:     r.PackSize,
			Packs:        r.Basic.Packs,
			Failures:     r.Basic.Failures,
			Exhausted:    r.Basic.Exhausted,
			NonRetryable: r.Basic.NonRetryable,
			Attempts:     r.Basic.Attempts,
			PityPacks:    r.Basic.PityPacks,
			Duplicates:   r.Basic.Duplicates,
		},
		Tier: &stats.TierReport{
			Tiers:     tiers,
			Slot:      append([]int(nil), r.Tier.Slot[:]...),
			Free:      append([]int(nil), r.Tier.Free[:]...),
			Expected:  append([]float64(nil), r.expected[:]...),
			Best:      append([]int(nil), r.Tier.Best[:]...),
			HoloNames: holos,
			Holo:      append([]int(nil), r.Tier.Holo[:]...),
		},
		Value: &stats.ValueReport{
			Total:   r.Value.Total,
			SqSum:   float64(r.Value.SqSum),
			Buckets: r.buckets.Labels(),
			Collect: append([]int(nil), r.Value.Collect...),
		},
	}
}
