package recorder

import (
	"testing"

	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/pack"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/spec"
)

func setting(t *testing.T) *spec.PackSetting {
	t.Helper()
	ps := &spec.PackSetting{
		PackType:        "t",
		PackSize:        3,
		GuaranteedSlots: []spec.GuaranteedSlot{{Slot: 2, MinTier: rarity.Rare}},
		Tiers: []spec.TierSetting{
			{Tier: rarity.Common, Value: 1},
			{Tier: rarity.Uncommon, BaseProb: 0.3, Value: 3},
			{Tier: rarity.Rare, BaseProb: 0.1, Pity: 5, Value: 10},
		},
	}
	if err := ps.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return ps
}

func mk(tiers ...rarity.Tier) *pack.Pack {
	p := &pack.Pack{Type: "t"}
	for i, tr := range tiers {
		p.Picks = append(p.Picks, pack.CardPick{Slot: i, CardID: "x", Rarity: tr})
		p.BestRarity = rarity.MaxOf(p.BestRarity, tr)
		p.Value += int(tr) + 1
	}
	return p
}

func TestRecordAndDone(t *testing.T) {
	ps := setting(t)
	r, err := NewPackRecorder(ps, [rarity.Count]float64{0.6, 0.3, 0.1}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r.Record(mk(rarity.Common, rarity.Uncommon, rarity.Rare), 1)
	forced := rarity.Rare
	pity := mk(rarity.Common, rarity.Common, rarity.Rare)
	pity.PityForced = &forced
	pity.Picks[1].Duplicate = true
	r.Record(pity, 2)
	r.RecordFailure(errs.CodeExhausted, 5)

	rep := r.Done()
	rep.Done()
	s := rep.Summary
	if s.Packs != 2 || s.Failures != 1 || s.Exhausted != 1 || s.Attempts != 8 || s.PityPacks != 1 || s.Duplicates != 1 {
		t.Fatalf("summary: %+v", s)
	}
	// 只有第一包的 slot 0、1 是一般卡槽樣本
	if rep.Tier.Free[rarity.Common] != 1 || rep.Tier.Free[rarity.Uncommon] != 1 || rep.Tier.Free[rarity.Rare] != 0 {
		t.Fatalf("free slots: %v", rep.Tier.Free)
	}
	if rep.Tier.Slot[rarity.Common] != 3 || rep.Tier.Best[rarity.Rare] != 2 {
		t.Fatalf("slot/best: %v %v", rep.Tier.Slot, rep.Tier.Best)
	}
	if rep.Value.Total != 6+5 {
		t.Fatalf("value total: %d", rep.Value.Total)
	}
	if rep.GOF == nil || rep.GOF.Samples != 2 {
		t.Fatalf("gof: %+v", rep.GOF)
	}
}

func TestPlayerJourneyAndMerge(t *testing.T) {
	ps := setting(t)
	a, _ := NewPackRecorder(ps, [rarity.Count]float64{}, nil)
	b, _ := NewPackRecorder(ps, [rarity.Count]float64{}, nil)

	a.StartPlayer()
	a.RecordWithPlayer(mk(rarity.Common, rarity.Common, rarity.Common), 1)
	a.RecordWithPlayer(mk(rarity.Common, rarity.Common, rarity.Common), 1)
	a.RecordWithPlayer(mk(rarity.Common, rarity.Uncommon, rarity.Rare), 1)
	a.RecordWithPlayer(mk(rarity.Common, rarity.Common, rarity.Common), 1)
	a.EndPlayer()

	j := a.Journeys()[0]
	if j.Packs != 4 || j.FirstAt[rarity.Common] != 1 || j.FirstAt[rarity.Rare] != 3 || j.FirstAt[rarity.Epic] != 0 {
		t.Fatalf("journey: %+v", j)
	}
	if j.MaxGap[rarity.Rare] != 2 || j.MaxGap[rarity.Epic] != 4 {
		t.Fatalf("gaps: %v", j.MaxGap)
	}

	b.StartPlayer()
	b.RecordWithPlayer(mk(rarity.Rare, rarity.Common, rarity.Common), 1)
	b.EndPlayer()
	b.EndPlayer() // 未開始的玩家不紀錄

	m, err := MergePackRecorder([]*PackRecorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if m.Basic.Packs != 5 || len(m.Journeys()) != 2 {
		t.Fatalf("merged: %+v journeys=%d", m.Basic, len(m.Journeys()))
	}
	est := m.Estimator()
	if est.Players != 2 || est.Journeys[rarity.Rare-1].Threshold != 5 {
		t.Fatalf("estimator: %+v", est)
	}

	other := *ps
	other.PackType = "other"
	c, _ := NewPackRecorder(&other, [rarity.Count]float64{}, nil)
	if _, err := MergePackRecorder([]*PackRecorder{a, c}); err == nil {
		t.Fatalf("merging different pack types should fail")
	}
}
