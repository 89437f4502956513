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

package selector

import (
	"errors"
	"testing"

	"github.com/zintix-labs/packlab/catalog"
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/sdk/core"
	"github.com/zintix-labs/packlab/spec"
)

func fixture(t *testing.T) (*catalog.Catalog, *spec.PackSetting) {
	t.Helper()
	c := catalog.New()
	err := c.Register(
		catalog.CardRecord{ID: "c1", Rarity: rarity.Common},
		catalog.CardRecord{ID: "c2", Rarity: rarity.Common},
		catalog.CardRecord{ID: "c3", Rarity: rarity.Common},
		catalog.CardRecord{ID: "r1", Rarity: rarity.Rare, HoloEligible: true},
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	c.Freeze()
	ps := &spec.PackSetting{PackType: "t", PackSize: 3}
	if err := ps.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return c, ps
}

func TestSelectNoDuplicatesUntilExhausted(t *testing.T) {
	c, ps := fixture(t)
	s, err := New(c, ps, [rarity.Count]bool{true, false, true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rng := core.NewDefault(42)
	for trial := 0; trial < 200; trial++ {
		chosen := map[string]struct{}{}
		for i := 0; i < 3; i++ {
			p, err := s.Select(rng, rarity.Common, chosen)
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if p.Duplicate {
				t.Fatalf("duplicate flagged while commons remain")
			}
			if _, ok := chosen[p.Card.ID]; ok {
				t.Fatalf("card %s chosen twice", p.Card.ID)
			}
			chosen[p.Card.ID] = struct{}{}
		}
		p, err := s.Select(rng, rarity.Common, chosen)
		if err != nil || !p.Duplicate {
			t.Fatalf("exhausted tier should fall back to a flagged duplicate: %+v %v", p, err)
		}
	}
}

func TestSelectHolo(t *testing.T) {
	c, ps := fixture(t)
	s, _ := New(c, ps, [rarity.Count]bool{})
	rng := core.NewDefault(7)
	sawHolo := false
	for i := 0; i < 500; i++ {
		p, _ := s.Select(rng, rarity.Common, nil)
		if p.Holo != rarity.HoloNone {
			t.Fatalf("non-eligible card got holo %s", p.Holo)
		}
		r, _ := s.Select(rng, rarity.Rare, nil)
		if r.Holo == rarity.HoloPrismatic {
			t.Fatalf("prismatic must not appear below mythic by default")
		}
		if r.Holo != rarity.HoloNone {
			sawHolo = true
		}
	}
	if !sawHolo {
		t.Fatalf("eligible rare never rolled a holo variant")
	}

	// 不可閃的卡不消耗亂數
	a, b := core.NewDefault(1), core.NewDefault(1)
	_, _ = s.Select(a, rarity.Common, nil)
	b.IntN(3)
	if a.Uint64() != b.Uint64() {
		t.Fatalf("non-eligible pick should consume exactly one draw")
	}
}

func TestNewReachableEmptyTier(t *testing.T) {
	c, ps := fixture(t)
	var reach [rarity.Count]bool
	reach[rarity.Mythic] = true
	_, err := New(c, ps, reach)
	if !errors.Is(err, errs.Config) {
		t.Fatalf("empty reachable tier should be config error, got %v", err)
	}
	s, _ := New(c, ps, [rarity.Count]bool{})
	if _, err := s.Select(core.NewDefault(1), rarity.Epic, nil); err == nil {
		t.Fatalf("selecting from an empty tier should fail")
	}
	if s.Available(rarity.Common) != 3 {
		t.Fatalf("available: %d", s.Available(rarity.Common))
	}
}

func TestNewSeriesFilter(t *testing.T) {
	c := catalog.New()
	err := c.Register(
		catalog.CardRecord{ID: "b1", Rarity: rarity.Common, Series: "Base Set"},
		catalog.CardRecord{ID: "b2", Rarity: rarity.Common, Series: "Base Set"},
		catalog.CardRecord{ID: "j1", Rarity: rarity.Common, Series: "Jungle"},
		catalog.CardRecord{ID: "j2", Rarity: rarity.Rare, Series: "Jungle"},
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	c.Freeze()
	ps := &spec.PackSetting{PackType: "t", PackSize: 2, Series: " jungle "}
	if err := ps.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	s, err := New(c, ps, [rarity.Count]bool{true, false, true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Available(rarity.Common) != 1 || s.Available(rarity.Rare) != 1 {
		t.Fatalf("series filter: common=%d rare=%d", s.Available(rarity.Common), s.Available(rarity.Rare))
	}
	rng := core.NewDefault(3)
	for i := 0; i < 50; i++ {
		p, err := s.Select(rng, rarity.Common, nil)
		if err != nil || p.Card.ID != "j1" {
			t.Fatalf("selected outside series: %+v %v", p, err)
		}
	}
	if len(c.CardsByRarity(rarity.Common)) != 3 {
		t.Fatalf("filtering must not touch the catalog")
	}

	// Base Set 沒有 rare，rare 可達即為設定錯誤
	base := &spec.PackSetting{PackType: "t", PackSize: 2, Series: "Base Set"}
	if err := base.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	_, err = New(c, base, [rarity.Count]bool{true, false, true})
	if !errors.Is(err, errs.Config) {
		t.Fatalf("series without reachable tier should be config error, got %v", err)
	}
}
