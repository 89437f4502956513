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

package pity

import (
	"context"
	"sync"
	"testing"

	"github.com/zintix-labs/packlab/rarity"
)

func TestCommitResetsAtOrBelow(t *testing.T) {
	s := New().With(rarity.Uncommon, 3).With(rarity.Rare, 8).With(rarity.Legendary, 59)
	next := s.Commit(rarity.Rare)

	for _, tier := range []rarity.Tier{rarity.Common, rarity.Uncommon, rarity.Rare} {
		if next.Counter(tier) != 0 {
			t.Fatalf("%s should reset, got %d", tier, next.Counter(tier))
		}
	}
	if next.Counter(rarity.Epic) != 1 || next.Counter(rarity.Legendary) != 60 || next.Counter(rarity.Mythic) != 1 {
		t.Fatalf("tiers above pulled should increment: %+v", next)
	}
	if next.Total != 1 {
		t.Fatalf("total should increment: %d", next.Total)
	}
	// 原值不變
	if s.Counter(rarity.Legendary) != 59 || s.Total != 0 {
		t.Fatalf("commit must not mutate receiver: %+v", s)
	}
}

func TestCommitMonotonic(t *testing.T) {
	s := New()
	pulls := []rarity.Tier{rarity.Common, rarity.Uncommon, rarity.Common, rarity.Epic, rarity.Common}
	for _, p := range pulls {
		next := s.Commit(p)
		for tier := range next.Counters {
			if rarity.Tier(tier) > p && next.Counters[tier] < s.Counters[tier] {
				t.Fatalf("counter %s decreased without pull", rarity.Tier(tier))
			}
		}
		s = next
	}
	if s.Total != len(pulls) {
		t.Fatalf("total mismatch: %d", s.Total)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	if _, err := m.Get(ctx, "  "); err == nil {
		t.Fatalf("expected error for empty player id")
	}
	if err := m.Put("p1", New().With(rarity.Legendary, 59)); err != nil {
		t.Fatalf("put: %v", err)
	}
	s, err := m.Commit(ctx, "p1", rarity.Legendary)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if s.Counter(rarity.Legendary) != 0 {
		t.Fatalf("legendary counter should reset")
	}
	got, _ := m.Get(ctx, "p1")
	if got != s {
		t.Fatalf("store should persist committed state")
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := m.Commit(cctx, "p1", rarity.Common); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Commit(ctx, "p", rarity.Common)
		}()
	}
	wg.Wait()
	s, _ := m.Get(ctx, "p")
	if s.Total != 50 || s.Counter(rarity.Rare) != 50 {
		t.Fatalf("concurrent commits lost updates: %+v", s)
	}
}
