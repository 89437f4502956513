package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/zintix-labs/packlab/pack"
	"github.com/zintix-labs/packlab/rarity"
)

func fakePack(i int) *pack.Pack {
	return &pack.Pack{
		Fingerprint: fmt.Sprintf("fp-%d", i),
		Picks:       []pack.CardPick{{Rarity: rarity.Tier(i % rarity.Count)}},
	}
}

func TestMemoryStoreRing(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(3)
	for i := 0; i < 5; i++ {
		if err := m.Record(ctx, "p1", fakePack(i)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	fps, err := m.RecentFingerprints(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("fingerprints: %v", err)
	}
	want := []string{"fp-2", "fp-3", "fp-4"}
	if fmt.Sprint(fps) != fmt.Sprint(want) {
		t.Fatalf("ring order: got %v want %v", fps, want)
	}
	last, _ := m.RecentFingerprints(ctx, "p1", 1)
	if len(last) != 1 || last[0] != "fp-4" {
		t.Fatalf("last one: %v", last)
	}
	profs, _ := m.RecentProfiles(ctx, "p1", 2)
	if len(profs) != 2 || profs[1][0] != rarity.Tier(4) {
		t.Fatalf("profiles: %v", profs)
	}
	none, _ := m.RecentFingerprints(ctx, "nobody", 5)
	if len(none) != 0 {
		t.Fatalf("unknown player should have empty history")
	}
}

func TestLoadWindow(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(10)
	for i := 0; i < 4; i++ {
		_ = m.Record(ctx, "p", fakePack(i))
	}
	w, err := Load(ctx, m, "p", 2, 3)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !w.Has("fp-3") || !w.Has("fp-2") || w.Has("fp-1") {
		t.Fatalf("fingerprint window wrong: %v", w.Fingerprints)
	}
	if len(w.Profiles) != 3 {
		t.Fatalf("profile window: %d", len(w.Profiles))
	}
	if _, err := Load(ctx, m, " ", 1, 1); err == nil {
		t.Fatalf("empty player id should fail")
	}
}

func TestNewWindowCopies(t *testing.T) {
	prof := []rarity.Tier{rarity.Rare}
	w := NewWindow([]string{"a"}, [][]rarity.Tier{prof})
	prof[0] = rarity.Mythic
	if w.Profiles[0][0] != rarity.Rare {
		t.Fatalf("window must copy profiles")
	}
}
