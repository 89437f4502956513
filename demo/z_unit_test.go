package demo

import (
	"fmt"
	"testing"

	"github.com/zintix-labs/packlab"
	"github.com/zintix-labs/packlab/pack"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/spec"
	"github.com/zintix-labs/packlab/validate"
)

func TestDemoPacklab(t *testing.T) {
	lab, err := NewPacklab()
	if err != nil {
		t.Fatalf("new demo packlab: %v", err)
	}
	types := lab.Types()
	if fmt.Sprint(types) != "[premium standard]" {
		t.Fatalf("types: %v", types)
	}
	ids, err := lab.Checks("premium")
	if err != nil {
		t.Fatalf("checks: %v", err)
	}
	if ids[len(ids)-1] != TypeSpreadID {
		t.Fatalf("premium should run type_spread last: %v", ids)
	}

	seed := int64(7)
	for _, pt := range types {
		res, err := lab.GeneratePackAutonomous(packlab.AutoRequest{PackType: pt, Seed: &seed})
		if err != nil {
			t.Fatalf("%s: %v", pt, err)
		}
		ps, _ := lab.Setting(pt)
		if len(res.Pack.Picks) != ps.PackSize {
			t.Fatalf("%s: %d cards", pt, len(res.Pack.Picks))
		}
	}
}

func TestDemoCatalogCoversTiers(t *testing.T) {
	cat, err := NewCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	for _, tr := range rarity.All() {
		if len(cat.CardsByRarity(tr)) == 0 {
			t.Fatalf("no %s cards", tr)
		}
	}
}

func TestTypeSpread(t *testing.T) {
	cat, err := NewCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	ps := &spec.PackSetting{PackType: "x", PackSize: 3, Fixed: map[string]any{
		TypeSpreadID: map[string]any{"max_same_type": 2},
	}}
	if err := ps.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	c, err := newTypeSpread(ps)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// c01 / c04 / c07 同為 creature
	same := &pack.Pack{Picks: []pack.CardPick{{CardID: "c01"}, {CardID: "c04"}, {CardID: "c07"}}}
	if ok, _ := c.Run(same, &validate.Context{Setting: ps, Catalog: cat}); ok {
		t.Fatalf("three creatures should exceed max 2")
	}
	mixed := &pack.Pack{Picks: []pack.CardPick{{CardID: "c01"}, {CardID: "c02"}, {CardID: "c03"}}}
	if ok, msg := c.Run(mixed, &validate.Context{Setting: ps, Catalog: cat}); !ok {
		t.Fatalf("mixed types should pass: %s", msg)
	}

	ps.Fixed[TypeSpreadID] = map[string]any{"max_same": 2}
	if _, err := newTypeSpread(ps); err == nil {
		t.Fatalf("unknown field should fail")
	}
}
