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

package pack

import (
	"testing"

	"github.com/google/uuid"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/spec"
)

type flatValue int

func (f flatValue) Value(t rarity.Tier, h rarity.Holo) int { return int(f) * (int(t) + 1) }

func picks() []CardPick {
	return []CardPick{
		{Slot: 0, CardID: "c1", Rarity: rarity.Common},
		{Slot: 1, CardID: "u1", Rarity: rarity.Uncommon, Holo: rarity.HoloStandard},
		{Slot: 2, CardID: "r1", Rarity: rarity.Rare, Holo: rarity.HoloReverse},
	}
}

func TestAssemble(t *testing.T) {
	forced := rarity.Rare
	meta := Meta{PackType: "standard", BaseSeed: 42, Seed: 99, Attempt: 2, PityForced: &forced}
	p, err := Assemble(meta, picks(), spec.FingerprintSHA256, flatValue(1))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(p.Picks) != 3 || p.BestRarity != rarity.Rare {
		t.Fatalf("aggregate wrong: %+v", p)
	}
	if p.Value != 1+2+3 {
		t.Fatalf("value: %d", p.Value)
	}
	if len(p.Fingerprint) != 64 {
		t.Fatalf("sha256 hex expected, got %q", p.Fingerprint)
	}
	if _, err := uuid.Parse(p.ID); err != nil {
		t.Fatalf("id should be a uuid: %v", err)
	}
	again, _ := Assemble(meta, picks(), spec.FingerprintSHA256, flatValue(1))
	if again.ID != p.ID || again.Fingerprint != p.Fingerprint {
		t.Fatalf("assemble must be deterministic")
	}
	forced = rarity.Mythic
	if *p.PityForced != rarity.Rare {
		t.Fatalf("pack must not alias caller metadata")
	}
	if got := p.Profile(); len(got) != 3 || got[2] != rarity.Rare {
		t.Fatalf("profile: %v", got)
	}
	if p.CountAtLeast(rarity.Uncommon) != 2 || p.Duplicates() != 0 {
		t.Fatalf("counters wrong")
	}
}

func TestFingerprintOrderIndependent(t *testing.T) {
	a := picks()
	b := []CardPick{a[2], a[0], a[1]}
	for _, algo := range []string{spec.FingerprintSHA256, spec.FingerprintXXHash64} {
		fa, err := Fingerprint(a, algo)
		if err != nil {
			t.Fatalf("%s: %v", algo, err)
		}
		fb, _ := Fingerprint(b, algo)
		if fa != fb {
			t.Fatalf("%s: fingerprint depends on order", algo)
		}
		c := picks()
		c[1].Holo = rarity.HoloNone
		fc, _ := Fingerprint(c, algo)
		if fc == fa {
			t.Fatalf("%s: holo variant must change the fingerprint", algo)
		}
	}
	x, _ := Fingerprint(a, spec.FingerprintXXHash64)
	if len(x) != 16 {
		t.Fatalf("xxhash64 hex should be 16 chars: %q", x)
	}
	if _, err := Fingerprint(a, "md5"); err == nil {
		t.Fatalf("unknown algorithm should fail")
	}
}

func TestAssembleRejectsMisorderedSlots(t *testing.T) {
	ps := picks()
	ps[0].Slot = 1
	if _, err := Assemble(Meta{}, ps, "", nil); err == nil {
		t.Fatalf("misordered slots should fail")
	}
	if _, err := Assemble(Meta{}, nil, "", nil); err == nil {
		t.Fatalf("empty picks should fail")
	}
}

func TestClone(t *testing.T) {
	p, _ := Assemble(Meta{PackType: "x"}, picks(), "", nil)
	cp := p.Clone()
	cp.Picks[0].CardID = "changed"
	if p.Picks[0].CardID != "c1" {
		t.Fatalf("clone must deep copy picks")
	}
}
