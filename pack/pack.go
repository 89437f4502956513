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

// Package pack 卡包的組裝：純聚合，不引入任何亂數。
package pack

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/zintix-labs/packlab/corefmt"
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/pity"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/spec"
)

// packNamespace 卡包 id（UUIDv5）的命名空間。
var packNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("packlab.pack"))

// CardPick 單一卡槽的最終結果，建立後不可變。
type CardPick struct {
	Slot      int         `json:"slot"                yaml:"slot"`
	CardID    string      `json:"card_id"             yaml:"card_id"`
	Name      string      `json:"name"                yaml:"name"`
	Rarity    rarity.Tier `json:"rarity"              yaml:"rarity"`
	Holo      rarity.Holo `json:"holo"                yaml:"holo"`
	Duplicate bool        `json:"duplicate,omitempty" yaml:"duplicate,omitempty"`
}

// Meta 生成時的上下文，原樣記錄在卡包上以便重播。
type Meta struct {
	PackType   spec.PackType
	BaseSeed   int64
	Seed       int64
	Attempt    int
	Pity       pity.State
	PityForced *rarity.Tier
}

// Pack 一包卡。Picks 依卡槽順序排列，長度恆為設定的 N。
type Pack struct {
	ID          string        `json:"id"                    yaml:"id"`
	Type        spec.PackType `json:"pack_type"             yaml:"pack_type"`
	Picks       []CardPick    `json:"picks"                 yaml:"picks"`
	BestRarity  rarity.Tier   `json:"best_rarity"           yaml:"best_rarity"`
	Fingerprint string        `json:"fingerprint"           yaml:"fingerprint"`
	Value       int           `json:"value"                 yaml:"value"`
	BaseSeed    int64         `json:"base_seed"             yaml:"base_seed"`
	Seed        int64         `json:"seed"                  yaml:"seed"`
	Attempt     int           `json:"attempt"               yaml:"attempt"`
	PityForced  *rarity.Tier  `json:"pity_forced,omitempty" yaml:"pity_forced,omitempty"`
	Pity        pity.State    `json:"pity"                  yaml:"pity"`
}

// Valuer 計算單張卡的價值（spec.PackSetting 滿足此介面）。
type Valuer interface {
	Value(t rarity.Tier, h rarity.Holo) int
}

// Assemble 聚合已決定好的卡槽結果：最佳稀有度、價值、指紋與決定性 id。
func Assemble(meta Meta, picks []CardPick, algo string, v Valuer) (*Pack, error) {
	if len(picks) == 0 {
		return nil, errs.NewFatal("assemble: empty picks")
	}
	p := &Pack{
		Type:     meta.PackType,
		Picks:    slices.Clone(picks),
		BaseSeed: meta.BaseSeed,
		Seed:     meta.Seed,
		Attempt:  meta.Attempt,
		Pity:     meta.Pity,
	}
	if meta.PityForced != nil {
		t := *meta.PityForced
		p.PityForced = &t
	}
	for i := range p.Picks {
		if p.Picks[i].Slot != i {
			return nil, errs.Fatalf("assemble: pick %d has slot %d", i, p.Picks[i].Slot)
		}
		p.BestRarity = rarity.MaxOf(p.BestRarity, p.Picks[i].Rarity)
		if v != nil {
			p.Value += v.Value(p.Picks[i].Rarity, p.Picks[i].Holo)
		}
	}
	fp, err := Fingerprint(p.Picks, algo)
	if err != nil {
		return nil, err
	}
	p.Fingerprint = fp
	p.ID = packID(p)
	return p, nil
}

// Fingerprint 與順序無關的卡包內容摘要：排序後的 (card id, holo) 配對再雜湊。
func Fingerprint(picks []CardPick, algo string) (string, error) {
	keys := make([]string, len(picks))
	for i, pk := range picks {
		keys[i] = pk.CardID + "#" + pk.Holo.String()
	}
	slices.Sort(keys)
	payload := strings.Join(keys, "\n")

	switch algo {
	case "", spec.FingerprintSHA256:
		sum := sha256.Sum256([]byte(payload))
		return corefmt.EncodeHex(sum[:]), nil
	case spec.FingerprintXXHash64:
		return corefmt.Uint64Hex(xxhash.Sum64String(payload)), nil
	default:
		return "", errs.Configf("unknown fingerprint algorithm: %q", algo)
	}
}

func packID(p *Pack) string {
	name := fmt.Sprintf("%s|%d|%d|%s", p.Type, p.BaseSeed, p.Attempt, p.Fingerprint)
	return uuid.NewSHA1(packNamespace, []byte(name)).String()
}

// Profile 依卡槽順序的稀有度序列（entropy 檢查的輸入）。
func (p *Pack) Profile() []rarity.Tier {
	out := make([]rarity.Tier, len(p.Picks))
	for i, pk := range p.Picks {
		out[i] = pk.Rarity
	}
	return out
}

// CountAtLeast 回傳稀有度不低於 t 的卡數。
func (p *Pack) CountAtLeast(t rarity.Tier) int {
	n := 0
	for _, pk := range p.Picks {
		if pk.Rarity >= t {
			n++
		}
	}
	return n
}

// Duplicates 回傳被標記為包內重複的卡槽數。
func (p *Pack) Duplicates() int {
	n := 0
	for _, pk := range p.Picks {
		if pk.Duplicate {
			n++
		}
	}
	return n
}

// Clone 深拷貝。
func (p *Pack) Clone() *Pack {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Picks = slices.Clone(p.Picks)
	if p.PityForced != nil {
		t := *p.PityForced
		cp.PityForced = &t
	}
	return &cp
}
