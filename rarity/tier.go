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

// Package rarity 定義稀有度等級（封閉、有序的列舉），以及把亂數與保底狀態映射成單一卡槽稀有度的 Distributor。
package rarity

import (
	"strings"

	"github.com/zintix-labs/packlab/errs"
)

// Tier 稀有度等級，數值越大越稀有。
type Tier uint8

const (
	Common Tier = iota
	Uncommon
	Rare
	Epic
	Legendary
	Mythic
)

// Count 稀有度數量，可作為以 Tier 為索引的陣列長度。
const Count = int(Mythic) + 1

var tierNames = [Count]string{"common", "uncommon", "rare", "epic", "legendary", "mythic"}

// All 由常見到稀有回傳全部等級。
func All() []Tier {
	return []Tier{Common, Uncommon, Rare, Epic, Legendary, Mythic}
}

func (t Tier) Valid() bool { return int(t) < Count }

func (t Tier) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return tierNames[t]
}

// Parse 將名稱（大小寫不敏感）轉為 Tier。
func Parse(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range tierNames {
		if n == s {
			return Tier(i), nil
		}
	}
	return Common, errs.Fatalf("unknown rarity tier: %q", s)
}

// AtLeast 回傳 t 是否不低於 min。
func (t Tier) AtLeast(min Tier) bool { return t >= min }

// MaxOf 回傳兩者中較稀有者。
func MaxOf(a, b Tier) Tier {
	if a > b {
		return a
	}
	return b
}

// MinOf 回傳兩者中較常見者。
func MinOf(a, b Tier) Tier {
	if a < b {
		return a
	}
	return b
}

// MarshalText 讓 Tier 在 JSON / YAML 中以名稱表示。
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, errs.Fatalf("invalid rarity tier: %d", uint8(t))
	}
	return []byte(tierNames[t]), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
