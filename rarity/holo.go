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

package rarity

import (
	"strings"

	"github.com/zintix-labs/packlab/errs"
)

// Holo 閃卡版本，純外觀，與稀有度獨立。
type Holo uint8

const (
	HoloNone Holo = iota
	HoloStandard
	HoloReverse
	HoloFullArt
	HoloPrismatic
)

// HoloCount 閃卡版本數量。
const HoloCount = int(HoloPrismatic) + 1

var holoNames = [HoloCount]string{"none", "standard", "reverse", "full_art", "prismatic"}

func (h Holo) Valid() bool { return int(h) < HoloCount }

func (h Holo) String() string {
	if !h.Valid() {
		return "unknown"
	}
	return holoNames[h]
}

func ParseHolo(s string) (Holo, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range holoNames {
		if n == s {
			return Holo(i), nil
		}
	}
	return HoloNone, errs.Fatalf("unknown holo variant: %q", s)
}

func (h Holo) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, errs.Fatalf("invalid holo variant: %d", uint8(h))
	}
	return []byte(holoNames[h]), nil
}

func (h *Holo) UnmarshalText(b []byte) error {
	v, err := ParseHolo(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// DefaultHoloWeights 未設定時各稀有度的閃卡權重（依 Holo 順序）。
// 越稀有 reverse / full_art 機會越高，prismatic 只在 mythic 出現。
func DefaultHoloWeights(t Tier) [HoloCount]int {
	switch t {
	case Common:
		return [HoloCount]int{90, 10, 0, 0, 0}
	case Uncommon:
		return [HoloCount]int{80, 15, 5, 0, 0}
	case Rare:
		return [HoloCount]int{60, 25, 12, 3, 0}
	case Epic:
		return [HoloCount]int{40, 30, 20, 10, 0}
	case Legendary:
		return [HoloCount]int{20, 30, 30, 20, 0}
	default:
		return [HoloCount]int{5, 20, 30, 30, 15}
	}
}

// DefaultHoloBonus 閃卡版本對卡包價值的加成。
func DefaultHoloBonus() [HoloCount]int {
	return [HoloCount]int{0, 1, 2, 5, 20}
}
