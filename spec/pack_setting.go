package spec

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/rarity"
)

// PackType 卡包種類鍵（例如 standard、premium）。
type PackType string

// Norm 去除空白並轉小寫。
func (p PackType) Norm() PackType {
	return PackType(strings.ToLower(strings.TrimSpace(string(p))))
}

const defaultMaxAttempts = 5

// PackSetting 一種卡包的完整設定。Series 非空時只從該系列的卡抽（不分大小寫）。
type PackSetting struct {
	PackType        PackType         `yaml:"pack_type"        json:"pack_type"`
	Name            string           `yaml:"name"             json:"name"`
	Series          string           `yaml:"series"           json:"series,omitempty"`
	PackSize        int              `yaml:"pack_size"        json:"pack_size"`
	Variance        float64          `yaml:"variance"         json:"variance"`
	MaxTier         *rarity.Tier     `yaml:"max_tier"         json:"max_tier,omitempty"`
	PitySlot        *int             `yaml:"pity_slot"        json:"pity_slot,omitempty"`
	Tiers           []TierSetting    `yaml:"tiers"            json:"tiers"`
	GuaranteedSlots []GuaranteedSlot `yaml:"guaranteed_slots" json:"guaranteed_slots"`
	Holo            []HoloSetting    `yaml:"holo"             json:"holo"`
	HoloBonus       map[string]int   `yaml:"holo_bonus"       json:"holo_bonus,omitempty"`
	Validator       ValidatorSetting `yaml:"validator"        json:"validator"`
	Loop            LoopSetting      `yaml:"loop"             json:"loop"`
	Fixed           map[string]any   `yaml:"fixed"            json:"fixed,omitempty"`

	// 衍生欄位
	Rarity      rarity.Config                       `yaml:"-" json:"-"`
	TierValue   [rarity.Count]int                   `yaml:"-" json:"-"`
	HoloWeights [rarity.Count][rarity.HoloCount]int `yaml:"-" json:"-"`
	HoloValue   [rarity.HoloCount]int               `yaml:"-" json:"-"`
	initFlag    bool
}

// TierSetting 單一稀有度的基礎機率、保底門檻與價值。
type TierSetting struct {
	Tier     rarity.Tier `yaml:"tier"      json:"tier"`
	BaseProb float64     `yaml:"base_prob" json:"base_prob"`
	Pity     int         `yaml:"pity"      json:"pity"`
	Value    int         `yaml:"value"     json:"value"`
}

// GuaranteedSlot 卡槽最低稀有度。
type GuaranteedSlot struct {
	Slot    int         `yaml:"slot"     json:"slot"`
	MinTier rarity.Tier `yaml:"min_tier" json:"min_tier"`
}

// HoloSetting 單一稀有度的閃卡權重，鍵為版本名稱。
type HoloSetting struct {
	Tier    rarity.Tier    `yaml:"tier"    json:"tier"`
	Weights map[string]int `yaml:"weights" json:"weights"`
}

// LoopSetting 自動重試迴圈設定。
type LoopSetting struct {
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// InSeries 回報卡片系列是否符合此卡包；未限定系列時恆為 true。
func (ps *PackSetting) InSeries(series string) bool {
	return ps.Series == "" || strings.EqualFold(ps.Series, strings.TrimSpace(series))
}

// Init 檢查設定、補預設值並計算衍生欄位。重複呼叫無副作用。
func (ps *PackSetting) Init() error {
	if ps.initFlag {
		return nil
	}
	ps.PackType = ps.PackType.Norm()
	if ps.PackType == "" {
		return errs.Configf("pack_type required")
	}
	if ps.PackSize <= 0 {
		return errs.Configf("pack %s: pack_size must be positive", ps.PackType)
	}
	if ps.Name == "" {
		ps.Name = string(ps.PackType)
	}
	ps.Series = strings.TrimSpace(ps.Series)
	if ps.Loop.MaxAttempts < 0 {
		return errs.Configf("pack %s: loop.max_attempts must not be negative", ps.PackType)
	}
	if ps.Loop.MaxAttempts == 0 {
		ps.Loop.MaxAttempts = defaultMaxAttempts
	}

	cfg := rarity.Config{
		PackSize:   ps.PackSize,
		MaxTier:    rarity.Mythic,
		PitySlot:   ps.PackSize - 1,
		Variance:   ps.Variance,
		Guaranteed: make(map[int]rarity.Tier, len(ps.GuaranteedSlots)),
	}
	if ps.PitySlot != nil {
		cfg.PitySlot = *ps.PitySlot
	}
	if ps.MaxTier != nil {
		cfg.MaxTier = *ps.MaxTier
	}

	seenTier := [rarity.Count]bool{}
	for _, ts := range ps.Tiers {
		if !ts.Tier.Valid() {
			return errs.Configf("pack %s: invalid tier in tiers", ps.PackType)
		}
		if seenTier[ts.Tier] {
			return errs.Configf("pack %s: duplicate tier %s", ps.PackType, ts.Tier)
		}
		seenTier[ts.Tier] = true
		if ts.Value < 0 {
			return errs.Configf("pack %s: negative value for %s", ps.PackType, ts.Tier)
		}
		cfg.BaseProb[ts.Tier] = ts.BaseProb
		cfg.Pity[ts.Tier] = ts.Pity
		ps.TierValue[ts.Tier] = ts.Value
	}
	for _, g := range ps.GuaranteedSlots {
		if _, dup := cfg.Guaranteed[g.Slot]; dup {
			return errs.Configf("pack %s: duplicate guaranteed slot %d", ps.PackType, g.Slot)
		}
		cfg.Guaranteed[g.Slot] = g.MinTier
	}
	if err := cfg.Validate(); err != nil {
		return errs.WrapWithExtra(err, "invalid rarity setting", string(ps.PackType))
	}
	ps.Rarity = cfg

	if err := ps.initHolo(); err != nil {
		return err
	}
	if err := ps.Validator.init(); err != nil {
		return errs.WrapWithExtra(err, "invalid validator setting", string(ps.PackType))
	}
	ps.initFlag = true
	return nil
}

func (ps *PackSetting) initHolo() error {
	for t := range ps.HoloWeights {
		ps.HoloWeights[t] = rarity.DefaultHoloWeights(rarity.Tier(t))
	}
	seen := [rarity.Count]bool{}
	for _, hs := range ps.Holo {
		if !hs.Tier.Valid() {
			return errs.Configf("pack %s: invalid tier in holo", ps.PackType)
		}
		if seen[hs.Tier] {
			return errs.Configf("pack %s: duplicate holo tier %s", ps.PackType, hs.Tier)
		}
		seen[hs.Tier] = true
		var w [rarity.HoloCount]int
		total := 0
		for name, v := range hs.Weights {
			h, err := rarity.ParseHolo(name)
			if err != nil {
				return errs.Configf("pack %s: holo %s: %v", ps.PackType, hs.Tier, err)
			}
			if v < 0 {
				return errs.Configf("pack %s: holo %s: negative weight for %s", ps.PackType, hs.Tier, h)
			}
			w[h] = v
			total += v
		}
		if total == 0 {
			return errs.Configf("pack %s: holo %s: all weights are zero", ps.PackType, hs.Tier)
		}
		ps.HoloWeights[hs.Tier] = w
	}

	ps.HoloValue = rarity.DefaultHoloBonus()
	for name, v := range ps.HoloBonus {
		h, err := rarity.ParseHolo(name)
		if err != nil {
			return errs.Configf("pack %s: holo_bonus: %v", ps.PackType, err)
		}
		ps.HoloValue[h] = v
	}
	return nil
}

// Value 單張卡片的價值：稀有度價值加閃卡加成。
func (ps *PackSetting) Value(t rarity.Tier, h rarity.Holo) int {
	v := 0
	if t.Valid() {
		v += ps.TierValue[t]
	}
	if h.Valid() {
		v += ps.HoloValue[h]
	}
	return v
}

// MaxAttempts 呼叫端的值大於 0 時優先，否則使用設定值。
func (ps *PackSetting) MaxAttempts(requested int) int {
	if requested > 0 {
		return requested
	}
	return ps.Loop.MaxAttempts
}

func (ps *PackSetting) String() string {
	return fmt.Sprintf("%s(n=%d,max=%s)", ps.PackType, ps.PackSize, ps.Rarity.MaxTier)
}
