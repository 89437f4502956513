package validate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/zintix-labs/packlab/pack"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/spec"
	"gonum.org/v1/gonum/stat"
)

// baseCheck 提供 ID / Label / Retryable 的共用實作。
type baseCheck struct {
	id        string
	label     string
	retryable bool
}

func (b baseCheck) ID() string      { return b.id }
func (b baseCheck) Label() string   { return b.label }
func (b baseCheck) Retryable() bool { return b.retryable }

// ---------------------------------------------------------------------------
// duplicate：指紋不得出現在近期窗口（可重試）
// ---------------------------------------------------------------------------

type duplicateCheck struct {
	baseCheck
	window int
}

func newDuplicateCheck(ps *spec.PackSetting) (Check, error) {
	return &duplicateCheck{
		baseCheck: baseCheck{id: "duplicate", label: "Duplicate pack", retryable: true},
		window:    ps.Validator.HistoryWindow,
	}, nil
}

func (c *duplicateCheck) Run(p *pack.Pack, ctx *Context) (bool, string) {
	if ctx.History.Has(p.Fingerprint) {
		return false, fmt.Sprintf("fingerprint %s already seen in the last %d packs", short(p.Fingerprint), c.window)
	}
	return true, ""
}

// ---------------------------------------------------------------------------
// rarity：稀有度合法性（不可重試，代表生成邏輯或設定有 bug）
// ---------------------------------------------------------------------------

type rarityCheck struct {
	baseCheck
}

func newRarityCheck(*spec.PackSetting) (Check, error) {
	return &rarityCheck{baseCheck{id: "rarity", label: "Rarity rules", retryable: false}}, nil
}

func (c *rarityCheck) Run(p *pack.Pack, ctx *Context) (bool, string) {
	ps := ctx.Setting
	if ps == nil {
		return false, "no pack setting in context"
	}
	var problems []string
	if len(p.Picks) != ps.PackSize {
		problems = append(problems, fmt.Sprintf("pack has %d cards, expected %d", len(p.Picks), ps.PackSize))
	}

	best := rarity.Common
	for i, pk := range p.Picks {
		if pk.Slot != i {
			problems = append(problems, fmt.Sprintf("slot %d out of order (%d)", i, pk.Slot))
		}
		best = rarity.MaxOf(best, pk.Rarity)
		if ctx.Catalog != nil {
			card, ok := ctx.Catalog.Card(pk.CardID)
			if !ok {
				problems = append(problems, fmt.Sprintf("slot %d references unknown card %q", i, pk.CardID))
			} else {
				if card.Rarity != pk.Rarity {
					problems = append(problems, fmt.Sprintf("slot %d rolled %s but card %s is %s", i, pk.Rarity, pk.CardID, card.Rarity))
				}
				if !ps.InSeries(card.Series) {
					problems = append(problems, fmt.Sprintf("slot %d card %s is from series %q, not %q", i, pk.CardID, card.Series, ps.Series))
				}
			}
		}
		if min, ok := ps.Rarity.Guaranteed[i]; ok && pk.Rarity < min {
			problems = append(problems, fmt.Sprintf("slot %d is %s, below guaranteed %s", i, pk.Rarity, min))
		}
		if pk.Rarity > ps.Rarity.MaxTier {
			problems = append(problems, fmt.Sprintf("slot %d is %s, above max tier %s", i, pk.Rarity, ps.Rarity.MaxTier))
		}
	}
	if len(p.Picks) > 0 && p.BestRarity != best {
		problems = append(problems, fmt.Sprintf("best rarity %s does not match picks (%s)", p.BestRarity, best))
	}
	if p.PityForced != nil && p.CountAtLeast(*p.PityForced) == 0 {
		problems = append(problems, fmt.Sprintf("pity forced %s but pack has none", *p.PityForced))
	}

	if len(problems) > 0 {
		return false, strings.Join(problems, "; ")
	}
	return true, ""
}

// ---------------------------------------------------------------------------
// stats：卡片數值範圍（不可重試，代表卡池資料損毀）
// ---------------------------------------------------------------------------

type statsCheck struct {
	baseCheck
	lo, hi int
}

func newStatsCheck(ps *spec.PackSetting) (Check, error) {
	return &statsCheck{
		baseCheck: baseCheck{id: "stats", label: "Card stats", retryable: false},
		lo:        ps.Validator.StatLo,
		hi:        ps.Validator.StatHi,
	}, nil
}

func (c *statsCheck) Run(p *pack.Pack, ctx *Context) (bool, string) {
	if ctx.Catalog == nil {
		return false, "no catalog in context"
	}
	var problems []string
	for _, pk := range p.Picks {
		card, ok := ctx.Catalog.Card(pk.CardID)
		if !ok {
			// 不存在的卡由 rarity 檢查回報
			continue
		}
		names := make([]string, 0, len(card.Stats))
		for k := range card.Stats {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			if v := card.Stats[k]; v < c.lo || v > c.hi {
				problems = append(problems, fmt.Sprintf("card %s stat %s=%d outside [%d,%d]", card.ID, k, v, c.lo, c.hi))
			}
		}
	}
	if len(problems) > 0 {
		return false, strings.Join(problems, "; ")
	}
	return true, ""
}

// ---------------------------------------------------------------------------
// entropy：近期窗口的統計異常（可重試；只否決當前這包，不改寫歷史）
// ---------------------------------------------------------------------------

type entropyCheck struct {
	baseCheck
	window     int
	minHistory int
	minVar     float64
	minBits    float64
}

func newEntropyCheck(ps *spec.PackSetting) (Check, error) {
	vs := ps.Validator
	return &entropyCheck{
		baseCheck:  baseCheck{id: "entropy", label: "Entropy", retryable: true},
		window:     vs.EntropyWindow,
		minHistory: vs.EntropyMinHistory,
		minVar:     vs.EntropyMinVariance,
		minBits:    vs.EntropyMinBits,
	}, nil
}

func (c *entropyCheck) Run(p *pack.Pack, ctx *Context) (bool, string) {
	profiles := ctx.History.Profiles
	if len(profiles) > c.window {
		profiles = profiles[len(profiles)-c.window:]
	}
	if len(profiles) < c.minHistory {
		return true, fmt.Sprintf("insufficient history (%d of %d packs), skipped", len(profiles), c.minHistory)
	}

	samples := make([]float64, 0, (len(profiles)+1)*len(p.Picks))
	var hist [rarity.Count]float64
	add := func(t rarity.Tier) {
		samples = append(samples, float64(t))
		if t.Valid() {
			hist[t]++
		}
	}
	for _, prof := range profiles {
		for _, t := range prof {
			add(t)
		}
	}
	for _, pk := range p.Picks {
		add(pk.Rarity)
	}
	if len(samples) < 2 {
		return true, "not enough samples, skipped"
	}

	variance := stat.Variance(samples, nil)
	for i := range hist {
		hist[i] /= float64(len(samples))
	}
	bits := stat.Entropy(hist[:]) / math.Ln2

	var problems []string
	if variance < c.minVar {
		problems = append(problems, fmt.Sprintf("tier variance %.4f below %.4f", variance, c.minVar))
	}
	if bits < c.minBits {
		problems = append(problems, fmt.Sprintf("tier entropy %.3f bits below %.3f", bits, c.minBits))
	}
	if len(problems) > 0 {
		return false, strings.Join(problems, "; ") + fmt.Sprintf(" over %d packs", len(profiles)+1)
	}
	return true, ""
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
