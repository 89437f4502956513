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

package stats

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/zintix-labs/packlab/rarity"
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// Journey 單一玩家的開包歷程（由 recorder 產生）。
//
// FirstAt[t]：第幾包首次抽到 t 或以上（1 起算，0 表示從未抽到）。
// MaxGap[t]：最長連續未抽到 t 或以上的包數。
type Journey struct {
	Packs   int
	FirstAt [rarity.Count]int
	MaxGap  [rarity.Count]int
}

// EstimatorPlayers 玩家體驗評估：每個稀有度「要開幾包才抽到」的分布
type EstimatorPlayers struct {
	Players  int           `json:"Players"  yaml:"Players"`
	Packs    int           `json:"Packs"    yaml:"Packs"` // 每位玩家開包數上限
	Journeys []JourneyStat `json:"Journeys" yaml:"Journeys"`
}

// JourneyStat 單一稀有度的歷程統計
type JourneyStat struct {
	Tier      string    `json:"Tier"      yaml:"Tier"`
	Threshold int       `json:"Threshold" yaml:"Threshold"` // 保底門檻，0 為無保底
	Reached   PointStat `json:"Reached"   yaml:"Reached"`   // 玩家中抽到過的比例
	Within10  PointStat `json:"Within10"  yaml:"Within10"`  // 10 包內抽到的比例
	Median    PointStat `json:"Median"    yaml:"Median"`    // 首抽包數中位數（僅抽到者）
	P90       PointStat `json:"P90"       yaml:"P90"`
	MaxGap    int       `json:"MaxGap"    yaml:"MaxGap"` // 觀測到的最長乾旱
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64 `json:"Hat" yaml:"Hat"`
	CI  CI      `json:"CI"  yaml:"CI"`
}

// ============================================================
// ** 對外 : 用戶體驗評估 **
// ============================================================

// EstimatorPlayerJourneys 玩家歷程評估
//
// 1. 抽到率：在有限包數內抽到某稀有度（或以上）的玩家比例，Clopper-Pearson 95% CI。
//
// 2. 首抽包數：抽到者的中位數與 P90（分位點 + order statistic CI）。
//
// 3. 最長乾旱：有保底的稀有度，MaxGap 必須小於門檻。
func EstimatorPlayerJourneys(js []Journey, thresholds [rarity.Count]int) *EstimatorPlayers {
	n := len(js)
	out := &EstimatorPlayers{Players: n}
	if n == 0 {
		return out
	}
	for _, j := range js {
		out.Packs = max(out.Packs, j.Packs)
	}

	for t := rarity.Uncommon; int(t) < rarity.Count; t++ {
		st := journeyStat(js, t)
		st.Threshold = thresholds[t]
		out.Journeys = append(out.Journeys, st)
	}
	return out
}

func journeyStat(js []Journey, t rarity.Tier) JourneyStat {
	n := len(js)
	first := make([]float64, 0, n)
	all := make([]float64, n)
	gap := 0
	for i, j := range js {
		gap = max(gap, j.MaxGap[t])
		if j.FirstAt[t] > 0 {
			first = append(first, float64(j.FirstAt[t]))
			all[i] = float64(j.FirstAt[t])
		} else {
			all[i] = math.Inf(1)
		}
	}
	out := JourneyStat{Tier: t.String(), MaxGap: gap}
	out.Reached.Hat, out.Reached.CI = proportionCICP(len(first), n, 0.95)
	out.Within10.Hat, out.Within10.CI = percentileCIForValue(all, 10, 0.95)
	if len(first) > 0 {
		lo, hi := quantileCI(first, 0.5, 0.95)
		out.Median = PointStat{Hat: quantilePoint(first, 0.5), CI: CI{Lo: lo, Hi: hi}}
		lo, hi = quantileCI(first, 0.9, 0.95)
		out.P90 = PointStat{Hat: quantilePoint(first, 0.9), CI: CI{Lo: lo, Hi: hi}}
	}
	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 問題：給定樣本 data 與門檻 x0，估計 p = P(X ≤ x0) 的點估計與 CI 區間
// 回傳 (pHat, CI)
func percentileCIForValue(data []float64, x0 float64, confidence float64) (pHat float64, ci CI) {
	n := len(data)
	if n == 0 {
		return 0, CI{Lo: 0, Hi: 0}
	}
	// k = 數到 <= x0 的個數
	k := 0
	for _, v := range data {
		if v <= x0 {
			k++
		}
	}
	return proportionCICP(k, n, confidence)
}

// 想估「第 q 分位」的上下界。做法：把 order statistic 的秩視為二項→Beta 反推 p 範圍，再把 p 轉回樣本索引。
// 回傳 (loValue, hiValue)
func quantileCI(data []float64, q, confidence float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	if n == 1 {
		return cp[0], cp[0]
	}

	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	// 以 CP 思想反推 p 範圍
	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := int(pLo * float64(n))
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	if li < 0 {
		li = 0
	}
	if li > n-1 {
		li = n - 1
	}
	if ui < 0 {
		ui = 0
	}
	if ui > n-1 {
		ui = n - 1
	}
	return cp[li], cp[ui]
}

// quantilePoint returns the empirical quantile point estimate at q.
func quantilePoint(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	// 最近秩法
	idx := int(q * float64(n))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return cp[idx]
}

// ============================================================
// ** 輸出函數 **
// ============================================================

// Out 以表格輸出到 w。
func (est *EstimatorPlayers) Out(w io.Writer) {
	fmt.Fprintf(w, "=== Pity journeys (%d players x %d packs) ===\n", est.Players, est.Packs)
	keys := make([]string, 0, len(est.Journeys))
	msg := make(map[string]string, len(est.Journeys))
	for _, j := range est.Journeys {
		keys = append(keys, j.Tier)
		pity := "-"
		if j.Threshold > 0 {
			pity = fmt.Sprintf("%d", j.Threshold)
		}
		msg[j.Tier] = fmt.Sprintf("reached %s | <=10 %s | median %.0f [%.0f,%.0f] | p90 %.0f | max gap %d (pity %s)",
			fmtHatCIpct01(j.Reached.Hat, j.Reached.CI),
			fmtHatCIpct01(j.Within10.Hat, j.Within10.CI),
			j.Median.Hat, j.Median.CI.Lo, j.Median.CI.Hi, j.P90.Hat, j.MaxGap, pity)
	}
	fmt.Fprintln(w, fmtTable("journeys", keys, msg))
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}
