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
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

// GofAlpha 適合度檢定的顯著水準。大量模擬下用很小的 alpha，避免把正常波動誤報成分布偏移。
const GofAlpha = 0.001

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"Lo"`
	Hi float64 `json:"Hi" yaml:"Hi"`
}

// Report 卡包模擬統計報告
type Report struct {
	Summary *SummaryReport `json:"Summary" yaml:"Summary"`
	Tier    *TierReport    `json:"Tier"    yaml:"Tier"`
	Value   *ValueReport   `json:"Value"   yaml:"Value"`
	GOF     *GofReport     `json:"GOF"     yaml:"GOF"`
	isDone  bool
}

type SummaryReport struct {
	PackType     spec.PackType `json:"PackType"     yaml:"PackType"`
	PackSize     int           `json:"PackSize"     yaml:"PackSize"`
	Packs        int           `json:"Packs"        yaml:"Packs"`
	Failures     int           `json:"Failures"     yaml:"Failures"`
	Exhausted    int           `json:"Exhausted"    yaml:"Exhausted"`
	NonRetryable int           `json:"NonRetryable" yaml:"NonRetryable"`
	FailureRate  float64       `json:"FailureRate"  yaml:"FailureRate"`
	Attempts     int           `json:"Attempts"     yaml:"Attempts"`
	MeanAttempts float64       `json:"MeanAttempts" yaml:"MeanAttempts"`
	RetryRate    float64       `json:"RetryRate"    yaml:"RetryRate"`
	RetryCI      CI            `json:"RetryCI"      yaml:"RetryCI"`
	PityPacks    int           `json:"PityPacks"    yaml:"PityPacks"`
	Duplicates   int           `json:"Duplicates"   yaml:"Duplicates"`
}

// TierReport 稀有度與閃卡分布。
//
// Slot 為所有卡槽；Free 只計非保底包的一般卡槽（無保證最低稀有度），是適合度檢定的樣本。
type TierReport struct {
	Tiers     []string  `json:"Tiers"     yaml:"Tiers"`
	Slot      []int     `json:"Slot"      yaml:"Slot"`
	SlotDist  []float64 `json:"SlotDist"  yaml:"SlotDist"`
	Free      []int     `json:"Free"      yaml:"Free"`
	FreeDist  []float64 `json:"FreeDist"  yaml:"FreeDist"`
	Expected  []float64 `json:"Expected"  yaml:"Expected"`
	Best      []int     `json:"Best"      yaml:"Best"`
	BestDist  []float64 `json:"BestDist"  yaml:"BestDist"`
	HoloNames []string  `json:"HoloNames" yaml:"HoloNames"`
	Holo      []int     `json:"Holo"      yaml:"Holo"`
}

// ValueReport 每包價值
type ValueReport struct {
	Total   int       `json:"Total"   yaml:"Total"`
	SqSum   float64   `json:"SqSum"   yaml:"SqSum"` // 平方和
	Mean    float64   `json:"Mean"    yaml:"Mean"`
	MeanCI  CI        `json:"MeanCI"  yaml:"MeanCI"`
	Std     float64   `json:"Std"     yaml:"Std"`
	Cv      float64   `json:"Cv"      yaml:"Cv"`
	Buckets []string  `json:"Buckets" yaml:"Buckets"`
	Collect []int     `json:"Collect" yaml:"Collect"`
	Dist    []float64 `json:"Dist"    yaml:"Dist"`
}

// GofReport 一般卡槽稀有度對理論分布的卡方適合度檢定
type GofReport struct {
	Samples   int     `json:"Samples"   yaml:"Samples"`
	Statistic float64 `json:"Statistic" yaml:"Statistic"`
	DF        int     `json:"DF"        yaml:"DF"`
	PValue    float64 `json:"PValue"    yaml:"PValue"`
	// Impossible 落在理論機率為 0 之類別的觀測數，大於 0 即不通過
	Impossible int  `json:"Impossible" yaml:"Impossible"`
	Pass       bool `json:"Pass"       yaml:"Pass"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為比例、信賴區間與檢定結果，重複呼叫無副作用。
//
// 紀錄過程只處理 int，全部完成後一次性計算。
func (r *Report) Done() {
	if r.isDone {
		return
	}
	s := r.Summary
	total := s.Packs + s.Failures
	if total > 0 {
		s.FailureRate = float64(s.Failures) / float64(total)
		s.MeanAttempts = float64(s.Attempts) / float64(total)
	}
	// 重試率：每次嘗試中被否決的比例
	retries := s.Attempts - s.Packs
	s.RetryRate, s.RetryCI = proportionCICP(retries, s.Attempts, 0.95)

	r.Tier.SlotDist = dist(r.Tier.Slot)
	r.Tier.FreeDist = dist(r.Tier.Free)
	r.Tier.BestDist = dist(r.Tier.Best)
	r.Value.Dist = dist(r.Value.Collect)
	r.Value.Mean = r.Mean()
	r.Value.Std = r.Std()
	r.Value.MeanCI = r.Ci()
	if r.Value.Mean > 0 {
		r.Value.Cv = r.Value.Std / r.Value.Mean
	}
	r.GOF = ChiSquareGOF(r.Tier.Free, r.Tier.Expected)
	r.isDone = true
}

// Mean 每包平均價值
func (r *Report) Mean() float64 {
	if r.Summary.Packs == 0 {
		return 0
	}
	return float64(r.Value.Total) / float64(r.Summary.Packs)
}

// Std 每包價值的樣本標準差
func (r *Report) Std() float64 {
	n := float64(r.Summary.Packs)
	if n < 2 {
		return 0
	}
	sum := float64(r.Value.Total)
	variance := (r.Value.SqSum - sum*sum/n) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Ci 每包平均價值的 95% 信賴區間（常態近似）
func (r *Report) Ci() CI {
	mean := r.Mean()
	se := 0.0
	if r.Summary.Packs > 1 {
		se = r.Std() / math.Sqrt(float64(r.Summary.Packs))
	}
	return CI{Lo: max(mean-1.96*se, 0), Hi: mean + 1.96*se}
}

// ChiSquareGOF 觀測次數對理論機率的卡方適合度檢定。
// 理論機率為 0 的類別必須觀測為 0，否則直接判定不通過；這些類別不計入自由度。
func ChiSquareGOF(observed []int, expected []float64) *GofReport {
	out := &GofReport{}
	if len(observed) != len(expected) {
		return out
	}
	n := 0
	for _, o := range observed {
		n += o
	}
	out.Samples = n
	if n == 0 {
		out.PValue = 1
		out.Pass = true
		return out
	}
	k := 0
	for i, p := range expected {
		if p <= 0 {
			out.Impossible += observed[i]
			continue
		}
		e := p * float64(n)
		d := float64(observed[i]) - e
		out.Statistic += d * d / e
		k++
	}
	out.DF = max(k-1, 0)
	switch {
	case out.Impossible > 0:
		out.PValue = 0
	case out.DF == 0:
		out.PValue = 1
	default:
		out.PValue = distuv.ChiSquared{K: float64(out.DF)}.Survival(out.Statistic)
	}
	out.Pass = out.PValue >= GofAlpha
	return out
}

func (r *Report) WriteWith(w io.Writer, rep ReportRender) error {
	r.Done()
	return rep.Write(w, r)
}

// StdOut 以表格輸出摘要到 w。
func (r *Report) StdOut(w io.Writer, used time.Duration) {
	r.Done()
	fmt.Fprint(w, formatDuration(used, r.Summary.Packs+r.Summary.Failures))
	keys, msg := r.fmtBasic()
	fmt.Fprintln(w, fmtTable(string(r.Summary.PackType), keys, msg))
	keys, msg = r.fmtTiers()
	fmt.Fprintln(w, fmtTable("rarity (free slots)", keys, msg))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func dist(c []int) []float64 {
	n := 0
	for _, v := range c {
		n += v
	}
	out := make([]float64, len(c))
	if n == 0 {
		return out
	}
	for i, v := range c {
		out[i] = float64(v) / float64(n)
	}
	return out
}

func formatDuration(d time.Duration, packs int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	pps := int(float64(packs) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\npps : %d packs/sec\n", sec, pps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\npps : %d packs/sec\n", m, s, pps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\npps : %d packs/sec\n", h, m, s, pps)
}

func (r *Report) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	s := r.Summary
	gof := "pass"
	if !r.GOF.Pass {
		gof = "FAIL"
	}
	basic := map[string]string{
		"Pack Type":     string(s.PackType),
		"Pack Size":     p.Sprintf("%d", s.PackSize),
		"Packs":         p.Sprintf("%d", s.Packs),
		"Failures":      p.Sprintf("%d (%.3f %%)", s.Failures, 100*s.FailureRate),
		"Attempts":      p.Sprintf("%d", s.Attempts),
		"Mean Attempts": p.Sprintf("%.4f", s.MeanAttempts),
		"Retry Rate":    p.Sprintf("%.3f %% [%.3f%%,%.3f%%]", 100*s.RetryRate, 100*s.RetryCI.Lo, 100*s.RetryCI.Hi),
		"Pity Packs":    p.Sprintf("%d", s.PityPacks),
		"Duplicates":    p.Sprintf("%d", s.Duplicates),
		"Mean Value":    p.Sprintf("%.3f [%.3f,%.3f]", r.Value.Mean, r.Value.MeanCI.Lo, r.Value.MeanCI.Hi),
		"Value STD":     p.Sprintf("%.3f", r.Value.Std),
		"Chi-square":    p.Sprintf("%.3f (df=%d, p=%.4f) %s", r.GOF.Statistic, r.GOF.DF, r.GOF.PValue, gof),
	}
	keys := []string{"Pack Type", "Pack Size", "Packs", "Failures", "Attempts", "Mean Attempts", "Retry Rate", "Pity Packs", "Duplicates", "Mean Value", "Value STD", "Chi-square"}
	return keys, basic
}

func (r *Report) fmtTiers() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, rarity.Count)
	msg := make(map[string]string, rarity.Count)
	for i, name := range r.Tier.Tiers {
		keys = append(keys, name)
		msg[name] = p.Sprintf("%d  %.4f %%  (exp %.4f %%)", r.Tier.Free[i], 100*r.Tier.FreeDist[i], 100*r.Tier.Expected[i])
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	maxKeyLen := runewidth.StringWidth(title)
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString("|" + blank(left) + title + blank(right) + "|\n")
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString("| " + k + blank(maxKeyLen-2-runewidth.StringWidth(k)) + " | " + msg[k] + blank(maxValLen-2-runewidth.StringWidth(msg[k])) + " |\n")
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
