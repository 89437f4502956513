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

package stats_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/stats"
)

// buildReport constructs a Report from a list of pack values; tiers are fed directly.
func buildReport(values []int, free []int, expected []float64) *stats.Report {
	vb := stats.NewValueBuckets(nil)
	collect := make([]int, vb.Len())
	total, sq := 0, 0
	for _, v := range values {
		collect[vb.Index(v)]++
		total += v
		sq += v * v
	}
	return &stats.Report{
		Summary: &stats.SummaryReport{
			PackType: "test",
			PackSize: 5,
			Packs:    len(values),
			Attempts: len(values),
		},
		Tier: &stats.TierReport{
			Tiers:    []string{"common", "uncommon", "rare", "epic", "legendary", "mythic"},
			Slot:     free,
			Free:     free,
			Expected: expected,
			Best:     make([]int, rarity.Count),
			Holo:     make([]int, rarity.HoloCount),
		},
		Value: &stats.ValueReport{
			Total:   total,
			SqSum:   float64(sq),
			Buckets: vb.Labels(),
			Collect: collect,
		},
	}
}

func TestReportCoreMetrics(t *testing.T) {
	rep := buildReport([]int{10, 20}, make([]int, rarity.Count), make([]float64, rarity.Count))
	rep.Done()

	if got := rep.Mean(); math.Abs(got-15) > 1e-12 {
		t.Fatalf("mean got %.12f want 15", got)
	}
	wantStd := math.Sqrt(((100.0 + 400.0) - 900.0/2) / 1)
	if got := rep.Std(); math.Abs(got-wantStd) > 1e-12 {
		t.Fatalf("std got %.12f want %.12f", got, wantStd)
	}
	if math.Abs(rep.Value.Cv-wantStd/15) > 1e-12 {
		t.Fatalf("cv got %.12f", rep.Value.Cv)
	}
	if rep.Value.MeanCI.Lo > 15 || rep.Value.MeanCI.Hi < 15 {
		t.Fatalf("mean CI should contain the mean: %+v", rep.Value.MeanCI)
	}
	sum := 0
	for _, c := range rep.Value.Collect {
		sum += c
	}
	if sum != rep.Summary.Packs || len(rep.Value.Collect) != len(rep.Value.Buckets) {
		t.Fatalf("value buckets inconsistent")
	}
	mean := rep.Value.Mean
	rep.Done() // idempotent
	if rep.Value.Mean != mean {
		t.Fatalf("mean changed after second Done")
	}
}

func TestChiSquareGOF(t *testing.T) {
	exp := []float64{0.5, 0.3, 0.2, 0, 0, 0}

	exact := stats.ChiSquareGOF([]int{500, 300, 200, 0, 0, 0}, exp)
	if exact.Statistic != 0 || exact.DF != 2 || !exact.Pass || math.Abs(exact.PValue-1) > 1e-9 {
		t.Fatalf("exact match: %+v", exact)
	}

	skewed := stats.ChiSquareGOF([]int{800, 100, 100, 0, 0, 0}, exp)
	if skewed.Pass || skewed.PValue > stats.GofAlpha {
		t.Fatalf("skewed sample should fail: %+v", skewed)
	}

	imp := stats.ChiSquareGOF([]int{500, 300, 199, 1, 0, 0}, exp)
	if imp.Pass || imp.Impossible != 1 {
		t.Fatalf("observation in a zero-probability tier must fail: %+v", imp)
	}

	empty := stats.ChiSquareGOF(make([]int, 6), exp)
	if !empty.Pass || empty.Samples != 0 {
		t.Fatalf("empty sample: %+v", empty)
	}
}

func TestValueBuckets(t *testing.T) {
	vb := stats.NewValueBuckets([]int{5, 10})
	if vb.Len() != 3 || vb.Labels()[2] != "[10,+inf)" {
		t.Fatalf("labels: %v", vb.Labels())
	}
	cases := map[int]int{-3: 0, 0: 0, 4: 0, 5: 1, 9: 1, 10: 2, 999: 2}
	for v, want := range cases {
		if got := vb.Index(v); got != want {
			t.Fatalf("Index(%d) = %d want %d", v, got, want)
		}
	}
	if stats.NewValueBuckets([]int{3, 3}).Len() != len(stats.DefaultValueBounds)+1 {
		t.Fatalf("invalid bounds should fall back to defaults")
	}
}

func TestEstimatorJourneys(t *testing.T) {
	// 100 位玩家各開 20 包：第 i 位在第 (i%20)+1 包首次抽到 rare
	js := make([]stats.Journey, 100)
	for i := range js {
		js[i].Packs = 20
		first := i%20 + 1
		js[i].FirstAt[rarity.Uncommon] = 1
		js[i].FirstAt[rarity.Rare] = first
		js[i].MaxGap[rarity.Rare] = first - 1
		if i < 25 {
			js[i].FirstAt[rarity.Epic] = 20
		}
	}
	var th [rarity.Count]int
	th[rarity.Rare] = 20
	est := stats.EstimatorPlayerJourneys(js, th)
	if est.Players != 100 || est.Packs != 20 || len(est.Journeys) != rarity.Count-1 {
		t.Fatalf("shape: %+v", est)
	}
	rare := est.Journeys[rarity.Rare-1]
	if rare.Tier != "rare" || rare.Threshold != 20 || rare.Reached.Hat != 1 {
		t.Fatalf("rare journey: %+v", rare)
	}
	if rare.Within10.Hat != 0.5 {
		t.Fatalf("within 10 packs got %.2f want 0.50", rare.Within10.Hat)
	}
	if math.Abs(rare.Median.Hat-11) > 1 {
		t.Fatalf("median first pull got %.1f", rare.Median.Hat)
	}
	if rare.MaxGap != 19 || rare.MaxGap >= rare.Threshold {
		t.Fatalf("max gap %d", rare.MaxGap)
	}
	epic := est.Journeys[rarity.Epic-1]
	if epic.Reached.Hat != 0.25 || epic.Reached.CI.Lo >= 0.25 || epic.Reached.CI.Hi <= 0.25 {
		t.Fatalf("epic reach: %+v", epic.Reached)
	}
	if mythic := est.Journeys[rarity.Mythic-1]; mythic.Reached.Hat != 0 || mythic.Median.Hat != 0 {
		t.Fatalf("mythic never reached: %+v", mythic)
	}
}

func TestRenderAndCompressed(t *testing.T) {
	rep := buildReport([]int{3, 7, 12}, []int{6, 3, 1, 0, 0, 0}, []float64{0.6, 0.3, 0.1, 0, 0, 0})

	var buf bytes.Buffer
	if err := rep.WriteWith(&buf, &stats.JsonReportRender{}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back stats.Report
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil || back.Summary.Packs != 3 {
		t.Fatalf("json round trip: %v", err)
	}

	buf.Reset()
	r, err := stats.RenderByName("yaml")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := rep.WriteWith(&buf, r); err != nil || !strings.Contains(buf.String(), "Free: [6, 3, 1, 0, 0, 0]") {
		t.Fatalf("yaml flow list: %v\n%s", err, buf.String())
	}
	if _, err := stats.RenderByName("xml"); err == nil {
		t.Fatalf("unknown format should fail")
	}

	buf.Reset()
	if err := rep.WriteCompressed(&buf, &stats.JsonReportRender{}); err != nil {
		t.Fatalf("compressed: %v", err)
	}
	zr, err := zstd.NewReader(&buf)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil || !bytes.Contains(raw, []byte(`"PackType":"test"`)) {
		t.Fatalf("decompressed report: %v %s", err, raw)
	}

	var out bytes.Buffer
	rep.StdOut(&out, 0)
	if !strings.Contains(out.String(), "Chi-square") || !strings.Contains(out.String(), "rarity (free slots)") {
		t.Fatalf("table output:\n%s", out.String())
	}
}
