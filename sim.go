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

package packlab

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/history"
	"github.com/zintix-labs/packlab/pity"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/recorder"
	"github.com/zintix-labs/packlab/sdk/core"
	"github.com/zintix-labs/packlab/spec"
	"github.com/zintix-labs/packlab/stats"
)

// Simulator 蒙地卡羅模擬器：大量玩家各自連續開包，平行紀錄並合併統計。
//
// 每位玩家的 seed 在派工前依序由 seedMaker 產生，因此同一個初始 seed 下，
// 不論 worker 數量與排程順序，彙總結果都相同。
type Simulator struct {
	PackType  spec.PackType
	lab       *Packlab
	ps        *spec.PackSetting
	expected  [rarity.Count]float64
	initSeed  int64
	seedmaker *seedMaker
	buckets   *stats.ValueBuckets
}

// NewSimulator 以 crypto seed 建立模擬器。
func (lab *Packlab) NewSimulator(pt spec.PackType) (*Simulator, error) {
	seed, err := core.NewCryptoSeed()
	if err != nil {
		return nil, err
	}
	return lab.NewSimulatorWithSeed(pt, seed)
}

// NewSimulatorWithSeed 以指定 seed 建立模擬器（可重現）。
func (lab *Packlab) NewSimulatorWithSeed(pt spec.PackType, seed int64) (*Simulator, error) {
	e, err := lab.engine(pt)
	if err != nil {
		return nil, err
	}
	return &Simulator{
		PackType:  e.ps.PackType,
		lab:       lab,
		ps:        e.ps,
		expected:  e.dist.Expected(),
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		buckets:   stats.NewValueBuckets(nil),
	}, nil
}

// Seed 回傳模擬器的初始 seed。
func (s *Simulator) Seed() int64 {
	return s.initSeed
}

// SetValueBuckets 自訂每包價值的分桶邊界。
func (s *Simulator) SetValueBuckets(bounds []int) {
	s.buckets = stats.NewValueBuckets(bounds)
}

// Sim 單線模擬：一位玩家連續開 packs 包，回傳統計結果與用時。
func (s *Simulator) Sim(packs int, showpb bool) (*stats.Report, time.Duration, error) {
	rep, _, used, err := s.SimPlayers(1, 1, packs, showpb)
	return rep, used, err
}

// SimMP 平行執行 mp 位玩家，每位開 packs 包，合併統計結果後回傳。
func (s *Simulator) SimMP(packs int, mp int, showpb bool) (*stats.Report, time.Duration, error) {
	rep, _, used, err := s.SimPlayers(mp, mp, packs, showpb)
	return rep, used, err
}

// SimPlayers 以 mp 個 worker 模擬 players 位玩家各開 packs 包，產出卡包報表與玩家歷程評估。
//
// 每位玩家持有自己的保底狀態與近期歷史，卡包被接受即提交保底；
// 生成失敗的包只記為失敗，保底不變。
func (s *Simulator) SimPlayers(mp int, players int, packs int, showpb bool) (*stats.Report, *stats.EstimatorPlayers, time.Duration, error) {
	if mp < 1 || players < 1 || packs < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param: workers, players and packs must > 0")
	}
	mp = min(mp, players)

	recs := make([]*recorder.PackRecorder, mp)
	for i := range recs {
		r, err := recorder.NewPackRecorder(s.ps, s.expected, s.buckets)
		if err != nil {
			return nil, nil, 0, err
		}
		recs[i] = r
	}

	// 先依序產生每位玩家的 seed，讓結果與排程無關
	seeds := make([]int64, players)
	for i := range seeds {
		seeds[i] = s.seedmaker.next()
	}
	jobs := make(chan int64, min(players, 2048))

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
		stop     atomic.Bool
	)
	bar := pb.StartNew(players)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	wg.Add(mp)
	for w := 0; w < mp; w++ {
		go func(rec *recorder.PackRecorder) {
			defer wg.Done()
			for seed := range jobs {
				if stop.Load() {
					continue
				}
				if err := s.player(rec, seed, packs); err != nil {
					errOnce.Do(func() { firstErr = err })
					stop.Store(true)
				}
				bar.Increment()
			}
		}(recs[w])
	}
	for _, seed := range seeds {
		jobs <- seed
	}
	close(jobs)
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	if firstErr != nil {
		return nil, nil, used, firstErr
	}

	merged, err := recorder.MergePackRecorder(recs)
	if err != nil {
		return nil, nil, used, err
	}
	rep := merged.Done()
	rep.Done()
	return rep, merged.Estimator(), used, nil
}

// player 單一玩家連續開包。只有設定錯誤會中止模擬。
func (s *Simulator) player(rec *recorder.PackRecorder, seed int64, packs int) error {
	rec.StartPlayer()
	defer rec.EndPlayer()

	fpN, profN := s.ps.Validator.HistoryWindow, s.ps.Validator.EntropyWindow
	st := pity.New()
	fps := make([]string, 0, fpN+1)
	profs := make([][]rarity.Tier, 0, profN+1)

	for i := 0; i < packs; i++ {
		packSeed := batchSeed(seed, i)
		res, err := s.lab.GeneratePackAutonomous(AutoRequest{
			PackType: s.PackType,
			Seed:     &packSeed,
			Pity:     st,
			History:  history.NewWindow(fps, profs),
		})
		if err != nil {
			var gf *GenerationFailure
			if errors.As(err, &gf) {
				rec.RecordFailure(gf.Reason, len(gf.Attempts))
				continue
			}
			return err
		}
		p := res.Pack
		rec.RecordWithPlayer(p, len(res.Attempts))
		st = st.Commit(p.BestRarity)
		fps = appendWindow(fps, p.Fingerprint, fpN)
		profs = appendWindow(profs, p.Profile(), profN)
	}
	return nil
}

// appendWindow 附加後只保留最後 n 筆。
func appendWindow[T any](w []T, v T, n int) []T {
	if n <= 0 {
		return w[:0]
	}
	w = append(w, v)
	if len(w) > n {
		copy(w, w[len(w)-n:])
		w = w[:n]
	}
	return w
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next state 走全週期（不重複），再用可逆 mix63 打散。
//
// 可能被多個 goroutine 同時呼叫，state 以 CAS 迴圈推進，每次呼叫取得唯一的下一個 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
