package packlab

import (
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/history"
	"github.com/zintix-labs/packlab/pity"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/sdk/core"
	"github.com/zintix-labs/packlab/spec"
)

// MaxBatch 單次批次開包的上限。
const MaxBatch = 10

// BatchRequest 批次生成的輸入，欄位意義同 AutoRequest。
type BatchRequest struct {
	PackType    spec.PackType
	Seed        *int64
	Count       int
	MaxAttempts int
	Pity        pity.State
	History     history.Window
}

// BatchResult 批次生成結果。
// Pity 是假設每包都被接受後的保底狀態（預覽），引擎不會寫回任何 Store。
type BatchResult struct {
	BaseSeed   int64         `json:"base_seed"   yaml:"base_seed"`
	Results    []*AutoResult `json:"results"     yaml:"results"`
	Pity       pity.State    `json:"pity"        yaml:"pity"`
	BestRarity rarity.Tier   `json:"best_rarity" yaml:"best_rarity"`
}

// GeneratePacks 連續生成 Count 包（1..MaxBatch）。
//
// 每包走完整的自動迴圈；前一包的保底推進與指紋、輪廓會帶入下一包的輸入，
// 因此同一批內不會出現重複指紋。任一包失敗時回傳已完成的部分結果與該包的錯誤。
func (lab *Packlab) GeneratePacks(req BatchRequest) (*BatchResult, error) {
	if req.Count < 1 || req.Count > MaxBatch {
		return nil, errs.Warnf("count must be in [1,%d]: %d", MaxBatch, req.Count)
	}
	if _, err := lab.engine(req.PackType); err != nil {
		return nil, err
	}
	base, err := baseSeed(req.Seed)
	if err != nil {
		return nil, err
	}

	fps := make([]string, 0, len(req.History.Fingerprints)+req.Count)
	for fp := range req.History.Fingerprints {
		fps = append(fps, fp)
	}
	profs := append(make([][]rarity.Tier, 0, len(req.History.Profiles)+req.Count), req.History.Profiles...)

	out := &BatchResult{BaseSeed: base, Results: make([]*AutoResult, 0, req.Count), Pity: req.Pity}
	for i := 0; i < req.Count; i++ {
		seed := batchSeed(base, i)
		res, err := lab.GeneratePackAutonomous(AutoRequest{
			PackType:    req.PackType,
			Seed:        &seed,
			MaxAttempts: req.MaxAttempts,
			Pity:        out.Pity,
			History:     history.NewWindow(fps, profs),
		})
		if err != nil {
			return out, err
		}
		p := res.Pack
		out.Results = append(out.Results, res)
		out.Pity = out.Pity.Commit(p.BestRarity)
		out.BestRarity = rarity.MaxOf(out.BestRarity, p.BestRarity)
		fps = append(fps, p.Fingerprint)
		profs = append(profs, p.Profile())
	}
	return out, nil
}

// batchSeed 第 0 包直接使用 base；attempt 序號恆為正，負 offset 留給批次內的後續包。
func batchSeed(base int64, i int) int64 {
	if i == 0 {
		return base
	}
	return core.DeriveSeed(base, -i)
}
