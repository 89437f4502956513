package packlab

import (
	"context"
	"log/slog"

	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/history"
	"github.com/zintix-labs/packlab/pity"
	"github.com/zintix-labs/packlab/spec"
)

// Opener 呼叫端的便利包裝：讀保底與歷史、跑自動迴圈、成功後提交保底並寫入歷史。
//
// 引擎本身從不寫入這兩個 Store；被否決的候選也不會被記錄。
type Opener struct {
	lab  *Packlab
	pity pity.Store
	hist history.Store
}

func NewOpener(lab *Packlab, ps pity.Store, hs history.Store) (*Opener, error) {
	if lab == nil || ps == nil || hs == nil {
		return nil, errs.Configf("opener requires an engine, a pity store and a history store")
	}
	return &Opener{lab: lab, pity: ps, hist: hs}, nil
}

// OpenRequest 單次開包請求。
type OpenRequest struct {
	PlayerID    string
	PackType    spec.PackType
	Seed        *int64
	MaxAttempts int
}

// OpenResult 開包結果；Pity 為提交後的保底狀態。
type OpenResult struct {
	*AutoResult
	Pity pity.State `json:"pity" yaml:"pity"`
}

// Open 為玩家開一包。失敗時（含 *GenerationFailure）保底與歷史皆不變。
func (o *Opener) Open(ctx context.Context, req OpenRequest) (*OpenResult, error) {
	ps, err := o.lab.Setting(req.PackType)
	if err != nil {
		return nil, err
	}
	st, err := o.pity.Get(ctx, req.PlayerID)
	if err != nil {
		return nil, err
	}
	win, err := history.Load(ctx, o.hist, req.PlayerID, ps.Validator.HistoryWindow, ps.Validator.EntropyWindow)
	if err != nil {
		return nil, err
	}

	res, err := o.lab.GeneratePackAutonomous(AutoRequest{
		PackType:    req.PackType,
		Seed:        req.Seed,
		MaxAttempts: req.MaxAttempts,
		Pity:        st,
		History:     win,
	})
	if err != nil {
		return nil, err
	}

	next, err := o.pity.Commit(ctx, req.PlayerID, res.Pack.BestRarity)
	if err != nil {
		return nil, errs.Wrap(err, "commit pity")
	}
	if err := o.hist.Record(ctx, req.PlayerID, res.Pack); err != nil {
		return nil, errs.Wrap(err, "record history")
	}
	o.lab.log.Debug("pack opened",
		slog.String("player", req.PlayerID),
		slog.String("pack_id", res.Pack.ID),
		slog.Int("pity_total", next.Total),
	)
	return &OpenResult{AutoResult: res, Pity: next}, nil
}
