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
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/history"
	"github.com/zintix-labs/packlab/pack"
	"github.com/zintix-labs/packlab/pity"
	"github.com/zintix-labs/packlab/sdk/core"
	"github.com/zintix-labs/packlab/spec"
	"github.com/zintix-labs/packlab/validate"
)

// AttemptMeta 單次嘗試的紀錄。
type AttemptMeta struct {
	Attempt  int              `json:"attempt"  yaml:"attempt"`
	Seed     int64            `json:"seed"     yaml:"seed"`
	Duration time.Duration    `json:"duration" yaml:"duration"`
	Outcome  validate.Outcome `json:"outcome"  yaml:"outcome"`
}

// AutoRequest 自動生成的輸入。
//
// Seed 為 nil 時以 crypto/rand 產生，產生的 seed 記錄在卡包上，卡包仍可重播。
// MaxAttempts <= 0 時使用設定檔的 loop.max_attempts。
type AutoRequest struct {
	PackType    spec.PackType
	Seed        *int64
	MaxAttempts int
	Pity        pity.State
	History     history.Window
}

// AutoResult 自動生成成功的結果。
type AutoResult struct {
	Pack           *pack.Pack      `json:"pack"            yaml:"pack"`
	Attempts       []AttemptMeta   `json:"attempts"        yaml:"attempts"`
	LastValidation validate.Result `json:"last_validation" yaml:"last_validation"`
}

// GenerationFailure 自動生成失敗。Reason 為 non_retryable 或 exhausted，
// 以 errors.As 取得；errors.Is(err, errs.Exhausted) 等哨兵比對亦成立。
type GenerationFailure struct {
	PackType       spec.PackType   `json:"pack_type"       yaml:"pack_type"`
	Reason         errs.Code       `json:"reason"          yaml:"reason"`
	BaseSeed       int64           `json:"base_seed"       yaml:"base_seed"`
	Attempts       []AttemptMeta   `json:"attempts"        yaml:"attempts"`
	LastValidation validate.Result `json:"last_validation" yaml:"last_validation"`
	LastPack       *pack.Pack      `json:"last_pack"       yaml:"last_pack"`
}

func (f *GenerationFailure) Error() string {
	return fmt.Sprintf("generate %s: %s after %d attempt(s): %s",
		f.PackType, f.Reason, len(f.Attempts), strings.Join(f.LastValidation.Violations, "; "))
}

// Unwrap 讓 errors.Is(err, errs.NonRetryable / errs.Exhausted) 成立。
func (f *GenerationFailure) Unwrap() error {
	lv := errs.Fatal
	if f.Reason == errs.CodeExhausted {
		lv = errs.Warn
	}
	return errs.New(lv, "generation failed").WithCode(f.Reason)
}

// ValidatePackBeforeOpen 獨立執行開包前檢查。卡包本身與 h 皆不會被修改。
func (lab *Packlab) ValidatePackBeforeOpen(p *pack.Pack, h history.Window) (validate.Result, error) {
	if p == nil {
		return validate.Result{}, errs.NewWarn("validate: nil pack")
	}
	e, err := lab.engine(p.Type)
	if err != nil {
		return validate.Result{}, err
	}
	return e.val.Validate(p, lab.context(e, h)), nil
}

func (lab *Packlab) context(e *engine, h history.Window) *validate.Context {
	return &validate.Context{Setting: e.ps, Catalog: lab.cat, History: h}
}

// GeneratePackAutonomous 生成並驗證，直到成功、遇到不可重試的失敗、或嘗試次數用盡。
//
// 狀態機：GENERATING -> VALIDATING -> SUCCESS | RETRY(回到 GENERATING) | FAILURE。
// 第 k 次嘗試使用 DeriveSeed(base, k) 與全新的 Core，被否決的候選不寫入任何歷史。
// 設定錯誤直接以 config 分類回報；其他失敗回傳 *GenerationFailure。
func (lab *Packlab) GeneratePackAutonomous(req AutoRequest) (*AutoResult, error) {
	e, err := lab.engine(req.PackType)
	if err != nil {
		return nil, err
	}
	base, err := baseSeed(req.Seed)
	if err != nil {
		return nil, err
	}
	max := e.ps.MaxAttempts(req.MaxAttempts)
	vctx := lab.context(e, req.History)
	attempts := make([]AttemptMeta, 0, max)

	var (
		last     validate.Result
		lastPack *pack.Pack
	)
	for a := firstAttempt; a < firstAttempt+max; a++ {
		start := time.Now()
		p, err := e.generate(base, a, req.Pity)
		if err != nil {
			return nil, err
		}
		last = e.val.Validate(p, vctx)
		lastPack = p
		am := AttemptMeta{Attempt: a, Seed: p.Seed, Duration: time.Since(start), Outcome: last.Outcome}
		attempts = append(attempts, am)
		lab.log.Debug("attempt",
			slog.String("pack_type", string(e.ps.PackType)),
			slog.Int("attempt", a),
			slog.Int64("seed", p.Seed),
			slog.String("outcome", string(last.Outcome)),
			slog.Duration("duration", am.Duration),
		)

		switch last.Outcome {
		case validate.Success:
			lab.log.Info("pack generated",
				slog.String("pack_type", string(e.ps.PackType)),
				slog.String("pack_id", p.ID),
				slog.String("best_rarity", p.BestRarity.String()),
				slog.Int("attempts", len(attempts)),
			)
			return &AutoResult{Pack: p, Attempts: attempts, LastValidation: last}, nil
		case validate.Failure:
			return nil, lab.fail(e, errs.CodeNonRetryable, base, attempts, last, lastPack)
		}
	}
	return nil, lab.fail(e, errs.CodeExhausted, base, attempts, last, lastPack)
}

func (lab *Packlab) fail(e *engine, reason errs.Code, base int64, attempts []AttemptMeta, last validate.Result, lastPack *pack.Pack) *GenerationFailure {
	f := &GenerationFailure{
		PackType:       e.ps.PackType,
		Reason:         reason,
		BaseSeed:       base,
		Attempts:       attempts,
		LastValidation: last,
		LastPack:       lastPack,
	}
	lv := slog.LevelWarn
	if reason == errs.CodeNonRetryable {
		lv = slog.LevelError
	}
	lab.log.LogAttrs(context.Background(), lv, "generation failed",
		slog.String("pack_type", string(e.ps.PackType)),
		slog.String("reason", string(reason)),
		slog.Int64("base_seed", base),
		slog.Int("attempts", len(attempts)),
		slog.Any("violations", last.Violations),
	)
	return f
}

func baseSeed(seed *int64) (int64, error) {
	if seed != nil {
		return *seed, nil
	}
	return core.NewCryptoSeed()
}
