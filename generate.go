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
	"encoding/json"

	"github.com/zintix-labs/packlab/corefmt"
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/pack"
	"github.com/zintix-labs/packlab/pity"
	"github.com/zintix-labs/packlab/sdk/core"
	"github.com/zintix-labs/packlab/spec"
)

// firstAttempt attempt 序號由 1 起算；GeneratePack 等同自動迴圈的第一次嘗試。
const firstAttempt = 1

// GeneratePack 單次嘗試：依 seed 與保底狀態生成一包卡，不做驗證。
//
// 回傳的卡包與 GeneratePackAutonomous 在同一 seed 下的第一次嘗試完全相同。
// 唯一可能的錯誤是設定錯誤（未知卡包類型）。
func (lab *Packlab) GeneratePack(pt spec.PackType, seed int64, st pity.State) (*pack.Pack, error) {
	e, err := lab.engine(pt)
	if err != nil {
		return nil, err
	}
	return e.generate(seed, firstAttempt, st)
}

// generate 以 DeriveSeed(base, attempt) 建立獨立的 Core，逐槽決定稀有度與卡片後組裝。
// 保底計畫每包只算一次；本包已選過的卡不再重複選出（除非該等級已耗盡）。
func (e *engine) generate(base int64, attempt int, st pity.State) (*pack.Pack, error) {
	seed := core.DeriveSeed(base, attempt)
	c := core.NewDefault(seed)

	plan := e.dist.Plan(st.Counters)
	n := e.dist.PackSize()
	picks := make([]pack.CardPick, n)
	chosen := make(map[string]struct{}, n)
	for slot := 0; slot < n; slot++ {
		t := e.dist.Roll(c, slot, plan)
		pk, err := e.sel.Select(c, t, chosen)
		if err != nil {
			return nil, err
		}
		chosen[pk.Card.ID] = struct{}{}
		picks[slot] = pack.CardPick{
			Slot:      slot,
			CardID:    pk.Card.ID,
			Name:      pk.Card.Name,
			Rarity:    t,
			Holo:      pk.Holo,
			Duplicate: pk.Duplicate,
		}
	}

	meta := pack.Meta{
		PackType: e.ps.PackType,
		BaseSeed: base,
		Seed:     seed,
		Attempt:  attempt,
		Pity:     st,
	}
	if plan.Active {
		forced := plan.Forced
		meta.PityForced = &forced
	}
	return pack.Assemble(meta, picks, e.ps.Validator.Fingerprint, e.ps)
}

// Replay 以卡包上記錄的 base seed / attempt / 保底快照重新生成，並確認指紋一致（稽核用）。
func (lab *Packlab) Replay(p *pack.Pack) (*pack.Pack, error) {
	if p == nil {
		return nil, errs.NewWarn("replay: nil pack")
	}
	e, err := lab.engine(p.Type)
	if err != nil {
		return nil, err
	}
	if p.Attempt < firstAttempt {
		return nil, errs.Warnf("replay: invalid attempt %d", p.Attempt)
	}
	again, err := e.generate(p.BaseSeed, p.Attempt, p.Pity)
	if err != nil {
		return nil, err
	}
	if again.Fingerprint != p.Fingerprint || again.ID != p.ID {
		return nil, errs.Fatalf("replay mismatch: pack %s regenerated as %s", p.ID, again.ID).WithCode(errs.CodeNonRetryable)
	}
	return again, nil
}

// ReplayToken 重播卡包所需的最小資訊。
type ReplayToken struct {
	PackType spec.PackType `json:"t"`
	BaseSeed int64         `json:"s"`
	Attempt  int           `json:"a"`
	Pity     pity.State    `json:"p"`
	ID       string        `json:"id"`
}

// EncodeReplayToken 把卡包的重播資訊編成 base64url 字串，方便放進日誌或客服工單。
func EncodeReplayToken(p *pack.Pack) (string, error) {
	if p == nil {
		return "", errs.NewWarn("replay token: nil pack")
	}
	raw, err := json.Marshal(ReplayToken{
		PackType: p.Type,
		BaseSeed: p.BaseSeed,
		Attempt:  p.Attempt,
		Pity:     p.Pity,
		ID:       p.ID,
	})
	if err != nil {
		return "", errs.Wrap(err, "encode replay token")
	}
	return corefmt.EncodeBase64URL(raw), nil
}

// DecodeReplayToken 解析 EncodeReplayToken 的輸出。
func DecodeReplayToken(s string) (ReplayToken, error) {
	var tok ReplayToken
	raw, err := corefmt.DecodeBase64URL(s)
	if err != nil {
		return tok, errs.Wrap(err, "decode replay token").WithCode(errs.CodeConfig)
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return tok, errs.Wrap(err, "decode replay token").WithCode(errs.CodeConfig)
	}
	return tok, nil
}

// ReplayFromToken 依 token 重新生成卡包並確認 id 一致。
func (lab *Packlab) ReplayFromToken(s string) (*pack.Pack, error) {
	tok, err := DecodeReplayToken(s)
	if err != nil {
		return nil, err
	}
	e, err := lab.engine(tok.PackType)
	if err != nil {
		return nil, err
	}
	if tok.Attempt < firstAttempt {
		return nil, errs.Warnf("replay: invalid attempt %d", tok.Attempt)
	}
	p, err := e.generate(tok.BaseSeed, tok.Attempt, tok.Pity)
	if err != nil {
		return nil, err
	}
	if tok.ID != "" && p.ID != tok.ID {
		return nil, errs.Fatalf("replay mismatch: token %s regenerated as %s", tok.ID, p.ID).WithCode(errs.CodeNonRetryable)
	}
	return p, nil
}
