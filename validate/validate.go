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

// Package validate 開包前的檢查組（stop hook）。
//
// 每項檢查彼此獨立、全部執行、全部回報：即使整體失敗，呼叫端仍拿到完整的逐項結果，
// UI 可以直接把 Result.Checks 畫成紅綠燈列表。
package validate

import (
	"fmt"

	"github.com/zintix-labs/packlab/catalog"
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/history"
	"github.com/zintix-labs/packlab/pack"
	"github.com/zintix-labs/packlab/spec"
)

// Outcome 整體分類。
type Outcome string

const (
	Success Outcome = "SUCCESS"
	Retry   Outcome = "RETRY"
	Failure Outcome = "FAILURE"
)

// CheckResult 單項檢查結果。
type CheckResult struct {
	ID        string `json:"id"                yaml:"id"`
	Label     string `json:"label"             yaml:"label"`
	Passed    bool   `json:"passed"            yaml:"passed"`
	Retryable bool   `json:"retryable"         yaml:"retryable"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Result 一次驗證的完整結果。Checks 恆為每個已註冊檢查一筆，順序與設定一致。
type Result struct {
	Valid      bool          `json:"valid"      yaml:"valid"`
	Outcome    Outcome       `json:"outcome"    yaml:"outcome"`
	Violations []string      `json:"violations" yaml:"violations"`
	Checks     []CheckResult `json:"checks"     yaml:"checks"`
}

// Failed 回傳未通過的檢查。
func (r Result) Failed() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Context 檢查所需的唯讀上下文。
type Context struct {
	Setting *spec.PackSetting
	Catalog catalog.Provider
	History history.Window
}

// Check 單項檢查。Run 不得修改卡包或上下文。
type Check interface {
	ID() string
	Label() string
	Retryable() bool
	Run(p *pack.Pack, ctx *Context) (passed bool, message string)
}

// Validator 依設定順序組好的檢查組，建立後唯讀，可被多個 goroutine 共用。
type Validator struct {
	checks []Check
}

// New 依 ps.Validator.Checks 從 registry 建立所有檢查。內建的 duplicate / rarity / stats / entropy
// 即使未列出也一定會建立（補在最後）。
func New(reg *Registry, ps *spec.PackSetting) (*Validator, error) {
	if reg == nil || ps == nil {
		return nil, errs.Configf("validator requires a registry and a pack setting")
	}
	ids, err := spec.WithBuiltinChecks(ps.Validator.Checks)
	if err != nil {
		return nil, err
	}
	v := &Validator{checks: make([]Check, 0, len(ids))}
	for _, id := range ids {
		c, err := reg.Build(id, ps)
		if err != nil {
			return nil, err
		}
		v.checks = append(v.checks, c)
	}
	return v, nil
}

// IDs 回傳檢查 id（執行順序）。
func (v *Validator) IDs() []string {
	out := make([]string, len(v.checks))
	for i, c := range v.checks {
		out[i] = c.ID()
	}
	return out
}

// Validate 執行全部檢查，不短路。
//
// Outcome：全部通過為 SUCCESS；任一不可重試的檢查失敗為 FAILURE；其餘為 RETRY。
func (v *Validator) Validate(p *pack.Pack, ctx *Context) Result {
	res := Result{
		Valid:      true,
		Violations: []string{},
		Checks:     make([]CheckResult, 0, len(v.checks)),
	}
	fatal := false
	for _, c := range v.checks {
		cr := CheckResult{ID: c.ID(), Label: c.Label(), Retryable: c.Retryable()}
		cr.Passed, cr.Message = run(c, p, ctx)
		if !cr.Passed {
			res.Valid = false
			res.Violations = append(res.Violations, fmt.Sprintf("%s: %s", cr.ID, cr.Message))
			if !cr.Retryable {
				fatal = true
			}
		}
		res.Checks = append(res.Checks, cr)
	}
	switch {
	case res.Valid:
		res.Outcome = Success
	case fatal:
		res.Outcome = Failure
	default:
		res.Outcome = Retry
	}
	return res
}

// run 隔離單項檢查：nil 卡包與 panic 皆轉為該項失敗，不影響其他檢查。
func run(c Check, p *pack.Pack, ctx *Context) (passed bool, msg string) {
	if p == nil {
		return false, "nil pack"
	}
	if ctx == nil {
		ctx = &Context{}
	}
	defer func() {
		if r := recover(); r != nil {
			passed, msg = false, fmt.Sprintf("check panicked: %v", r)
		}
	}()
	return c.Run(p, ctx)
}
