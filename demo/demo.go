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

// Package demo 以內嵌的示範卡池與卡包設定組裝 Packlab，並示範如何注入自訂檢查。
package demo

import (
	"fmt"

	"github.com/zintix-labs/packlab"
	"github.com/zintix-labs/packlab/catalog"
	"github.com/zintix-labs/packlab/demo/demo_configs"
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/pack"
	"github.com/zintix-labs/packlab/spec"
	"github.com/zintix-labs/packlab/validate"
)

// NewCatalog 載入示範卡池。
func NewCatalog() (*catalog.Catalog, error) {
	return catalog.Load(demo_configs.Cards())
}

// NewPacklab 以示範設定組裝引擎，並註冊 type_spread 自訂檢查。
func NewPacklab(opts ...packlab.Option) (*packlab.Packlab, error) {
	opts = append([]packlab.Option{packlab.WithChecks(Checks())}, opts...)
	lab, err := packlab.NewFromFS(
		packlab.Sources(demo_configs.Cards()),
		packlab.Sources(demo_configs.Packs()),
		opts...,
	)
	if err != nil {
		return nil, errs.Wrap(err, "new demo packlab failed")
	}
	return lab, nil
}

// Checks 回傳示範用的自訂檢查 registry。
func Checks() *validate.Registry {
	r := validate.NewRegistry()
	_ = r.Register(TypeSpreadID, newTypeSpread)
	return r
}

// TypeSpreadID 自訂檢查 id，卡包設定中以 fixed.type_spread 提供參數。
const TypeSpreadID = "type_spread"

type typeSpreadCfg struct {
	MaxSameType int `yaml:"max_same_type"`
}

// typeSpread 同一包內同類型卡片數量上限。屬於體驗問題，可重試。
type typeSpread struct {
	max int
}

func newTypeSpread(ps *spec.PackSetting) (validate.Check, error) {
	cfg := typeSpreadCfg{MaxSameType: ps.PackSize - 1}
	if err := spec.DecodeFixed(ps, TypeSpreadID, &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxSameType <= 0 {
		return nil, errs.Configf("type_spread.max_same_type must be positive: %d", cfg.MaxSameType)
	}
	return &typeSpread{max: cfg.MaxSameType}, nil
}

func (c *typeSpread) ID() string      { return TypeSpreadID }
func (c *typeSpread) Label() string   { return "Type spread" }
func (c *typeSpread) Retryable() bool { return true }

func (c *typeSpread) Run(p *pack.Pack, ctx *validate.Context) (bool, string) {
	if ctx.Catalog == nil {
		return false, "no catalog in context"
	}
	count := map[string]int{}
	for _, pk := range p.Picks {
		card, ok := ctx.Catalog.Card(pk.CardID)
		if !ok {
			continue
		}
		count[card.Type]++
		if count[card.Type] > c.max {
			return false, fmt.Sprintf("more than %d %s cards", c.max, card.Type)
		}
	}
	return true, ""
}
