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

// Package packlab 是卡包生成引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Packlab 把三個地基組裝在一起：
//  1. Catalog：卡池（Single Source of Truth），由 fs.FS 載入並凍結。
//  2. spec.Registry：每種卡包（standard / premium / ...）的設定。
//  3. validate.Registry：開包前檢查（stop hook）的 builders，內建四項並可注入自訂檢查。
//
// 組裝時每種卡包只建一次 Distributor / Selector / Validator，之後全部唯讀，
// 同一個 Packlab 可被多個 goroutine 同時使用。
//
// 兩條呼叫路徑：
//   - GeneratePack：單次嘗試，不驗證。
//   - GeneratePackAutonomous：生成 -> 驗證 -> 成功回傳 / 可重試則換 seed 再來 / 不可重試立即失敗，
//     嘗試次數有上限。
//
// 引擎對輸入是純函數：相同設定 + seed + 保底狀態必得相同卡包。保底與歷史只讀不寫，
// 寫入由呼叫端（或 Opener）在接受卡包後進行。
package packlab

import (
	"io/fs"
	"log/slog"

	"github.com/zintix-labs/packlab/catalog"
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/logger"
	"github.com/zintix-labs/packlab/rarity"
	"github.com/zintix-labs/packlab/selector"
	"github.com/zintix-labs/packlab/spec"
	"github.com/zintix-labs/packlab/validate"
)

// Sources 把一或多個 fs.FS 打包成 NewFromFS 需要的參數。
// go:embed、os.DirFS、fstest.MapFS 皆可。
func Sources(src ...fs.FS) []fs.FS {
	return src
}

// Option 調整 Packlab 的組裝行為。
type Option func(*options)

type options struct {
	log    *slog.Logger
	checks []*validate.Registry
}

// WithLogger 注入 logger；未注入時引擎完全靜默。
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithChecks 追加自訂檢查的 registry，與內建檢查合併；id 重複即為設定錯誤。
func WithChecks(regs ...*validate.Registry) Option {
	return func(o *options) {
		o.checks = append(o.checks, regs...)
	}
}

// Packlab 組裝完成的引擎。
type Packlab struct {
	cat     catalog.Provider
	reg     *spec.Registry
	log     *slog.Logger
	engines map[spec.PackType]*engine
	broken  map[spec.PackType]error // 組裝失敗的卡包類型，呼叫時回報
	types   []spec.PackType
}

// engine 單一卡包類型的唯讀生成管線。
type engine struct {
	ps   *spec.PackSetting
	dist *rarity.Distributor
	sel  *selector.Selector
	val  *validate.Validator
}

// New 以已載入的卡池與設定組裝引擎。
//
// 設定錯誤（機率不合法、可達稀有度在卡池中沒有卡、未知檢查 id...）在組裝時就會偵測。
// 單一卡包類型組裝失敗只停用該類型：錯誤以 config 分類保存，之後對該類型的任何呼叫
// （GeneratePack、GeneratePackAutonomous、Setting...）都回傳它，其他類型照常運作。
// 全部類型都失敗時 New 直接回傳第一個錯誤。
func New(cat catalog.Provider, reg *spec.Registry, opts ...Option) (*Packlab, error) {
	if cat == nil {
		return nil, errs.Configf("catalog required")
	}
	if reg == nil || reg.Len() == 0 {
		return nil, errs.Configf("at least one pack setting required")
	}
	o := &options{log: logger.Silent()}
	for _, opt := range opts {
		opt(o)
	}
	checks, err := validate.MergeRegistry(append([]*validate.Registry{validate.Builtins()}, o.checks...)...)
	if err != nil {
		return nil, err
	}

	lab := &Packlab{
		cat:     cat,
		reg:     reg,
		log:     o.log,
		engines: make(map[spec.PackType]*engine, reg.Len()),
		broken:  map[spec.PackType]error{},
		types:   reg.Types(),
	}
	var first error
	for _, pt := range lab.types {
		ps, err := reg.Get(pt)
		if err != nil {
			return nil, err
		}
		e, err := buildEngine(cat, ps, checks)
		if err != nil {
			err = errs.WrapWithExtra(err, "build pack engine", string(pt)).WithCode(errs.CodeConfig)
			lab.broken[pt] = err
			if first == nil {
				first = err
			}
			lab.log.Warn("pack type disabled",
				slog.String("pack_type", string(pt)),
				slog.String("err", err.Error()),
			)
			continue
		}
		lab.engines[pt] = e
	}
	if len(lab.engines) == 0 {
		return nil, first
	}
	return lab, nil
}

// NewFromFS 從卡片檔來源與卡包設定來源組裝引擎。兩組來源皆須為扁平目錄。
func NewFromFS(cards []fs.FS, settings []fs.FS, opts ...Option) (*Packlab, error) {
	if len(cards) == 0 {
		return nil, errs.Configf("card sources required")
	}
	if len(settings) == 0 {
		return nil, errs.Configf("pack setting sources required")
	}
	cat, err := catalog.Load(cards...)
	if err != nil {
		return nil, err
	}
	mfs, err := catalog.NewMultiFS(settings...)
	if err != nil {
		return nil, err
	}
	reg, err := spec.LoadRegistry(mfs, catalog.Format)
	if err != nil {
		return nil, err
	}
	return New(cat, reg, opts...)
}

func buildEngine(cat catalog.Provider, ps *spec.PackSetting, checks *validate.Registry) (*engine, error) {
	if err := ps.Init(); err != nil {
		return nil, err
	}
	dist, err := rarity.NewDistributor(ps.Rarity)
	if err != nil {
		return nil, err
	}
	sel, err := selector.New(cat, ps, dist.Reachable())
	if err != nil {
		return nil, err
	}
	val, err := validate.New(checks, ps)
	if err != nil {
		return nil, err
	}
	return &engine{ps: ps, dist: dist, sel: sel, val: val}, nil
}

func (lab *Packlab) engine(pt spec.PackType) (*engine, error) {
	pt = pt.Norm()
	if err, ok := lab.broken[pt]; ok {
		return nil, err
	}
	e, ok := lab.engines[pt]
	if !ok {
		return nil, errs.Configf("unknown pack type: %q", pt)
	}
	return e, nil
}

// Err 回傳卡包類型在組裝時的錯誤；可用或未註冊時為 nil。
func (lab *Packlab) Err(pt spec.PackType) error {
	return lab.broken[pt.Norm()]
}

// Types 回傳已註冊的卡包類型（排序後），包含組裝失敗的類型（以 Err 查詢）。
func (lab *Packlab) Types() []spec.PackType {
	out := make([]spec.PackType, len(lab.types))
	copy(out, lab.types)
	return out
}

// Setting 回傳卡包設定（唯讀，不可修改）。
func (lab *Packlab) Setting(pt spec.PackType) (*spec.PackSetting, error) {
	e, err := lab.engine(pt)
	if err != nil {
		return nil, err
	}
	return e.ps, nil
}

// Checks 回傳某卡包類型的檢查 id（執行順序）。
func (lab *Packlab) Checks(pt spec.PackType) ([]string, error) {
	e, err := lab.engine(pt)
	if err != nil {
		return nil, err
	}
	return e.val.IDs(), nil
}

// Expected 回傳一般卡槽的理論稀有度分布，供統計報表做適合度檢定。
func (lab *Packlab) Expected(pt spec.PackType) ([rarity.Count]float64, error) {
	e, err := lab.engine(pt)
	if err != nil {
		return [rarity.Count]float64{}, err
	}
	return e.dist.Expected(), nil
}

// Catalog 回傳組裝時使用的卡池。
func (lab *Packlab) Catalog() catalog.Provider {
	return lab.cat
}

// Logger 回傳引擎使用的 logger。
func (lab *Packlab) Logger() *slog.Logger {
	return lab.log
}
