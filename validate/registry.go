package validate

import (
	"sort"
	"strings"

	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/spec"
)

// Builder 依卡包設定建立一項檢查。在 Validator 建立時呼叫一次。
type Builder func(ps *spec.PackSetting) (Check, error)

type Registry struct {
	builders map[string]Builder
}

func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder, 16),
	}
}

// Builtins 回傳內建四項檢查的 registry。
func Builtins() *Registry {
	r := NewRegistry()
	_ = r.Register("duplicate", newDuplicateCheck)
	_ = r.Register("rarity", newRarityCheck)
	_ = r.Register("stats", newStatsCheck)
	_ = r.Register("entropy", newEntropyCheck)
	return r
}

func (r *Registry) Register(id string, b Builder) error {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" || b == nil {
		return errs.Configf("check id and builder required")
	}
	if _, ok := r.builders[id]; ok {
		return errs.Configf("duplicate check builder: %s", id)
	}
	r.builders[id] = b
	return nil
}

func (r *Registry) Build(id string, ps *spec.PackSetting) (Check, error) {
	b, ok := r.builders[id]
	if !ok {
		return nil, errs.Configf("check is not exist: %s", id)
	}
	c, err := b(ps)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "build check", id)
	}
	if c.ID() != id {
		return nil, errs.Configf("check builder %s returned check with id %s", id, c.ID())
	}
	return c, nil
}

func (r *Registry) IsExist(id string) bool {
	_, ok := r.builders[id]
	return ok
}

// IDs 回傳排序後的已註冊 id。
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.builders))
	for id := range r.builders {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MergeRegistry 合併多個 registry。
//
// 函式值不可比較，重複的 id 一律視為錯誤，避免「後者覆蓋前者」的意外。
func MergeRegistry(regs ...*Registry) (*Registry, error) {
	out := NewRegistry()
	origin := make(map[string]int, 16)

	for i, r := range regs {
		if r == nil {
			continue
		}
		for id, b := range r.builders {
			if _, ok := out.builders[id]; ok {
				return nil, errs.Configf("duplicate check id %s (registry #%d and #%d)", id, origin[id], i)
			}
			out.builders[id] = b
			origin[id] = i
		}
	}
	return out, nil
}
