package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/zintix-labs/packlab/errs"
	"gopkg.in/yaml.v3"
)

// GetPackSettingByYAML
// 會讀取 YAML 設定（嚴格模式）、初始化並執行檢查後回傳。
func GetPackSettingByYAML(data []byte) (*PackSetting, error) {
	ps := &PackSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(ps); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml").WithCode(errs.CodeConfig)
	}
	if err := ps.Init(); err != nil {
		return nil, errs.Wrap(err, "pack setting initialized err")
	}
	return ps, nil
}

// GetPackSettingByJSON
// 會讀取 Json 設定、初始化並執行檢查後回傳
func GetPackSettingByJSON(data []byte) (*PackSetting, error) {
	ps := &PackSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ps); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte").WithCode(errs.CodeConfig)
	}
	if err := ps.Init(); err != nil {
		return nil, errs.Wrap(err, "pack setting initialized err")
	}
	return ps, nil
}

// GetPackSetting 依格式（"yaml" / "json"）解析。
func GetPackSetting(format string, data []byte) (*PackSetting, error) {
	if format == "json" {
		return GetPackSettingByJSON(data)
	}
	return GetPackSettingByYAML(data)
}

// Registry 以卡包種類索引的設定表。註冊完成後唯讀，可被多個 goroutine 共用。
type Registry struct {
	mu     sync.RWMutex
	byType map[PackType]*PackSetting
}

func NewRegistry() *Registry {
	return &Registry{byType: make(map[PackType]*PackSetting, 8)}
}

// Register 初始化並註冊設定，重複的 pack_type 視為設定錯誤。
func (r *Registry) Register(settings ...*PackSetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := map[PackType]struct{}{}
	for _, ps := range settings {
		if ps == nil {
			return errs.Configf("nil pack setting")
		}
		if err := ps.Init(); err != nil {
			return err
		}
		if _, ok := r.byType[ps.PackType]; ok {
			return errs.Configf("duplicate pack type %s", ps.PackType)
		}
		if _, ok := batch[ps.PackType]; ok {
			return errs.Configf("duplicate pack type %s", ps.PackType)
		}
		batch[ps.PackType] = struct{}{}
	}
	for _, ps := range settings {
		r.byType[ps.PackType] = ps
	}
	return nil
}

// Get 取得設定；未知種類為設定錯誤。
func (r *Registry) Get(pt PackType) (*PackSetting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps, ok := r.byType[pt.Norm()]
	if !ok {
		return nil, errs.Configf("unknown pack type: %q", string(pt))
	}
	return ps, nil
}

// Types 回傳排序後的所有卡包種類。
func (r *Registry) Types() []PackType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PackType, 0, len(r.byType))
	for k := range r.byType {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byType)
}

// Source 為可列舉並讀取設定檔的來源（catalog.MultiFS 滿足此介面）。
type Source interface {
	Names() []string
	Read(name string) ([]byte, error)
}

// LoadRegistry 讀取來源中所有設定檔並註冊；formatOf 由檔名決定格式。
func LoadRegistry(src Source, formatOf func(name string) string) (*Registry, error) {
	r := NewRegistry()
	for _, name := range src.Names() {
		raw, err := src.Read(name)
		if err != nil {
			return nil, err
		}
		ps, err := GetPackSetting(formatOf(name), raw)
		if err != nil {
			return nil, errs.WrapWithExtra(err, "load pack setting", name)
		}
		if err := r.Register(ps); err != nil {
			return nil, errs.WrapWithExtra(err, "register pack setting", fmt.Sprintf("%s:%s", name, ps.PackType))
		}
	}
	return r, nil
}
