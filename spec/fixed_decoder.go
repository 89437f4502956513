package spec

import (
	"bytes"

	"github.com/zintix-labs/packlab/errs"
	"gopkg.in/yaml.v3"
)

// DecodeFixed 會把 ps.Fixed[key] 由 map[string]any 轉成自訂型別 T。
// 自訂檢查（custom check）以此讀取自己的參數區塊；key 不存在時 out 保持原值（即預設值）。
func DecodeFixed[T any](ps *PackSetting, key string, out *T) error {
	v, ok := ps.Fixed[key]
	if !ok {
		return nil
	}
	// 先把 map[string]any -> YAML bytes
	bs, err := yaml.Marshal(v)
	if err != nil {
		return errs.Wrap(err, "spec.fixed_decoder : marshal failed")
	}
	// 再把 YAML bytes -> 自定義的型別
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true) // 嚴格檢查：多寫/拼錯欄位就報錯
	if err = dec.Decode(out); err != nil {
		return errs.Wrap(err, "spec.fixed_decoder : decode failed").WithCode(errs.CodeConfig)
	}
	return nil
}
