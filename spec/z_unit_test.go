package spec

import (
	"errors"
	"testing"

	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/rarity"
)

const standardYAML = `
pack_type: Standard
pack_size: 6
variance: 0.1
max_tier: legendary
tiers:
  - {tier: common,    base_prob: 0,    value: 1}
  - {tier: uncommon,  base_prob: 0.25, value: 3}
  - {tier: rare,      base_prob: 0.10, value: 10, pity: 10}
  - {tier: epic,      base_prob: 0.04, value: 30}
  - {tier: legendary, base_prob: 0.01, value: 100, pity: 60}
guaranteed_slots:
  - {slot: 5, min_tier: rare}
holo:
  - tier: rare
    weights: {none: 70, standard: 20, reverse: 10}
holo_bonus: {prismatic: 50}
validator:
  history_window: 30
  fingerprint: XXHash64
fixed:
  type_spread: {max_same_type: 4}
`

func TestGetPackSettingByYAML(t *testing.T) {
	ps, err := GetPackSettingByYAML([]byte(standardYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ps.PackType != "standard" || ps.Name != "standard" {
		t.Fatalf("pack type should be normalised: %q", ps.PackType)
	}
	if ps.Rarity.PitySlot != 5 || ps.Rarity.MaxTier != rarity.Legendary {
		t.Fatalf("rarity config: %+v", ps.Rarity)
	}
	if ps.Rarity.Guaranteed[5] != rarity.Rare || ps.Rarity.Pity[rarity.Legendary] != 60 {
		t.Fatalf("guaranteed/pity not compiled: %+v", ps.Rarity)
	}
	if ps.Loop.MaxAttempts != 5 {
		t.Fatalf("default max attempts: %d", ps.Loop.MaxAttempts)
	}
	if ps.MaxAttempts(3) != 3 || ps.MaxAttempts(0) != 5 {
		t.Fatalf("caller max attempts should win when positive")
	}
	if ps.HoloWeights[rarity.Rare] != [rarity.HoloCount]int{70, 20, 10, 0, 0} {
		t.Fatalf("holo override: %v", ps.HoloWeights[rarity.Rare])
	}
	if ps.HoloWeights[rarity.Mythic][rarity.HoloPrismatic] == 0 {
		t.Fatalf("default mythic weights should allow prismatic")
	}
	if ps.Value(rarity.Legendary, rarity.HoloPrismatic) != 150 {
		t.Fatalf("value: %d", ps.Value(rarity.Legendary, rarity.HoloPrismatic))
	}
	v := ps.Validator
	if v.HistoryWindow != 30 || v.EntropyWindow != 20 || v.EntropyMinHistory != 10 {
		t.Fatalf("validator defaults: %+v", v)
	}
	if v.Fingerprint != FingerprintXXHash64 || v.StatLo != 0 || v.StatHi != 100 {
		t.Fatalf("validator derived: %+v", v)
	}
	if len(v.Checks) != 4 || v.Checks[0] != "duplicate" {
		t.Fatalf("default checks: %v", v.Checks)
	}

	var fixed struct {
		MaxSameType int `yaml:"max_same_type"`
	}
	if err := DecodeFixed(ps, "type_spread", &fixed); err != nil || fixed.MaxSameType != 4 {
		t.Fatalf("decode fixed: %v %+v", err, fixed)
	}
	var strict struct {
		Other int `yaml:"other"`
	}
	if err := DecodeFixed(ps, "type_spread", &strict); err == nil {
		t.Fatalf("unknown fixed field should fail")
	}
	if err := DecodeFixed(ps, "missing", &strict); err != nil {
		t.Fatalf("missing key keeps defaults: %v", err)
	}
}

func TestGetPackSettingErrors(t *testing.T) {
	cases := map[string]string{
		"unknown field":   "pack_type: a\npack_size: 3\nbogus: 1\n",
		"no type":         "pack_size: 3\n",
		"zero size":       "pack_type: a\npack_size: 0\n",
		"bad tier":        "pack_type: a\npack_size: 3\ntiers: [{tier: ultra}]\n",
		"dup tier":        "pack_type: a\npack_size: 3\ntiers: [{tier: rare}, {tier: rare}]\n",
		"slot range":      "pack_type: a\npack_size: 3\nguaranteed_slots: [{slot: 3, min_tier: rare}]\n",
		"prob sum":        "pack_type: a\npack_size: 3\ntiers: [{tier: rare, base_prob: 0.7}, {tier: epic, base_prob: 0.7}]\n",
		"holo variant":    "pack_type: a\npack_size: 3\nholo: [{tier: rare, weights: {shiny: 1}}]\n",
		"holo zero":       "pack_type: a\npack_size: 3\nholo: [{tier: rare, weights: {none: 0}}]\n",
		"fingerprint":     "pack_type: a\npack_size: 3\nvalidator: {fingerprint: md5}\n",
		"dup check":       "pack_type: a\npack_size: 3\nvalidator: {checks: [rarity, rarity]}\n",
		"entropy history": "pack_type: a\npack_size: 3\nvalidator: {entropy_window: 5, entropy_min_history: 6}\n",
	}
	for name, doc := range cases {
		_, err := GetPackSettingByYAML([]byte(doc))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !errors.Is(err, errs.Config) {
			t.Fatalf("%s: expected config code, got %v", name, err)
		}
	}
}

func TestGetPackSettingByJSON(t *testing.T) {
	doc := `{"pack_type":"premium","pack_size":5,"max_tier":"mythic","pity_slot":0,
	"tiers":[{"tier":"mythic","base_prob":0.002,"pity":200,"value":500}]}`
	ps, err := GetPackSettingByJSON([]byte(doc))
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if ps.Rarity.PitySlot != 0 || ps.Rarity.Pity[rarity.Mythic] != 200 {
		t.Fatalf("json rarity: %+v", ps.Rarity)
	}
	if _, err := GetPackSettingByJSON([]byte(`{"pack_type":"x","pack_size":1,"nope":1}`)); err == nil {
		t.Fatalf("unknown json field should fail")
	}
}

type mapSource map[string]string

func (m mapSource) Names() []string {
	out := []string{}
	for k := range m {
		out = append(out, k)
	}
	return out
}

func (m mapSource) Read(name string) ([]byte, error) { return []byte(m[name]), nil }

func TestRegistry(t *testing.T) {
	src := mapSource{
		"standard.yaml": standardYAML,
		"premium.json":  `{"pack_type":"premium","pack_size":5}`,
	}
	format := func(name string) string {
		if len(name) > 5 && name[len(name)-5:] == ".json" {
			return "json"
		}
		return "yaml"
	}
	r, err := LoadRegistry(src, format)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	if types := r.Types(); len(types) != 2 || types[0] != "premium" {
		t.Fatalf("types: %v", types)
	}
	if _, err := r.Get(" STANDARD "); err != nil {
		t.Fatalf("lookup should normalise: %v", err)
	}
	_, err = r.Get("booster")
	if !errors.Is(err, errs.Config) {
		t.Fatalf("unknown pack type should be config error: %v", err)
	}
	dup := &PackSetting{PackType: "premium", PackSize: 1}
	if err := r.Register(dup); err == nil {
		t.Fatalf("duplicate pack type should fail")
	}
	if r.Len() != 2 {
		t.Fatalf("len: %d", r.Len())
	}
}

func TestValidatorChecksKeepBuiltins(t *testing.T) {
	doc := "pack_type: a\npack_size: 3\nseries: \" Jungle \"\nvalidator: {checks: [Type_Spread, rarity]}\n"
	ps, err := GetPackSettingByYAML([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"type_spread", "rarity", "duplicate", "stats", "entropy"}
	if len(ps.Validator.Checks) != len(want) {
		t.Fatalf("checks: %v", ps.Validator.Checks)
	}
	for i, id := range want {
		if ps.Validator.Checks[i] != id {
			t.Fatalf("checks: %v", ps.Validator.Checks)
		}
	}
	if ps.Validator.EntropyMinVariance != DefaultEntropyMinVariance || ps.Validator.EntropyMinBits != DefaultEntropyMinBits {
		t.Fatalf("entropy defaults: %+v", ps.Validator)
	}
	if ps.Series != "Jungle" || !ps.InSeries("jungle") || ps.InSeries("Base Set") {
		t.Fatalf("series: %q", ps.Series)
	}
	if all := (&PackSetting{}); !all.InSeries("anything") {
		t.Fatalf("empty series accepts every card")
	}
}
