package spec

import (
	"strings"

	"github.com/zintix-labs/packlab/errs"
)

// 指紋演算法
const (
	FingerprintSHA256   = "sha256"
	FingerprintXXHash64 = "xxhash64"
)

// 內建檢查 id，恆會執行。checks 只決定順序與額外的自訂檢查，未列出的內建檢查依此順序補在最後。
var DefaultChecks = []string{"duplicate", "rarity", "stats", "entropy"}

// ValidatorSetting 驗證器（開包前檢查）設定。
//
//   - HistoryWindow：duplicate 檢查比對的近期指紋數量。
//   - EntropyWindow：entropy 檢查使用的近期卡包數量（另加當前這包）。
//   - EntropyMinHistory：歷史不足此數量時 entropy 直接通過。
//   - EntropyMinVariance / EntropyMinBits：卡槽稀有度變異數與直方圖 Shannon entropy 的下限，
//     未設定（0）時為 DefaultEntropyMinVariance / DefaultEntropyMinBits。
// entropy 門檻預設值
const (
	DefaultEntropyMinVariance = 0.05
	DefaultEntropyMinBits     = 0.5
)

type ValidatorSetting struct {
	HistoryWindow      int      `yaml:"history_window"       json:"history_window"`
	EntropyWindow      int      `yaml:"entropy_window"       json:"entropy_window"`
	EntropyMinHistory  int      `yaml:"entropy_min_history"  json:"entropy_min_history"`
	EntropyMinVariance float64  `yaml:"entropy_min_variance" json:"entropy_min_variance"`
	EntropyMinBits     float64  `yaml:"entropy_min_bits"     json:"entropy_min_bits"`
	StatMin            *int     `yaml:"stat_min"             json:"stat_min,omitempty"`
	StatMax            *int     `yaml:"stat_max"             json:"stat_max,omitempty"`
	Fingerprint        string   `yaml:"fingerprint"          json:"fingerprint"`
	Checks             []string `yaml:"checks"               json:"checks"`

	// 衍生欄位
	StatLo int `yaml:"-" json:"-"`
	StatHi int `yaml:"-" json:"-"`
}

func (vs *ValidatorSetting) init() error {
	if vs.HistoryWindow < 0 || vs.EntropyWindow < 0 || vs.EntropyMinHistory < 0 {
		return errs.Configf("validator windows must not be negative")
	}
	if vs.HistoryWindow == 0 {
		vs.HistoryWindow = 50
	}
	if vs.EntropyWindow == 0 {
		vs.EntropyWindow = 20
	}
	if vs.EntropyMinHistory == 0 {
		vs.EntropyMinHistory = min(10, vs.EntropyWindow)
	}
	if vs.EntropyMinHistory > vs.EntropyWindow {
		return errs.Configf("entropy_min_history %d exceeds entropy_window %d", vs.EntropyMinHistory, vs.EntropyWindow)
	}
	if vs.EntropyMinVariance < 0 || vs.EntropyMinBits < 0 {
		return errs.Configf("entropy thresholds must not be negative")
	}
	if vs.EntropyMinVariance == 0 {
		vs.EntropyMinVariance = DefaultEntropyMinVariance
	}
	if vs.EntropyMinBits == 0 {
		vs.EntropyMinBits = DefaultEntropyMinBits
	}
	vs.StatLo, vs.StatHi = 0, 100
	if vs.StatMin != nil {
		vs.StatLo = *vs.StatMin
	}
	if vs.StatMax != nil {
		vs.StatHi = *vs.StatMax
	}
	if vs.StatLo > vs.StatHi {
		return errs.Configf("stat_min %d above stat_max %d", vs.StatLo, vs.StatHi)
	}

	vs.Fingerprint = strings.ToLower(strings.TrimSpace(vs.Fingerprint))
	switch vs.Fingerprint {
	case "":
		vs.Fingerprint = FingerprintSHA256
	case FingerprintSHA256, FingerprintXXHash64:
	default:
		return errs.Configf("unknown fingerprint algorithm: %q", vs.Fingerprint)
	}

	checks, err := WithBuiltinChecks(vs.Checks)
	if err != nil {
		return err
	}
	vs.Checks = checks
	return nil
}

// WithBuiltinChecks 正規化 check id（小寫、去空白、不可重複），並把缺少的內建檢查補在最後。
func WithBuiltinChecks(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids)+len(DefaultChecks))
	seen := map[string]struct{}{}
	for i, c := range ids {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			return nil, errs.Configf("empty check id at index %d", i)
		}
		if _, ok := seen[c]; ok {
			return nil, errs.Configf("duplicate check id %q", c)
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, c := range DefaultChecks {
		if _, ok := seen[c]; !ok {
			out = append(out, c)
		}
	}
	return out, nil
}
