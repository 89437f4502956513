// Package catalog 卡片目錄：從一或多個扁平 fs.FS 載入卡片定義，載入後凍結為唯讀。
//
// 載入只檢查結構（id 非空唯一且不含分隔字元、稀有度合法、數值欄位名稱已宣告），
// 刻意不檢查數值範圍：數值損毀由驗證器的 stats 檢查負責在開包前攔下。
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/rarity"
	"gopkg.in/yaml.v3"
)

var (
	ErrDupID  = errs.NewFatal("duplicate card id")
	ErrFrozen = errs.NewWarn("can not register when catalog already frozen")
)

// CardRecord 卡片定義，載入後不可變。
type CardRecord struct {
	ID           string         `yaml:"id"            json:"id"`
	Name         string         `yaml:"name"          json:"name"`
	Rarity       rarity.Tier    `yaml:"rarity"        json:"rarity"`
	Type         string         `yaml:"type"          json:"type"`
	Series       string         `yaml:"series"        json:"series,omitempty"`
	HoloEligible bool           `yaml:"holo_eligible" json:"holo_eligible"`
	Stats        map[string]int `yaml:"stats"         json:"stats"`
}

// Provider 生成流程對卡片目錄的唯讀需求。
type Provider interface {
	CardsByRarity(t rarity.Tier) []CardRecord
	Card(id string) (CardRecord, bool)
}

// File 單一卡片設定檔的結構。
type File struct {
	Series    string       `yaml:"series"     json:"series"`
	StatNames []string     `yaml:"stat_names" json:"stat_names"`
	Cards     []CardRecord `yaml:"cards"      json:"cards"`
}

type Catalog struct {
	byID      map[string]CardRecord
	byTier    [rarity.Count][]CardRecord // 依 id 排序，確保抽卡順序與載入順序無關
	statNames []string
	frozen    bool
}

func New() *Catalog {
	return &Catalog{byID: map[string]CardRecord{}}
}

// Load 讀取所有來源中的卡片檔並凍結。
func Load(src ...fs.FS) (*Catalog, error) {
	mfs, err := NewMultiFS(src...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	c := New()
	for _, name := range mfs.Names() {
		raw, err := mfs.Read(name)
		if err != nil {
			return nil, err
		}
		f, err := ParseFile(name, raw)
		if err != nil {
			return nil, errs.WrapWithExtra(err, "parse card file", name)
		}
		if err := c.RegisterFile(f); err != nil {
			return nil, errs.WrapWithExtra(err, "register card file", name)
		}
	}
	c.Freeze()
	return c, nil
}

// ParseFile 依副檔名解析卡片檔（嚴格模式：未知欄位即錯誤）。
func ParseFile(name string, raw []byte) (*File, error) {
	f := &File{}
	switch Format(name) {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(f); err != nil {
			return nil, errs.Wrap(err, "can not unmarshall json byte")
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil {
			return nil, errs.Wrap(err, "failed to unmarshall yaml")
		}
	}
	return f, nil
}

// RegisterFile 套用檔案層級的 series 預設值並檢查數值欄位名稱。
func (c *Catalog) RegisterFile(f *File) error {
	declared := map[string]struct{}{}
	for _, n := range f.StatNames {
		declared[n] = struct{}{}
		if !slices.Contains(c.statNames, n) {
			c.statNames = append(c.statNames, n)
		}
	}
	cards := make([]CardRecord, len(f.Cards))
	for i, card := range f.Cards {
		if card.Series == "" {
			card.Series = f.Series
		}
		if len(declared) > 0 {
			for k := range card.Stats {
				if _, ok := declared[k]; !ok {
					return errs.NewFatal(fmt.Sprintf("card %q: undeclared stat %q", card.ID, k))
				}
			}
		}
		cards[i] = card
	}
	return c.Register(cards...)
}

// Register 全部檢查通過才寫入，任一失敗則整批不生效。
func (c *Catalog) Register(cards ...CardRecord) error {
	if c.frozen {
		return ErrFrozen
	}
	seen := map[string]struct{}{}
	for i := range cards {
		cards[i].ID = strings.TrimSpace(cards[i].ID)
		card := cards[i]
		if card.ID == "" {
			return errs.NewFatal("card id required")
		}
		if !validID(card.ID) {
			return errs.NewFatal(fmt.Sprintf("card %q: id must not contain '#' or control characters", card.ID))
		}
		if !card.Rarity.Valid() {
			return errs.NewFatal(fmt.Sprintf("card %q: invalid rarity", card.ID))
		}
		if _, ok := c.byID[card.ID]; ok {
			return errs.WrapWithExtra(ErrDupID, "register card", card.ID)
		}
		if _, ok := seen[card.ID]; ok {
			return errs.WrapWithExtra(ErrDupID, "register card", card.ID)
		}
		seen[card.ID] = struct{}{}
	}
	for _, card := range cards {
		card.Stats = cloneStats(card.Stats)
		c.byID[card.ID] = card
		c.byTier[card.Rarity] = append(c.byTier[card.Rarity], card)
	}
	for t := range c.byTier {
		sort.Slice(c.byTier[t], func(i, j int) bool { return c.byTier[t][i].ID < c.byTier[t][j].ID })
	}
	return nil
}

// validID 指紋以 "id#holo" 為鍵、以換行串接，id 不可含這些分隔字元。
func validID(id string) bool {
	return !strings.ContainsFunc(id, func(r rune) bool {
		return r == '#' || unicode.IsControl(r)
	})
}

// CardsByRarity 回傳該等級全部卡片的副本。
func (c *Catalog) CardsByRarity(t rarity.Tier) []CardRecord {
	if !t.Valid() {
		return nil
	}
	return slices.Clone(c.byTier[t])
}

func (c *Catalog) Card(id string) (CardRecord, bool) {
	card, ok := c.byID[id]
	return card, ok
}

// Counts 回傳各等級卡片數量。
func (c *Catalog) Counts() [rarity.Count]int {
	var out [rarity.Count]int
	for t := range c.byTier {
		out[t] = len(c.byTier[t])
	}
	return out
}

func (c *Catalog) Len() int { return len(c.byID) }

// StatNames 回傳已宣告的數值欄位名稱（依宣告順序）。
func (c *Catalog) StatNames() []string {
	return slices.Clone(c.statNames)
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

func cloneStats(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
