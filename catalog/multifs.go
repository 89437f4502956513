package catalog

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/packlab/errs"
)

// 可被索引的設定檔副檔名；.zst 為 zstd 壓縮版本。
var configExts = []string{".yaml", ".yml", ".json", ".yaml.zst", ".yml.zst", ".json.zst"}

// MultiFS 將多個扁平 fs.FS 合併成單一檔名索引。
// 同名檔案出現在兩個來源時直接失敗，不做覆寫。
type MultiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func NewMultiFS(src ...fs.FS) (*MultiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &MultiFS{
		src:   src,
		index: make(map[string]int, 64),
	}

	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 只允許根目錄；任何子目錄都違反扁平目錄的約定
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			if !IsConfigName(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, errs.Wrap(err, "index config fs")
		}
	}
	return m, nil
}

// IsConfigName 判斷檔名是否為可索引的設定檔。
func IsConfigName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\:`) {
		return false
	}
	lower := strings.ToLower(name)
	for _, ext := range configExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Format 回傳解壓後的內容格式（yaml 或 json）。
func Format(name string) string {
	lower := strings.TrimSuffix(strings.ToLower(name), ".zst")
	if strings.HasSuffix(lower, ".json") {
		return "json"
	}
	return "yaml"
}

func (m *MultiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}

// Names 回傳排序後的所有檔名，讓載入順序穩定。
func (m *MultiFS) Names() []string {
	out := make([]string, 0, len(m.index))
	for n := range m.index {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Read 讀取檔案內容；.zst 結尾者先以 zstd 解壓。
func (m *MultiFS) Read(name string) ([]byte, error) {
	src, ok := m.GetFS(name)
	if !ok {
		return nil, errs.NewWarn(fmt.Sprintf("file %q does not exist in config fs", name))
	}
	raw, err := fs.ReadFile(src, name)
	if err != nil {
		return nil, errs.Wrap(err, "read config file")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".zst") {
		return raw, nil
	}
	zr, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errs.Wrap(err, "create zstd reader failed")
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Sprintf("decompress %q", name))
	}
	return out, nil
}
