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

// Package perf 以 pprof 包住一次模擬執行。
//
// Usage like:
//
//	go run ./cmd/run -p cpu
//	go tool pprof build/profiling/cpu.pprof
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/zintix-labs/packlab/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// Mode profiling 種類。
type Mode string

const (
	ModeNone   Mode = ""
	ModeCPU    Mode = "cpu"
	ModeHeap   Mode = "heap"
	ModeAllocs Mode = "allocs"
)

// ParseMode 解析模式字串；未知模式為設定錯誤。
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNone, ModeCPU, ModeHeap, ModeAllocs:
		return m, nil
	default:
		return ModeNone, errs.Configf("unknown pprof mode: %q (want cpu, heap or allocs)", s)
	}
}

// Run 依 mode 執行 exe 並寫出對應 profile 到 dir（空字串使用 DefaultDir）。
// exe 的錯誤優先回傳。
func Run(mode Mode, dir string, exe func() error) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case ModeNone:
		return exe()
	case ModeCPU:
		return cpu(dir, exe)
	case ModeHeap:
		return snapshot(dir, "heap", exe)
	case ModeAllocs:
		return snapshot(dir, "allocs", exe)
	default:
		return errs.Configf("unknown pprof mode: %q", mode)
	}
}

// cpu 全程開啟 CPU profiling，產物也可作為 PGO 的輸入。
func cpu(dir string, exe func() error) error {
	f, err := create(dir, "cpu.pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// snapshot 在 exe 結束後寫出一次 heap（in-use）或 allocs（累積配置）快照。
func snapshot(dir, name string, exe func() error) error {
	if err := exe(); err != nil {
		return err
	}
	if name == "heap" {
		// 讓快照貼近 live objects
		runtime.GC()
	}
	prof := pprof.Lookup(name)
	if prof == nil {
		return errs.Warnf("profile %s not available", name)
	}
	f, err := create(dir, name+".pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "write "+name+" profile")
	}
	return nil
}

func create(dir, file string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create profiling dir")
	}
	f, err := os.Create(filepath.Join(dir, file))
	if err != nil {
		return nil, errs.Wrap(err, "create "+file)
	}
	return f, nil
}
