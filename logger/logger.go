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

// Package logger 組裝 packlab 使用的 *slog.Logger。
//
// 兩種注入方式：
//   - 依 Mode 取得預設 logger：New(ModeDev, nil)。
//   - 自行組裝 slog.Handler（JSON/Text/ReplaceAttr/LevelVar...），再用 FromHandler 包成 *slog.Logger。
//
// AsyncHandler 可以把任何 slog.Handler 變成非阻塞，模擬器大量出包時使用。
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/packlab/errs"
)

// Mode 預設 handler 的組裝模式。
type Mode uint8

const (
	ModeDev     Mode = iota // text, debug, stderr
	ModeProd                // json, info, stdout
	ModeSilence             // 全部丟掉
)

func (m Mode) String() string {
	switch m {
	case ModeDev:
		return "dev"
	case ModeProd:
		return "prod"
	case ModeSilence:
		return "silence"
	default:
		return "unknown"
	}
}

// ParseMode 解析 CLI / 環境變數的 log 模式字串。
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dev", "debug", "text":
		return ModeDev, nil
	case "prod", "json":
		return ModeProd, nil
	case "silence", "silent", "off", "none":
		return ModeSilence, nil
	default:
		return ModeDev, errs.Configf("unknown log mode: %q", s)
	}
}

// New 依 mode 建立 logger。w 為 nil 時使用該模式的預設輸出。
func New(mode Mode, w io.Writer) *slog.Logger {
	return slog.New(buildHandler(mode, w))
}

// Silent 回傳丟棄一切輸出的 logger，引擎未注入 logger 時的預設值。
func Silent() *slog.Logger {
	return slog.New(buildHandler(ModeSilence, nil))
}

// FromHandler 把自行組裝的 Handler 包成 *slog.Logger。
func FromHandler(h slog.Handler) *slog.Logger {
	if h == nil {
		h = buildHandler(ModeDev, nil)
	}
	return slog.New(h)
}

// NewAsync 依 mode 建立 handler 後再包一層 AsyncHandler。
// 呼叫端結束前應呼叫 AsyncHandler.Close 以 drain 緩衝。
func NewAsync(mode Mode, w io.Writer, buf int) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(buildHandler(mode, w), buf)
	return slog.New(ah), ah
}

// AsyncHandler 是一個 slog.Handler wrapper：
//   - Handle 只做 enqueue，背景 goroutine 逐筆呼叫 next.Handle 寫出。
//   - channel 滿時丟棄並計數，不把延遲傳回生成路徑。
//
// 注意：slog.Logger 會忽略 Handler.Handle 回傳的 error。
type AsyncHandler struct {
	next slog.Handler
	d    *dispatcher
}

type dispatcher struct {
	ch     chan item
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	dropped atomic.Uint64
}

type item struct {
	ctx     context.Context
	rec     slog.Record
	handler slog.Handler
}

// NewAsyncHandler 以 buf 大小的隊列包裝 next。
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = buildHandler(ModeDev, nil)
	}
	if buf <= 0 {
		buf = 1024
	}
	d := &dispatcher{
		ch:     make(chan item, buf),
		closed: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return &AsyncHandler{next: next, d: d}
}

// Dropped 回傳因隊列滿或已關閉而丟棄的筆數。
func (h *AsyncHandler) Dropped() uint64 {
	if h == nil || h.d == nil {
		return 0
	}
	return h.d.dropped.Load()
}

// Close 停止接收並 drain 已排隊的紀錄。可重複呼叫。
func (h *AsyncHandler) Close() {
	if h == nil || h.d == nil {
		return
	}
	h.d.once.Do(func() { close(h.d.closed) })
	h.d.wg.Wait()
}

func (d *dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case it := <-d.ch:
			_ = it.handler.Handle(it.ctx, it.rec)
		case <-d.closed:
			for {
				select {
				case it := <-d.ch:
					_ = it.handler.Handle(it.ctx, it.rec)
				default:
					return
				}
			}
		}
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if h == nil || h.d == nil {
		return nil
	}
	select {
	case <-h.d.closed:
		h.d.dropped.Add(1)
		return nil
	default:
	}

	// Record 跨 goroutine 前必須 Clone
	it := item{ctx: ctx, rec: r.Clone(), handler: h.next}
	select {
	case h.d.ch <- it:
	default:
		h.d.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), d: h.d}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), d: h.d}
}

func buildHandler(mode Mode, w io.Writer) slog.Handler {
	switch mode {
	case ModeProd:
		if w == nil {
			w = os.Stdout
		}
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeSilence:
		return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4})
	default:
		if w == nil {
			w = os.Stderr
		}
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}
