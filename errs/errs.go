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

// Package errs 定義 packlab 全域統一的錯誤型別。
//
// 錯誤同時帶有兩個維度：
//   - ErrLevel：嚴重程度（Fatal 需立即中止；Warn 為可預期、可處理的情境）。
//   - Code：機器可讀的分類（config / retryable / non_retryable / exhausted），讓呼叫端決定如何呈現。
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Code 為錯誤分類。空字串代表未分類。
type Code string

const (
	// CodeConfig 設定錯誤：例如某個必須抽出的稀有度在卡池中沒有任何卡。屬於開發期 bug，不可重試。
	CodeConfig Code = "config"
	// CodeRetryable 可重試的驗證失敗（重複指紋、熵值異常），通常只在自動生成迴圈內部被消化。
	CodeRetryable Code = "retryable"
	// CodeNonRetryable 不可重試的驗證失敗（稀有度規則被破壞、數值損毀），重試也無法修正系統性錯誤。
	CodeNonRetryable Code = "non_retryable"
	// CodeExhausted 嘗試次數用盡仍未成功。
	CodeExhausted Code = "exhausted"
)

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 表示嚴重度；Code 表示分類。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Code    Code
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Code != "" {
		base = fmt.Sprintf("errlv=%s code=%s %s", ErrLv(e.ErrLv), e.Code, e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 以 Code 比對，讓 errors.Is(err, errs.Config) 這類哨兵判斷成立。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok || t.Message != "" || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// 分類哨兵，只用於 errors.Is 比對，不帶訊息。
var (
	Config       = &E{Code: CodeConfig}
	Retryable    = &E{Code: CodeRetryable}
	NonRetryable = &E{Code: CodeNonRetryable}
	Exhausted    = &E{Code: CodeExhausted}
)

func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// Configf 建立 Fatal 等級、分類為 config 的錯誤。
func Configf(format string, a ...any) *E {
	e := NewFatal(fmt.Sprintf(format, a...))
	e.Code = CodeConfig
	return e
}

// WithCode 設定分類並回傳自身，方便串接。
func (e *E) WithCode(c Code) *E {
	e.Code = c
	return e
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定訊息包裝底層錯誤。
//
// ErrLevel / Code 規則：
//   - 若 cause 已經是 *E，沿用其 ErrLv 與 Code。
//   - 否則（標準庫或三方依賴錯誤）一律視為 Fatal、無分類。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	var code Code
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		code = e.Code
	}
	r := New(errLv, msg)
	r.Code = code
	r.Cause = cause
	return r
}

// WrapWithExtra 同 Wrap，另附上下文字串。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// CodeOf 回傳錯誤鏈上第一個帶分類的 Code。
func CodeOf(err error) Code {
	for err != nil {
		if e, ok := err.(*E); ok && e.Code != "" {
			return e.Code
		}
		err = errors.Unwrap(err)
	}
	return ""
}
