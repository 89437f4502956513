// Package corefmt 文字編碼小工具：指紋的 hex 表示與 replay token 的 base64url 表示。
package corefmt

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"

	"github.com/zintix-labs/packlab/errs"
)

func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64url failed")
	}
	return b, err
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// Uint64Hex 以大端序 16 位 hex 表示 64-bit 雜湊值（固定長度，便於比對）。
func Uint64Hex(v uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return hex.EncodeToString(b[:])
}
