// Package core implements the PCG64 random number generator.
//
// The PCG algorithm is designed by Melissa O'Neill.
// The bounded generation (IntN) follows Lemire's multiply-and-reject
// method as used by the Go standard library (math/rand), which is
// licensed under the BSD 3-Clause License.

package core

import (
	"math/bits"
	r2 "math/rand/v2"
)

// golden 為 2^64 / phi，splitmix64 的遞增常數。
const golden uint64 = 0x9e3779b97f4a7c15

// PCG64 以 math/rand/v2 的 PCG 為底的 PRNG。
// 每次 attempt 建立一個新的實例，不跨 goroutine 共用。
type PCG64 struct {
	rng *r2.PCG
}

// NewPCG64 以 seed 建立實例。
// seed 先經 splitmix64 展開成兩個 64-bit 狀態，相鄰 seed（attempt 派生、批次派生）之間不會產生相關序列。
func NewPCG64(seed int64) *PCG64 {
	x := uint64(seed) ^ golden
	return &PCG64{rng: r2.NewPCG(splitmix64(x), splitmix64(x^0xDA942042E4DD58B5))}
}

func (r *PCG64) Uint64() uint64 {
	return r.rng.Uint64()
}

// Float64 回傳 [0,1)，取高 53 bits。
func (r *PCG64) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// IntN 回傳 [0,n)；n <= 0 回傳 -1（卡池為空屬於設定錯誤，呼叫端須先檢查）。
func (r *PCG64) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return int(r.bounded(uint64(n)))
}

// UintN 回傳 [0,n)；n == 0 回傳 0。
func (r *PCG64) UintN(n uint) uint {
	if n == 0 {
		return 0
	}
	return uint(r.bounded(uint64(n)))
}

// Snapshot 序列化內部狀態。
func (r *PCG64) Snapshot() ([]byte, error) {
	return r.rng.MarshalBinary()
}

// Restore 還原 Snapshot 的狀態。
func (r *PCG64) Restore(data []byte) error {
	return r.rng.UnmarshalBinary(data)
}

// bounded 無偏的 [0,n)：乘法取高位，落入偏差區間時重抽。
func (r *PCG64) bounded(n uint64) uint64 {
	if n&(n-1) == 0 {
		return r.Uint64() & (n - 1)
	}
	hi, lo := bits.Mul64(r.Uint64(), n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			hi, lo = bits.Mul64(r.Uint64(), n)
		}
	}
	return hi
}

// splitmix64 種子展開與 seed 派生共用的混洗函數。
func splitmix64(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
