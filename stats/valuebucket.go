package stats

import "fmt"

// ValueBuckets
//
// 用來快速定位每包價值 -> 分桶位置 O(1)
//   - 分桶以邊界切分：[0,b1), [b1,b2), ..., [bn,+inf)
//   - LUT 建到最後一個邊界為止，超過即落在最後一桶
type ValueBuckets struct {
	bounds []int
	labels []string
	lut    []int
}

// DefaultValueBounds 預設價值邊界
var DefaultValueBounds = []int{5, 10, 20, 50, 100, 200, 500, 1000}

// NewValueBuckets 以遞增的正整數邊界建立分桶；邊界不合法時退回預設值。
func NewValueBuckets(bounds []int) *ValueBuckets {
	if !increasing(bounds) {
		bounds = DefaultValueBounds
	}
	b := &ValueBuckets{bounds: append([]int(nil), bounds...)}

	b.labels = make([]string, 0, len(bounds)+1)
	lo := 0
	for _, hi := range bounds {
		b.labels = append(b.labels, fmt.Sprintf("[%d,%d)", lo, hi))
		lo = hi
	}
	b.labels = append(b.labels, fmt.Sprintf("[%d,+inf)", lo))

	last := bounds[len(bounds)-1]
	b.lut = make([]int, last)
	idx := 0
	for v := 0; v < last; v++ {
		for v >= bounds[idx] {
			idx++
		}
		b.lut[v] = idx
	}
	return b
}

func increasing(bs []int) bool {
	if len(bs) == 0 || bs[0] <= 0 {
		return false
	}
	for i := 1; i < len(bs); i++ {
		if bs[i] <= bs[i-1] {
			return false
		}
	}
	return true
}

// Labels 回傳分桶標籤，長度為 len(bounds)+1。
func (b *ValueBuckets) Labels() []string {
	return b.labels
}

// Len 分桶數量
func (b *ValueBuckets) Len() int {
	return len(b.labels)
}

// Index 回傳價值 v 所屬分桶。負值視為 0。
func (b *ValueBuckets) Index(v int) int {
	if v < 0 {
		v = 0
	}
	if v >= len(b.lut) {
		return len(b.labels) - 1
	}
	return b.lut[v]
}
