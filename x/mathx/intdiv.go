package mathx

import "golang.org/x/exp/constraints"

// RoundDiv returns floor((a + b/2)/b), classic rounding for non-negative operands.
// b == 0 yields 0.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// ScaleU8 returns round(v * num / den) saturated to [0, 255].
// 64-bit intermediates keep num up to ~2^55 safe.
func ScaleU8(v uint8, num, den uint32) uint8 {
	if den == 0 {
		return 0
	}
	r := RoundDiv(uint64(v)*uint64(num), uint64(den))
	return uint8(Min(r, 255))
}
