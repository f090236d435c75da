package emu

import "math"

// Scalar arithmetic helpers shared by the execute paths. Division
// follows the RISC-V convention: no traps, division by zero and signed
// overflow produce defined register values.

// signExtend32 sign-extends a 32-bit result to register width.
func signExtend32(v uint32) uint64 {
	return uint64(int64(int32(v)))
}

// div64 performs signed division. Division by zero yields -1; the
// MinInt64 / -1 overflow case yields MinInt64.
func div64(a, b int64) uint64 {
	switch {
	case b == 0:
		return ^uint64(0)
	case a == math.MinInt64 && b == -1:
		return uint64(a)
	default:
		return uint64(a / b)
	}
}

// divu64 performs unsigned division. Division by zero yields all ones.
func divu64(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	return a / b
}

// rem64 performs signed remainder. Remainder by zero yields the
// dividend; the overflow case yields 0.
func rem64(a, b int64) uint64 {
	switch {
	case b == 0:
		return uint64(a)
	case a == math.MinInt64 && b == -1:
		return 0
	default:
		return uint64(a % b)
	}
}

// remu64 performs unsigned remainder. Remainder by zero yields the
// dividend.
func remu64(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}
