package datatypes

import (
	"math"

	"memscan/scan_types"
)

func absDiff[T float](a, b T) T {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}

// floatScalarCompare builds tolerance-aware comparators. Equality style
// compares (==, !=, changed, unchanged and the arithmetic deltas) accept any
// difference within tol; ordering compares are exact.
func floatScalarCompare[T float](info primitiveInfo, c codec[T], tol T, cmp Comparison) (ScalarCompareFn, error) {
	load := c.load
	size := info.size
	// identical bits are unchanged even when they encode NaN
	unchanged := func(cur, prev []byte, off int) bool {
		return string(cur[off:off+size]) == string(prev[off:off+size]) ||
			absDiff(load(cur[off:]), load(prev[off:])) <= tol
	}

	switch cmp.CompareType {
	case scan_types.CompareChanged:
		return func(cur, prev []byte, off int) bool { return !unchanged(cur, prev, off) }, nil
	case scan_types.CompareUnchanged:
		return unchanged, nil
	case scan_types.CompareIncreased:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) > load(prev[off:]) }, nil
	case scan_types.CompareDecreased:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) < load(prev[off:]) }, nil
	case scan_types.CompareShiftLeftByX, scan_types.CompareShiftRightByX,
		scan_types.CompareLogicalAndByX, scan_types.CompareLogicalOrByX, scan_types.CompareLogicalXorByX:
		return nil, unsupported(info.id, cmp.CompareType, "bitwise operation on floating point")
	}

	if !cmp.CompareType.IsValid() {
		return nil, unsupported(info.id, cmp.CompareType, "unknown compare type")
	}

	raw, err := info.operand(cmp)
	if err != nil {
		return nil, err
	}
	op := load(raw)

	switch cmp.CompareType {
	case scan_types.CompareEqual:
		return func(cur, _ []byte, off int) bool { return absDiff(load(cur[off:]), op) <= tol }, nil
	case scan_types.CompareNotEqual:
		return func(cur, _ []byte, off int) bool { return !(absDiff(load(cur[off:]), op) <= tol) }, nil
	case scan_types.CompareGreaterThan:
		return func(cur, _ []byte, off int) bool { return load(cur[off:]) > op }, nil
	case scan_types.CompareGreaterThanOrEqual:
		return func(cur, _ []byte, off int) bool { return load(cur[off:]) >= op }, nil
	case scan_types.CompareLessThan:
		return func(cur, _ []byte, off int) bool { return load(cur[off:]) < op }, nil
	case scan_types.CompareLessThanOrEqual:
		return func(cur, _ []byte, off int) bool { return load(cur[off:]) <= op }, nil

	case scan_types.CompareIncreasedByX:
		return func(cur, prev []byte, off int) bool { return absDiff(load(cur[off:]), load(prev[off:])+op) <= tol }, nil
	case scan_types.CompareDecreasedByX:
		return func(cur, prev []byte, off int) bool { return absDiff(load(cur[off:]), load(prev[off:])-op) <= tol }, nil
	case scan_types.CompareMultipliedByX:
		return func(cur, prev []byte, off int) bool { return absDiff(load(cur[off:]), load(prev[off:])*op) <= tol }, nil
	case scan_types.CompareDividedByX:
		if op == 0 {
			return nil, unsupported(info.id, cmp.CompareType, "division by zero")
		}
		return func(cur, prev []byte, off int) bool { return absDiff(load(cur[off:]), load(prev[off:])/op) <= tol }, nil
	case scan_types.CompareModuloByX:
		if op == 0 {
			return nil, unsupported(info.id, cmp.CompareType, "modulo by zero")
		}
		return func(cur, prev []byte, off int) bool {
			return absDiff(load(cur[off:]), T(math.Mod(float64(load(prev[off:])), float64(op)))) <= tol
		}, nil
	}

	return nil, unsupported(info.id, cmp.CompareType, "")
}
