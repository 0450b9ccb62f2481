package datatypes

import (
	"memscan/scan_types"
)

// shiftCount wraps the operand into the type's bit width the way a wrapping shift does
func shiftCount[T integer](op T, bits int) uint {
	return uint(uint64(op) % uint64(bits))
}

func integerScalarCompare[T integer](info primitiveInfo, c codec[T], cmp Comparison) (ScalarCompareFn, error) {
	load := c.load

	switch cmp.CompareType {
	case scan_types.CompareChanged:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) != load(prev[off:]) }, nil
	case scan_types.CompareUnchanged:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) == load(prev[off:]) }, nil
	case scan_types.CompareIncreased:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) > load(prev[off:]) }, nil
	case scan_types.CompareDecreased:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) < load(prev[off:]) }, nil
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
		return func(cur, _ []byte, off int) bool { return load(cur[off:]) == op }, nil
	case scan_types.CompareNotEqual:
		return func(cur, _ []byte, off int) bool { return load(cur[off:]) != op }, nil
	case scan_types.CompareGreaterThan:
		return func(cur, _ []byte, off int) bool { return load(cur[off:]) > op }, nil
	case scan_types.CompareGreaterThanOrEqual:
		return func(cur, _ []byte, off int) bool { return load(cur[off:]) >= op }, nil
	case scan_types.CompareLessThan:
		return func(cur, _ []byte, off int) bool { return load(cur[off:]) < op }, nil
	case scan_types.CompareLessThanOrEqual:
		return func(cur, _ []byte, off int) bool { return load(cur[off:]) <= op }, nil

	case scan_types.CompareIncreasedByX:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) == load(prev[off:])+op }, nil
	case scan_types.CompareDecreasedByX:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) == load(prev[off:])-op }, nil
	case scan_types.CompareMultipliedByX:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) == load(prev[off:])*op }, nil
	case scan_types.CompareDividedByX:
		if op == 0 {
			return nil, unsupported(info.id, cmp.CompareType, "division by zero")
		}
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) == load(prev[off:])/op }, nil
	case scan_types.CompareModuloByX:
		if op == 0 {
			return nil, unsupported(info.id, cmp.CompareType, "modulo by zero")
		}
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) == load(prev[off:])%op }, nil
	case scan_types.CompareShiftLeftByX:
		s := shiftCount(op, info.size*8)
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) == load(prev[off:])<<s }, nil
	case scan_types.CompareShiftRightByX:
		s := shiftCount(op, info.size*8)
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) == load(prev[off:])>>s }, nil
	case scan_types.CompareLogicalAndByX:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) == load(prev[off:])&op }, nil
	case scan_types.CompareLogicalOrByX:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) == load(prev[off:])|op }, nil
	case scan_types.CompareLogicalXorByX:
		return func(cur, prev []byte, off int) bool { return load(cur[off:]) == load(prev[off:])^op }, nil
	}

	return nil, unsupported(info.id, cmp.CompareType, "")
}
