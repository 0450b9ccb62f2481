package datatypes

import (
	"encoding/binary"

	"memscan/scan_types"
)

const (
	lowSevenBits = 0x7f7f7f7f7f7f7f7f
	// multiplying the per-byte flags (one bit at 8*i) by this gathers bit i into bit 56+i
	byteGather = 0x0102040810204080
)

// LowMask returns a mask with the low n bits set
func LowMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(n)) - 1
}

// laneKernel evaluates one vector's worth of elements with a scalar comparator
func laneKernel(scalar ScalarCompareFn, laneWidth, alignment int) VectorCompareFn {
	n := laneWidth / alignment
	return func(cur, prev []byte, off int) uint64 {
		var mask uint64
		for i := 0; i < n; i++ {
			if scalar(cur, prev, off) {
				mask |= 1 << uint(i)
			}
			off += alignment
		}
		return mask
	}
}

// zeroLanes reports, one bit per lane, which unitSize-wide lanes of x are zero
func zeroLanes(x uint64, unitSize int) uint64 {
	switch unitSize {
	case 1:
		t := ^(((x & lowSevenBits) + lowSevenBits) | x | lowSevenBits)
		return ((t >> 7) * byteGather) >> 56
	case 2:
		var m uint64
		for k := 0; k < 4; k++ {
			if uint16(x>>(16*k)) == 0 {
				m |= 1 << uint(k)
			}
		}
		return m
	case 4:
		var m uint64
		if uint32(x) == 0 {
			m |= 1
		}
		if uint32(x>>32) == 0 {
			m |= 2
		}
		return m
	default:
		if x == 0 {
			return 1
		}
		return 0
	}
}

// splat repeats an element's bytes across a 64 bit word in memory order
func splat(operand []byte) uint64 {
	var word [8]byte
	for i := range word {
		word[i] = operand[i%len(operand)]
	}
	return binary.LittleEndian.Uint64(word[:])
}

// equalityKernel handles compares that reduce to byte equality of packed,
// non-overlapping elements. It works a 64 bit word at a time, XORing against
// the splatted operand (or the previous values) and collecting zero lanes.
// It returns nil when the compare is not byte-equality shaped.
func equalityKernel(c Comparison, unitSize, laneWidth int) VectorCompareFn {
	var relative, negate bool
	switch c.CompareType {
	case scan_types.CompareEqual:
	case scan_types.CompareNotEqual:
		negate = true
	case scan_types.CompareUnchanged:
		relative = true
	case scan_types.CompareChanged:
		relative, negate = true, true
	default:
		return nil
	}
	switch unitSize {
	case 1, 2, 4, 8:
	default:
		return nil
	}

	var pattern uint64
	if !relative {
		if c.Operand == nil || len(c.Operand.Bytes) != unitSize {
			return nil
		}
		pattern = splat(c.Operand.Bytes)
	}

	words := laneWidth / 8
	perWord := 8 / unitSize
	full := LowMask(words * perWord)

	return func(cur, prev []byte, off int) uint64 {
		var mask uint64
		for w := 0; w < words; w++ {
			p := off + w*8
			x := binary.LittleEndian.Uint64(cur[p:])
			if relative {
				x ^= binary.LittleEndian.Uint64(prev[p:])
			} else {
				x ^= pattern
			}
			mask |= zeroLanes(x, unitSize) << uint(w*perWord)
		}
		if negate {
			mask = ^mask & full
		}
		return mask
	}
}
