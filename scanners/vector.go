package scanners

import (
	"math/bits"

	"memscan/datatypes"
	"memscan/snapshot"
)

// VectorScanner compares LaneWidth bytes of elements per comparator call. The
// unaligned head and the tail too short for a full vector are scanned one
// element at a time.
type VectorScanner struct {
	LaneWidth int
}

func (s VectorScanner) Name() string {
	switch s.LaneWidth {
	case 64:
		return "vector512"
	case 32:
		return "vector256"
	}
	return "vector128"
}

func (s VectorScanner) ScanFilter(region *snapshot.SnapshotRegion, filter snapshot.SnapshotRegionFilter, plan *ScanPlan) []snapshot.SnapshotRegionFilter {
	compare := plan.Vector(s.LaneWidth)
	if compare == nil {
		return ScalarScanner{}.ScanFilter(region, filter, plan)
	}

	off := region.FilterOffset(filter)
	count := filter.ElementCount(plan.UnitSize, plan.Alignment)
	current, previous := values(region, plan)
	encoder := snapshot.NewPaddedRunLengthEncoder(filter.BaseAddress, plan.Padding(), filter.EndAddress())

	align := uint64(plan.Alignment)
	lane := uint64(s.LaneWidth)
	perVector := lane / align

	// scalar head up to the first lane aligned address
	head := uint64(0)
	if rem := filter.BaseAddress % lane; rem != 0 {
		head = (lane - rem) / align
		if head > count {
			head = count
		}
	}
	scanScalar(encoder, plan, current, previous, off, head)
	off += int(head * align)
	done := head

	for count-done >= perVector {
		mask := compare(current, previous, off)
		encodeMask(encoder, mask, int(perVector), plan.Alignment)
		off += s.LaneWidth
		done += perVector
	}

	scanScalar(encoder, plan, current, previous, off, count-done)
	encoder.Finalize(0)
	return encoder.Filters()
}

// encodeMask feeds a lane mask to the encoder. Uniform halves become a single
// encoder event; mixed halves are split again, down to 16 byte blocks, below
// which every element is its own event.
func encodeMask(encoder *snapshot.RunLengthEncoder, mask uint64, elements, alignment int) {
	full := datatypes.LowMask(elements)
	mask &= full
	width := uint64(elements * alignment)
	switch {
	case mask == full:
		encoder.EncodeRange(width)
	case mask == 0:
		encoder.Finalize(width)
	case width > 16:
		half := elements / 2
		encodeMask(encoder, mask, half, alignment)
		encodeMask(encoder, mask>>uint(half), elements-half, alignment)
	default:
		encodeBits(encoder, mask, elements, alignment)
	}
}

func encodeBits(encoder *snapshot.RunLengthEncoder, mask uint64, elements, alignment int) {
	step := uint64(alignment)
	for i := 0; i < elements; {
		// consume whole runs of equal bits at once
		var run int
		if mask&1 == 1 {
			run = bits.TrailingZeros64(^mask)
		} else {
			run = bits.TrailingZeros64(mask)
		}
		if run > elements-i {
			run = elements - i
		}
		if mask&1 == 1 {
			encoder.EncodeRange(step * uint64(run))
		} else {
			encoder.Finalize(step * uint64(run))
		}
		mask >>= uint(run)
		i += run
	}
}
