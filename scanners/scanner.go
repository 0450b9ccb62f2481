package scanners

import (
	"memscan/snapshot"
)

// Scanner narrows one filter of a region to the elements that pass a plan's
// comparison. Output filters are ordered by address and lie inside the input.
type Scanner interface {
	Name() string
	ScanFilter(region *snapshot.SnapshotRegion, filter snapshot.SnapshotRegionFilter, plan *ScanPlan) []snapshot.SnapshotRegionFilter
}

// ScalarScanner compares one element at a time
type ScalarScanner struct{}

func (ScalarScanner) Name() string { return "scalar" }

func (ScalarScanner) ScanFilter(region *snapshot.SnapshotRegion, filter snapshot.SnapshotRegionFilter, plan *ScanPlan) []snapshot.SnapshotRegionFilter {
	off := region.FilterOffset(filter)
	count := filter.ElementCount(plan.UnitSize, plan.Alignment)
	current, previous := values(region, plan)

	encoder := snapshot.NewPaddedRunLengthEncoder(filter.BaseAddress, plan.Padding(), filter.EndAddress())
	scanScalar(encoder, plan, current, previous, off, count)
	encoder.Finalize(0)
	return encoder.Filters()
}

func scanScalar(encoder *snapshot.RunLengthEncoder, plan *ScanPlan, current, previous []byte, off int, count uint64) {
	step := uint64(plan.Alignment)
	for i := uint64(0); i < count; i++ {
		if plan.Scalar(current, previous, off) {
			encoder.EncodeRange(step)
		} else {
			encoder.Finalize(step)
		}
		off += plan.Alignment
	}
}

// values returns the buffers a plan compares. Relative and delta compares
// need previous values; a region without them yields nil and is not scanned.
func values(region *snapshot.SnapshotRegion, plan *ScanPlan) (current, previous []byte) {
	current = region.CurrentValues()
	if plan.Comparison.CompareType.RequiresPrevious() {
		previous = region.PreviousValues()
	}
	return current, previous
}

// Scannable reports whether region holds the values plan needs
func Scannable(region *snapshot.SnapshotRegion, plan *ScanPlan) bool {
	if !region.HasCurrentValues() {
		return false
	}
	return !plan.Comparison.CompareType.RequiresPrevious() || region.HasPreviousValues()
}
