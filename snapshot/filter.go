package snapshot

import "fmt"

// SnapshotRegionFilter is a sub-range of a region whose elements all passed
// the most recent scan. Filters never own memory; values are read through
// their parent region.
type SnapshotRegionFilter struct {
	BaseAddress uint64 `json:"base_address"`
	Size        uint64 `json:"size"`
}

func NewFilter(baseAddress, size uint64) SnapshotRegionFilter {
	return SnapshotRegionFilter{BaseAddress: baseAddress, Size: size}
}

func (f SnapshotRegionFilter) EndAddress() uint64 {
	return f.BaseAddress + f.Size
}

func (f SnapshotRegionFilter) String() string {
	return fmt.Sprintf("0x%x+%d", f.BaseAddress, f.Size)
}

// ElementCount returns how many element start addresses, alignment bytes
// apart, leave unitSize bytes inside the filter. The base address must be
// aligned and the filter must hold at least one element.
func (f SnapshotRegionFilter) ElementCount(unitSize, alignment int) uint64 {
	if alignment < 1 {
		alignment = 1
	}
	invariant(f.BaseAddress%uint64(alignment) == 0, "filter %s misaligned for alignment %d", f, alignment)
	return ElementCount(f.Size, unitSize, alignment)
}

// ElementCount is the number of offsets o with o+unitSize <= size and
// o%alignment == 0. A size smaller than one unit holds nothing.
func ElementCount(size uint64, unitSize, alignment int) uint64 {
	if alignment < 1 {
		alignment = 1
	}
	if unitSize < 1 {
		unitSize = 1
	}
	unit := uint64(unitSize)
	if size < unit {
		return 0
	}
	return (size-unit)/uint64(alignment) + 1
}

// ElementAddress returns the address of the i-th element of the filter
func (f SnapshotRegionFilter) ElementAddress(i uint64, alignment int) uint64 {
	return f.BaseAddress + i*uint64(alignment)
}
