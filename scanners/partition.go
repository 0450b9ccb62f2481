package scanners

import (
	"memscan/snapshot"
)

// Partition cuts a filter larger than maxSize into consecutive pieces of
// whole elements so each can be scanned by its own encoder. Piece boundaries
// fall on 64 byte multiples of the filter base where possible.
func Partition(filter snapshot.SnapshotRegionFilter, unitSize, alignment int, maxSize uint64) []snapshot.SnapshotRegionFilter {
	if maxSize == 0 || filter.Size <= maxSize {
		return []snapshot.SnapshotRegionFilter{filter}
	}
	count := filter.ElementCount(unitSize, alignment)
	align := uint64(alignment)

	perPart := (maxSize &^ 63) / align
	if perPart == 0 {
		perPart = 1
	}
	if count <= perPart {
		return []snapshot.SnapshotRegionFilter{filter}
	}

	parts := make([]snapshot.SnapshotRegionFilter, 0, (count+perPart-1)/perPart)
	for first := uint64(0); first < count; first += perPart {
		n := perPart
		if first+n > count {
			n = count - first
		}
		base := filter.BaseAddress + first*align
		size := (n-1)*align + max(uint64(unitSize), align)
		if first+n == count {
			size = filter.EndAddress() - base
		}
		parts = append(parts, snapshot.SnapshotRegionFilter{BaseAddress: base, Size: size})
	}
	return parts
}

// Coalesce merges address ordered filters whose element runs continue one
// another, as happens where two partitions of one filter met. The result
// describes the same elements with the fewest filters.
func Coalesce(filters []snapshot.SnapshotRegionFilter, unitSize, alignment int) []snapshot.SnapshotRegionFilter {
	if len(filters) < 2 {
		return filters
	}
	out := make([]snapshot.SnapshotRegionFilter, 0, len(filters))
	out = append(out, filters[0])
	for _, next := range filters[1:] {
		prev := &out[len(out)-1]
		nextElement := prev.BaseAddress + snapshot.ElementCount(prev.Size, unitSize, alignment)*uint64(alignment)
		if next.BaseAddress <= nextElement {
			if next.EndAddress() > prev.EndAddress() {
				prev.Size = next.EndAddress() - prev.BaseAddress
			}
			continue
		}
		out = append(out, next)
	}
	return out
}
