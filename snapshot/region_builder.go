package snapshot

import (
	"fmt"

	"memscan/process"
	"memscan/process/memory_map"
)

// BuildRegions turns a memory map into snapshot regions. Entries selected by
// opts that touch end to end are merged into one region, and each join
// becomes a page boundary. Regions larger than maxRegionSize are chunked;
// zero disables chunking.
func BuildRegions(mm []memory_map.MemoryMapItem, opts memory_map.QueryOptions, maxRegionSize uint64) []*SnapshotRegion {
	items := opts.Filter(mm)

	var regions []*SnapshotRegion
	flush := func(base, end uint64, boundaries []uint64) {
		if end <= base {
			return
		}
		regions = append(regions, NewSnapshotRegion(base, end-base, boundaries).Chunk(maxRegionSize)...)
	}

	var base, end uint64
	var boundaries []uint64
	for _, item := range items {
		if end > base && item.Address == end {
			boundaries = append(boundaries, item.Address)
			end = item.End()
			continue
		}
		flush(base, end, boundaries)
		base, end, boundaries = item.Address, item.End(), nil
	}
	flush(base, end, boundaries)
	return regions
}

// NewSnapshotFromProcess refreshes the target's memory map and builds an empty snapshot over it
func NewSnapshotFromProcess(proc process.Process, opts memory_map.QueryOptions, maxRegionSize uint64) (*Snapshot, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := proc.UpdateMemoryMap(); err != nil {
		return nil, fmt.Errorf("update memory map: %w", err)
	}
	mm, err := proc.GetMemoryMap()
	if err != nil {
		return nil, fmt.Errorf("get memory map: %w", err)
	}
	return NewSnapshot(BuildRegions(mm, opts, maxRegionSize)), nil
}
