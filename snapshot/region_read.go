package snapshot

import (
	"memscan/process"
)

// DefaultReadChunkSize is the read size used by ReadAllMemoryChunked
const DefaultReadChunkSize = 16 * 1024

type segment struct {
	address uint64
	lo, hi  int
}

// segments splits the region at its page boundaries, and further into
// chunkSize pieces when chunkSize is positive
func (r *SnapshotRegion) segments(chunkSize int) []segment {
	var result []segment
	add := func(from, to uint64) {
		lo, hi := int(from-r.baseAddress), int(to-r.baseAddress)
		if chunkSize <= 0 {
			result = append(result, segment{address: from, lo: lo, hi: hi})
			return
		}
		for off := lo; off < hi; off += chunkSize {
			end := off + chunkSize
			if end > hi {
				end = hi
			}
			result = append(result, segment{address: r.baseAddress + uint64(off), lo: off, hi: end})
		}
	}

	start := r.baseAddress
	for _, b := range r.pageBoundaries {
		add(start, b)
		start = b
	}
	add(start, r.EndAddress())
	return result
}

// ReadAllMemory refreshes the region from reader. The current values become
// the previous values, then every page-boundary segment is read on its own.
//
// A segment that fails keeps its prior values and is tombstoned; the
// returned *RegionReadError lists it. When every segment fails the current
// values are left as they were and the previous values become a copy of them.
func (r *SnapshotRegion) ReadAllMemory(reader process.MemoryReader) error {
	return r.readSegments(reader, r.segments(0))
}

// ReadAllMemoryChunked behaves like ReadAllMemory but never issues a read
// larger than chunkSize bytes (DefaultReadChunkSize when chunkSize <= 0)
func (r *SnapshotRegion) ReadAllMemoryChunked(reader process.MemoryReader, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = DefaultReadChunkSize
	}
	return r.readSegments(reader, r.segments(chunkSize))
}

func (r *SnapshotRegion) readSegments(reader process.MemoryReader, segments []segment) error {
	if r.size == 0 {
		return &RegionReadError{BaseAddress: r.baseAddress, Total: true}
	}

	hadCurrent := r.HasCurrentValues()
	r.currentValues, r.previousValues = r.previousValues, r.currentValues
	if uint64(len(r.currentValues)) != r.size {
		r.currentValues = make([]byte, r.size)
	}

	var failed []Tombstone
	var firstErr error
	for _, s := range segments {
		err := reader.ReadMemoryInto(process.ProcessMemoryAddress(s.address), r.currentValues[s.lo:s.hi])
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		failed = append(failed, Tombstone{Address: s.address, Size: uint64(s.hi - s.lo)})
		if hadCurrent {
			copy(r.currentValues[s.lo:s.hi], r.previousValues[s.lo:s.hi])
		} else {
			clear(r.currentValues[s.lo:s.hi])
		}
	}

	if len(failed) == len(segments) {
		r.currentValues, r.previousValues = r.previousValues, r.currentValues
		if !hadCurrent {
			r.currentValues, r.previousValues = nil, nil
		}
		r.tombstones = append(r.tombstones, failed...)
		return &RegionReadError{BaseAddress: r.baseAddress, Failed: failed, Total: true, Err: firstErr}
	}

	if !hadCurrent {
		// first read: nothing changed yet
		r.previousValues = append(r.previousValues[:0], r.currentValues...)
	}

	if len(failed) > 0 {
		r.tombstones = append(r.tombstones, failed...)
		return &RegionReadError{BaseAddress: r.baseAddress, Failed: failed, Err: firstErr}
	}
	return nil
}
