package snapshot

import (
	"fmt"
	"sort"
)

// Tombstone marks a segment of a region whose last read failed
type Tombstone struct {
	Address uint64 `json:"address"`
	Size    uint64 `json:"size"`
}

func (t Tombstone) EndAddress() uint64 {
	return t.Address + t.Size
}

// SnapshotRegion is one contiguous range of the target's address space with
// the current and previous copy of its bytes. When several OS mappings were
// merged into one region, the addresses where they joined are kept as page
// boundaries so each mapping is read separately.
type SnapshotRegion struct {
	baseAddress uint64
	size        uint64

	currentValues  []byte
	previousValues []byte

	pageBoundaries []uint64
	tombstones     []Tombstone

	collections []FilterCollection
}

// NewSnapshotRegion creates a region without values. Page boundaries outside
// (base, base+size) are ignored.
func NewSnapshotRegion(baseAddress, size uint64, pageBoundaries []uint64) *SnapshotRegion {
	r := &SnapshotRegion{baseAddress: baseAddress, size: size}
	for _, b := range pageBoundaries {
		if b > baseAddress && b < baseAddress+size {
			r.pageBoundaries = append(r.pageBoundaries, b)
		}
	}
	sort.Slice(r.pageBoundaries, func(i, j int) bool { return r.pageBoundaries[i] < r.pageBoundaries[j] })
	return r
}

// NewSnapshotRegionWithValues creates a region that already holds current values
func NewSnapshotRegionWithValues(baseAddress uint64, current []byte) *SnapshotRegion {
	r := NewSnapshotRegion(baseAddress, uint64(len(current)), nil)
	r.currentValues = append([]byte(nil), current...)
	r.previousValues = append([]byte(nil), current...)
	return r
}

func (r *SnapshotRegion) BaseAddress() uint64 { return r.baseAddress }
func (r *SnapshotRegion) Size() uint64        { return r.size }
func (r *SnapshotRegion) EndAddress() uint64  { return r.baseAddress + r.size }

func (r *SnapshotRegion) String() string {
	return fmt.Sprintf("0x%x-0x%x", r.baseAddress, r.EndAddress())
}

func (r *SnapshotRegion) Contains(address uint64) bool {
	return address >= r.baseAddress && address < r.EndAddress()
}

func (r *SnapshotRegion) CurrentValues() []byte  { return r.currentValues }
func (r *SnapshotRegion) PreviousValues() []byte { return r.previousValues }

func (r *SnapshotRegion) HasCurrentValues() bool {
	return uint64(len(r.currentValues)) == r.size && r.size > 0
}

func (r *SnapshotRegion) HasPreviousValues() bool {
	return uint64(len(r.previousValues)) == r.size && r.size > 0
}

// SetValues replaces both buffers. Each must be empty or exactly Size bytes.
func (r *SnapshotRegion) SetValues(current, previous []byte) {
	invariant(len(current) == 0 || uint64(len(current)) == r.size, "current values are %d bytes, region %s", len(current), r)
	invariant(len(previous) == 0 || uint64(len(previous)) == r.size, "previous values are %d bytes, region %s", len(previous), r)
	r.currentValues = current
	r.previousValues = previous
}

func (r *SnapshotRegion) PageBoundaries() []uint64 {
	return r.pageBoundaries
}

func (r *SnapshotRegion) Tombstones() []Tombstone {
	return r.tombstones
}

func (r *SnapshotRegion) ClearTombstones() {
	r.tombstones = nil
}

// Offset converts an address inside the region to an index into its buffers
func (r *SnapshotRegion) Offset(address uint64) int {
	invariant(address >= r.baseAddress && address <= r.EndAddress(), "address 0x%x outside region %s", address, r)
	return int(address - r.baseAddress)
}

// FilterOffset validates that f lies inside the region and returns the buffer offset of its first byte
func (r *SnapshotRegion) FilterOffset(f SnapshotRegionFilter) int {
	invariant(f.BaseAddress >= r.baseAddress && f.EndAddress() <= r.EndAddress(), "filter %s outside region %s", f, r)
	return int(f.BaseAddress - r.baseAddress)
}

// WholeRegionFilter is the filter a new scan starts from: everything from
// the first aligned address to the end of the region. ok is false when not
// even one element fits.
func (r *SnapshotRegion) WholeRegionFilter(unitSize, alignment int) (SnapshotRegionFilter, bool) {
	if alignment < 1 {
		alignment = 1
	}
	a := uint64(alignment)
	base := (r.baseAddress + a - 1) / a * a
	if base >= r.EndAddress() {
		return SnapshotRegionFilter{}, false
	}
	f := SnapshotRegionFilter{BaseAddress: base, Size: r.EndAddress() - base}
	if ElementCount(f.Size, unitSize, alignment) == 0 {
		return SnapshotRegionFilter{}, false
	}
	return f, true
}

func (r *SnapshotRegion) Collections() []FilterCollection {
	return r.collections
}

// Collection returns the filters held for a data type, or nil
func (r *SnapshotRegion) Collection(dataTypeID string) *FilterCollection {
	for i := range r.collections {
		if r.collections[i].DataTypeID == dataTypeID {
			return &r.collections[i]
		}
	}
	return nil
}

// SetCollection replaces the filters held for c.DataTypeID
func (r *SnapshotRegion) SetCollection(c FilterCollection) {
	for _, f := range c.Filters {
		invariant(f.Size > 0, "zero sized filter at 0x%x", f.BaseAddress)
		r.FilterOffset(f)
	}
	if existing := r.Collection(c.DataTypeID); existing != nil {
		*existing = c
		return
	}
	r.collections = append(r.collections, c)
}

// SetCollections replaces every collection of the region
func (r *SnapshotRegion) SetCollections(collections []FilterCollection) {
	r.collections = nil
	for _, c := range collections {
		r.SetCollection(c)
	}
}

func (r *SnapshotRegion) ClearCollections() {
	r.collections = nil
}

// HasFilters reports whether any collection holds at least one filter
func (r *SnapshotRegion) HasFilters() bool {
	for i := range r.collections {
		if len(r.collections[i].Filters) > 0 {
			return true
		}
	}
	return false
}

// ElementCount is the number of results across every collection of the region
func (r *SnapshotRegion) ElementCount() uint64 {
	var total uint64
	for i := range r.collections {
		total += r.collections[i].ElementCount()
	}
	return total
}

// DropTombstonedFilters removes filters overlapping a tombstoned segment,
// then clears the tombstones. It returns the number of filters dropped.
func (r *SnapshotRegion) DropTombstonedFilters() int {
	if len(r.tombstones) == 0 {
		return 0
	}
	dropped := 0
	for i := range r.collections {
		kept := r.collections[i].Filters[:0]
		for _, f := range r.collections[i].Filters {
			if r.overlapsTombstone(f) {
				dropped++
				continue
			}
			kept = append(kept, f)
		}
		r.collections[i].Filters = kept
	}
	r.tombstones = nil
	return dropped
}

func (r *SnapshotRegion) overlapsTombstone(f SnapshotRegionFilter) bool {
	for _, t := range r.tombstones {
		if f.BaseAddress < t.EndAddress() && t.Address < f.EndAddress() {
			return true
		}
	}
	return false
}

// ResizeToFilters shrinks the region to the smallest range covering every
// filter of every collection. Buffers are re-sliced, not copied. A region
// without filters is left untouched; callers discard it instead.
func (r *SnapshotRegion) ResizeToFilters() {
	var lo, hi uint64
	found := false
	for i := range r.collections {
		clo, chi, ok := r.collections[i].Bounds()
		if !ok {
			continue
		}
		if !found || clo < lo {
			lo = clo
		}
		if !found || chi > hi {
			hi = chi
		}
		found = true
	}
	if !found || (lo == r.baseAddress && hi == r.EndAddress()) {
		return
	}
	invariant(lo >= r.baseAddress && hi <= r.EndAddress(), "filters 0x%x-0x%x outside region %s", lo, hi, r)

	start, end := lo-r.baseAddress, hi-r.baseAddress
	if r.HasCurrentValues() {
		r.currentValues = r.currentValues[start:end:end]
	}
	if r.HasPreviousValues() {
		r.previousValues = r.previousValues[start:end:end]
	}

	boundaries := r.pageBoundaries[:0]
	for _, b := range r.pageBoundaries {
		if b > lo && b < hi {
			boundaries = append(boundaries, b)
		}
	}
	r.pageBoundaries = boundaries

	tombstones := r.tombstones[:0]
	for _, t := range r.tombstones {
		if t.Address < hi && t.EndAddress() > lo {
			tombstones = append(tombstones, t)
		}
	}
	r.tombstones = tombstones

	r.baseAddress = lo
	r.size = hi - lo
}

// Chunk splits a region larger than maxSize into contiguous regions of at
// most maxSize bytes. Cuts are placed on the last page boundary that fits,
// otherwise on an 8-byte aligned address. Values are shared with the parent;
// filter collections are not carried over, so chunk before the first scan.
func (r *SnapshotRegion) Chunk(maxSize uint64) []*SnapshotRegion {
	if maxSize == 0 || r.size <= maxSize {
		return []*SnapshotRegion{r}
	}
	invariant(len(r.collections) == 0, "chunking region %s with filters", r)

	var chunks []*SnapshotRegion
	start := r.baseAddress
	end := r.EndAddress()
	for start < end {
		cut := end
		if end-start > maxSize {
			cut = r.chunkCut(start, start+maxSize)
		}
		chunk := NewSnapshotRegion(start, cut-start, r.pageBoundaries)
		lo, hi := start-r.baseAddress, cut-r.baseAddress
		if r.HasCurrentValues() {
			chunk.currentValues = r.currentValues[lo:hi:hi]
		}
		if r.HasPreviousValues() {
			chunk.previousValues = r.previousValues[lo:hi:hi]
		}
		chunks = append(chunks, chunk)
		start = cut
	}
	return chunks
}

func (r *SnapshotRegion) chunkCut(start, limit uint64) uint64 {
	i := sort.Search(len(r.pageBoundaries), func(i int) bool { return r.pageBoundaries[i] > limit })
	if i > 0 && r.pageBoundaries[i-1] > start {
		return r.pageBoundaries[i-1]
	}
	if cut := limit &^ 7; cut > start {
		return cut
	}
	return limit
}
