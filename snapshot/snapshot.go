package snapshot

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Snapshot is every captured region of a process plus the filters of the
// active scan. The embedded RWMutex guards all of it: scan passes and value
// collection hold the write lock, result readers hold the read lock.
type Snapshot struct {
	sync.RWMutex

	regions []*SnapshotRegion
	history []ScanPass
	entropy *rand.Rand

	log *logger.Logger
}

// NewSnapshot creates a snapshot over regions, ordered by address
func NewSnapshot(regions []*SnapshotRegion) *Snapshot {
	s := &Snapshot{
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "snapshot")),
	}
	s.SetRegions(regions)
	return s
}

// SetRegions replaces the regions and forgets the scan history
func (s *Snapshot) SetRegions(regions []*SnapshotRegion) {
	sorted := make([]*SnapshotRegion, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BaseAddress() < sorted[j].BaseAddress()
	})
	for i := 1; i < len(sorted); i++ {
		invariant(sorted[i-1].EndAddress() <= sorted[i].BaseAddress(), "regions %s and %s overlap", sorted[i-1], sorted[i])
	}
	s.regions = sorted
	s.history = nil
}

// Regions returns the regions in address order. The slice is a copy; the
// regions are shared.
func (s *Snapshot) Regions() []*SnapshotRegion {
	result := make([]*SnapshotRegion, len(s.regions))
	copy(result, s.regions)
	return result
}

func (s *Snapshot) RegionCount() int {
	return len(s.regions)
}

// TotalSize is the number of bytes covered by all regions
func (s *Snapshot) TotalSize() uint64 {
	var total uint64
	for _, r := range s.regions {
		total += r.Size()
	}
	return total
}

// RegionForAddress finds the region containing address
func (s *Snapshot) RegionForAddress(address uint64) *SnapshotRegion {
	i := sort.Search(len(s.regions), func(i int) bool {
		return s.regions[i].EndAddress() > address
	})
	if i < len(s.regions) && s.regions[i].Contains(address) {
		return s.regions[i]
	}
	return nil
}

// HasScanResults reports whether a scan pass has produced filters. A
// snapshot without any is due a new scan.
func (s *Snapshot) HasScanResults() bool {
	return len(s.history) > 0
}

// ClearFilters drops every filter collection and the history, so the next
// pass starts a new scan over whole regions
func (s *Snapshot) ClearFilters() {
	for _, r := range s.regions {
		r.ClearCollections()
		r.ClearTombstones()
	}
	s.history = nil
}

// ResultCount is the number of elements matching the last scan, per data type
func (s *Snapshot) ResultCount() map[string]uint64 {
	counts := make(map[string]uint64)
	for _, r := range s.regions {
		for _, c := range r.Collections() {
			counts[c.DataTypeID] += c.ElementCount()
		}
	}
	return counts
}

// TotalResultCount is the number of elements matching the last scan across all data types
func (s *Snapshot) TotalResultCount() uint64 {
	var total uint64
	for _, r := range s.regions {
		total += r.ElementCount()
	}
	return total
}

// DiscardEmptyRegions shrinks each region to its filters and drops regions
// left without any. It returns the number of regions dropped.
func (s *Snapshot) DiscardEmptyRegions() int {
	kept := s.regions[:0]
	for _, r := range s.regions {
		if !r.HasFilters() {
			continue
		}
		r.ResizeToFilters()
		kept = append(kept, r)
	}
	dropped := len(s.regions) - len(kept)
	for i := len(kept); i < len(s.regions); i++ {
		s.regions[i] = nil
	}
	s.regions = kept
	if dropped > 0 {
		s.log.Debugln("Discarded", dropped, "regions without results")
	}
	return dropped
}
