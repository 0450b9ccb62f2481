package snapshot

import "sort"

// FilterCollection holds the filters of one data type inside one region
type FilterCollection struct {
	DataTypeID string                 `json:"data_type"`
	Alignment  int                    `json:"alignment"`
	UnitSize   int                    `json:"unit_size"`
	Filters    []SnapshotRegionFilter `json:"filters"`
}

// ElementCount is the number of scan results the collection represents
func (c *FilterCollection) ElementCount() uint64 {
	var total uint64
	for _, f := range c.Filters {
		total += ElementCount(f.Size, c.UnitSize, c.Alignment)
	}
	return total
}

// Bounds returns the smallest range covering every filter
func (c *FilterCollection) Bounds() (lo, hi uint64, ok bool) {
	if len(c.Filters) == 0 {
		return 0, 0, false
	}
	lo, hi = c.Filters[0].BaseAddress, c.Filters[0].EndAddress()
	for _, f := range c.Filters[1:] {
		if f.BaseAddress < lo {
			lo = f.BaseAddress
		}
		if f.EndAddress() > hi {
			hi = f.EndAddress()
		}
	}
	return lo, hi, true
}

// Element locates the index-th element of the collection. Filters are
// walked in address order.
func (c *FilterCollection) Element(index uint64) (address uint64, ok bool) {
	for _, f := range c.Filters {
		n := ElementCount(f.Size, c.UnitSize, c.Alignment)
		if index < n {
			return f.ElementAddress(index, c.Alignment), true
		}
		index -= n
	}
	return 0, false
}

// SortFilters orders the filters by address
func (c *FilterCollection) SortFilters() {
	sort.Slice(c.Filters, func(i, j int) bool {
		return c.Filters[i].BaseAddress < c.Filters[j].BaseAddress
	})
}
