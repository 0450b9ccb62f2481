package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementCountMatchesEnumeration(t *testing.T) {
	for _, unit := range []int{1, 2, 4, 8, 3, 12} {
		for _, align := range []int{1, 2, 4, 8} {
			for size := uint64(0); size < 40; size++ {
				var want uint64
				if size >= uint64(unit) {
					for o := uint64(0); o <= size-uint64(unit); o++ {
						if o%uint64(align) == 0 {
							want++
						}
					}
				}
				assert.Equal(t, want, ElementCount(size, unit, align), "size=%d unit=%d align=%d", size, unit, align)
			}
		}
	}
}

func TestElementCountSingleUnit(t *testing.T) {
	f := NewFilter(0x1000, 4)
	assert.Equal(t, uint64(1), f.ElementCount(4, 1))

	f = NewFilter(0x1000, 3)
	assert.Equal(t, uint64(0), f.ElementCount(4, 1))
}

func TestElementCountRejectsMisalignedFilter(t *testing.T) {
	assert.Panics(t, func() {
		NewFilter(0x1002, 16).ElementCount(4, 4)
	})
}

func TestFilterCollection(t *testing.T) {
	c := FilterCollection{
		DataTypeID: "u32",
		Alignment:  4,
		UnitSize:   4,
		Filters:    []SnapshotRegionFilter{NewFilter(0x1010, 8), NewFilter(0x1000, 4)},
	}
	c.SortFilters()
	assert.Equal(t, uint64(0x1000), c.Filters[0].BaseAddress)
	assert.Equal(t, uint64(3), c.ElementCount())

	lo, hi, ok := c.Bounds()
	assert.True(t, ok)
	assert.Equal(t, uint64(0x1000), lo)
	assert.Equal(t, uint64(0x1018), hi)

	addr, ok := c.Element(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x1014), addr)

	_, ok = c.Element(3)
	assert.False(t, ok)
}
