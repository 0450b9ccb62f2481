package snapshot

import (
	"bytes"
	"errors"
	"testing"

	"memscan/process"
	"memscan/process/memory_map"
	"memscan/process_blob"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAllMemory(t *testing.T) {
	Convey("Given a region merged from two mappings", t, func() {
		dump := process_blob.NewProcessDump()
		So(dump.AddRegion(0x1000, bytes.Repeat([]byte{1}, 0x1000), "rw-p", ""), ShouldBeNil)
		So(dump.AddRegion(0x2000, bytes.Repeat([]byte{2}, 0x1000), "rw-p", ""), ShouldBeNil)
		region := NewSnapshotRegion(0x1000, 0x2000, []uint64{0x2000})

		Convey("The first read fills both buffers", func() {
			So(region.ReadAllMemory(dump), ShouldBeNil)
			So(region.HasCurrentValues(), ShouldBeTrue)
			So(region.HasPreviousValues(), ShouldBeTrue)
			So(region.CurrentValues()[0xFFF], ShouldEqual, 1)
			So(region.CurrentValues()[0x1000], ShouldEqual, 2)
			So(region.PreviousValues(), ShouldResemble, region.CurrentValues())
		})

		Convey("A second read moves current values to previous", func() {
			So(region.ReadAllMemory(dump), ShouldBeNil)
			So(dump.WriteMemory(0x1010, []byte{9}), ShouldBeNil)
			So(region.ReadAllMemory(dump), ShouldBeNil)
			So(region.CurrentValues()[0x10], ShouldEqual, 9)
			So(region.PreviousValues()[0x10], ShouldEqual, 1)
		})

		Convey("A freed mapping keeps its old values and is tombstoned", func() {
			So(region.ReadAllMemory(dump), ShouldBeNil)
			dump.RemoveRegion(0x2000)
			So(dump.WriteMemory(0x1000, []byte{7}), ShouldBeNil)

			err := region.ReadAllMemory(dump)
			So(errors.Is(err, ErrReadFailed), ShouldBeTrue)
			So(errors.Is(err, process.ErrAddressNotMapped), ShouldBeTrue)

			var readErr *RegionReadError
			So(errors.As(err, &readErr), ShouldBeTrue)
			So(readErr.Total, ShouldBeFalse)
			So(readErr.Failed, ShouldResemble, []Tombstone{{Address: 0x2000, Size: 0x1000}})

			So(region.CurrentValues()[0], ShouldEqual, 7)
			So(region.CurrentValues()[0x1000], ShouldEqual, 2)
			So(region.Tombstones(), ShouldHaveLength, 1)
		})

		Convey("A region that cannot be read at all is left as it was", func() {
			So(region.ReadAllMemory(dump), ShouldBeNil)
			before := append([]byte(nil), region.CurrentValues()...)
			dump.RemoveRegion(0x1000)
			dump.RemoveRegion(0x2000)

			err := region.ReadAllMemory(dump)
			var readErr *RegionReadError
			So(errors.As(err, &readErr), ShouldBeTrue)
			So(readErr.Total, ShouldBeTrue)
			So(region.CurrentValues(), ShouldResemble, before)
		})

		Convey("Chunked reads see the same bytes", func() {
			So(region.ReadAllMemoryChunked(dump, 0x300), ShouldBeNil)
			So(region.CurrentValues()[0xFFF], ShouldEqual, 1)
			So(region.CurrentValues()[0x1FFF], ShouldEqual, 2)
		})
	})
}

func TestFirstReadFailureLeavesRegionEmpty(t *testing.T) {
	dump := process_blob.NewProcessDump()
	region := NewSnapshotRegion(0x1000, 0x100, nil)

	err := region.ReadAllMemory(dump)
	require.Error(t, err)
	assert.False(t, region.HasCurrentValues())
	assert.False(t, region.HasPreviousValues())
}

func TestSegments(t *testing.T) {
	region := NewSnapshotRegion(0x1000, 0x3000, []uint64{0x2000, 0x5000, 0x800})
	assert.Equal(t, []uint64{0x2000}, region.PageBoundaries())

	segs := region.segments(0)
	assert.Len(t, segs, 2)
	assert.Equal(t, segment{address: 0x2000, lo: 0x1000, hi: 0x3000}, segs[1])

	assert.Len(t, region.segments(0x800), 6)
}

func TestWholeRegionFilter(t *testing.T) {
	region := NewSnapshotRegion(0x1003, 0x11, nil)

	f, ok := region.WholeRegionFilter(4, 4)
	require.True(t, ok)
	assert.Equal(t, NewFilter(0x1004, 0x10), f)

	_, ok = region.WholeRegionFilter(32, 1)
	assert.False(t, ok)
}

func TestResizeToFilters(t *testing.T) {
	values := make([]byte, 0x100)
	for i := range values {
		values[i] = byte(i)
	}
	region := NewSnapshotRegionWithValues(0x1000, values)
	region.pageBoundaries = []uint64{0x1010, 0x1080}
	region.SetCollection(FilterCollection{DataTypeID: "u8", Alignment: 1, UnitSize: 1,
		Filters: []SnapshotRegionFilter{NewFilter(0x1040, 4)}})
	region.SetCollection(FilterCollection{DataTypeID: "u16", Alignment: 2, UnitSize: 2,
		Filters: []SnapshotRegionFilter{NewFilter(0x1090, 2)}})

	region.ResizeToFilters()

	assert.Equal(t, uint64(0x1040), region.BaseAddress())
	assert.Equal(t, uint64(0x52), region.Size())
	assert.Equal(t, byte(0x40), region.CurrentValues()[0])
	assert.Len(t, region.PreviousValues(), 0x52)
	assert.Equal(t, []uint64{0x1080}, region.PageBoundaries())
}

func TestChunk(t *testing.T) {
	region := NewSnapshotRegion(0x10000, 0x5000, []uint64{0x11000, 0x13000})

	chunks := region.Chunk(0x2800)
	require.Len(t, chunks, 3)
	assert.Equal(t, uint64(0x10000), chunks[0].BaseAddress())
	assert.Equal(t, uint64(0x1000), chunks[0].Size())
	assert.Equal(t, uint64(0x11000), chunks[1].BaseAddress())
	assert.Equal(t, uint64(0x2000), chunks[1].Size())
	assert.Equal(t, uint64(0x13000), chunks[2].BaseAddress())
	assert.Equal(t, uint64(0x15000), chunks[2].EndAddress())

	// no boundaries: cuts land on 8 byte aligned addresses
	plain := NewSnapshotRegion(0x20000, 100, nil)
	chunks = plain.Chunk(30)
	require.Len(t, chunks, 4)
	assert.Equal(t, []uint64{24, 24, 24, 28}, []uint64{chunks[0].Size(), chunks[1].Size(), chunks[2].Size(), chunks[3].Size()})
	var total uint64
	for i, c := range chunks {
		if i > 0 {
			assert.Equal(t, chunks[i-1].EndAddress(), c.BaseAddress())
			assert.Zero(t, c.BaseAddress()%8)
		}
		assert.LessOrEqual(t, c.Size(), uint64(30))
		total += c.Size()
	}
	assert.Equal(t, uint64(100), total)
}

func TestBuildRegions(t *testing.T) {
	mm := []memory_map.MemoryMapItem{
		{Address: 0x1000, Size: 0x1000, Perms: "r--p"},
		{Address: 0x2000, Size: 0x1000, Perms: "rw-p"},
		{Address: 0x3000, Size: 0x1000, Perms: "---p"},
		{Address: 0x4000, Size: 0x1000, Perms: "rw-p"},
		{Address: 0x5000, Size: 0x1000, Perms: "rw-s"},
	}

	regions := BuildRegions(mm, memory_map.DefaultQueryOptions(), 0)
	require.Len(t, regions, 2)
	assert.Equal(t, uint64(0x1000), regions[0].BaseAddress())
	assert.Equal(t, uint64(0x2000), regions[0].Size())
	assert.Equal(t, []uint64{0x2000}, regions[0].PageBoundaries())
	assert.Equal(t, uint64(0x4000), regions[1].BaseAddress())
	assert.Equal(t, uint64(0x2000), regions[1].Size())

	opts := memory_map.DefaultQueryOptions()
	opts.RequiredProtection = "rw"
	opts.IncludeShared = false
	regions = BuildRegions(mm, opts, 0)
	require.Len(t, regions, 2)
	assert.Equal(t, uint64(0x2000), regions[0].BaseAddress())
	assert.Equal(t, uint64(0x4000), regions[1].BaseAddress())
	assert.Equal(t, uint64(0x1000), regions[1].Size())

	regions = BuildRegions(mm, memory_map.DefaultQueryOptions(), 0x1000)
	assert.Len(t, regions, 4)
}
