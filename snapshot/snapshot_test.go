package snapshot

import (
	"testing"
	"time"

	"memscan/scan_types"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSnapshotLifecycle(t *testing.T) {
	Convey("Given a snapshot over three regions", t, func() {
		a := NewSnapshotRegionWithValues(0x3000, make([]byte, 0x100))
		b := NewSnapshotRegionWithValues(0x1000, make([]byte, 0x100))
		c := NewSnapshotRegionWithValues(0x2000, make([]byte, 0x100))
		snap := NewSnapshot([]*SnapshotRegion{a, b, c})

		Convey("Regions are kept in address order", func() {
			regions := snap.Regions()
			So(regions[0], ShouldEqual, b)
			So(regions[1], ShouldEqual, c)
			So(regions[2], ShouldEqual, a)
			So(snap.TotalSize(), ShouldEqual, uint64(0x300))
			So(snap.RegionForAddress(0x20FF), ShouldEqual, c)
			So(snap.RegionForAddress(0x2100), ShouldBeNil)
		})

		Convey("Overlapping regions are rejected", func() {
			So(func() {
				NewSnapshot([]*SnapshotRegion{a, NewSnapshotRegion(0x30F0, 0x20, nil)})
			}, ShouldPanic)
		})

		Convey("Discarding empty regions keeps only regions with results", func() {
			c.SetCollection(FilterCollection{DataTypeID: "u32", Alignment: 4, UnitSize: 4,
				Filters: []SnapshotRegionFilter{NewFilter(0x2010, 8)}})
			b.SetCollection(FilterCollection{DataTypeID: "u32", Alignment: 4, UnitSize: 4})

			So(snap.DiscardEmptyRegions(), ShouldEqual, 2)
			So(snap.RegionCount(), ShouldEqual, 1)
			So(c.BaseAddress(), ShouldEqual, uint64(0x2010))
			So(c.Size(), ShouldEqual, uint64(8))
			So(snap.TotalResultCount(), ShouldEqual, uint64(2))
			So(snap.ResultCount()["u32"], ShouldEqual, uint64(2))
		})

		Convey("Recorded passes form an ordered history", func() {
			So(snap.HasScanResults(), ShouldBeFalse)
			params := scan_types.NewScanParameters(scan_types.ScanConstraint{CompareType: scan_types.CompareChanged}, "u8")

			first := ScanPass{ID: snap.NewPassID(), Parameters: params, ResultCount: 10, Duration: time.Millisecond}
			snap.RecordPass(first)
			time.Sleep(2 * time.Millisecond)
			second := ScanPass{ID: snap.NewPassID(), Parameters: params, ResultCount: 3}
			snap.RecordPass(second)

			history := snap.History()
			So(history, ShouldHaveLength, 2)
			So(history[0].ID.Compare(history[1].ID), ShouldBeLessThan, 0)
			So(snap.HasScanResults(), ShouldBeTrue)

			snap.ClearFilters()
			So(snap.HasScanResults(), ShouldBeFalse)
		})
	})
}
