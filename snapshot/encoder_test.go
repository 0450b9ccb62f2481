package snapshot

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
)

func TestRunLengthEncoder(t *testing.T) {
	Convey("Given an encoder at 0x1000", t, func() {
		e := NewRunLengthEncoder(0x1000)

		Convey("A passing run is emitted on finalize", func() {
			e.EncodeRange(4)
			e.EncodeRange(4)
			So(e.IsEncoding(), ShouldBeTrue)
			e.Finalize(4)
			So(e.IsEncoding(), ShouldBeFalse)
			So(e.Cursor(), ShouldEqual, uint64(0x100C))
			So(e.Filters(), ShouldResemble, []SnapshotRegionFilter{{BaseAddress: 0x1000, Size: 8}})
		})

		Convey("Failing elements only move the cursor", func() {
			e.Finalize(4)
			e.Finalize(4)
			e.Finalize(0)
			So(e.Filters(), ShouldBeEmpty)
			So(e.Cursor(), ShouldEqual, uint64(0x1008))
		})

		Convey("A trailing run is flushed by a zero step", func() {
			e.Finalize(2)
			e.EncodeRange(2)
			e.Finalize(0)
			So(e.Filters(), ShouldResemble, []SnapshotRegionFilter{{BaseAddress: 0x1002, Size: 2}})
		})
	})

	Convey("Given a padded encoder", t, func() {
		e := NewPaddedRunLengthEncoder(0, 3, 7)

		Convey("Filters cover the last element's bytes", func() {
			e.EncodeRange(1)
			e.EncodeRange(1)
			e.Finalize(1)
			So(e.Filters(), ShouldResemble, []SnapshotRegionFilter{{BaseAddress: 0, Size: 5}})
		})

		Convey("Filters never reach past the end limit", func() {
			e.Finalize(1)
			e.Finalize(1)
			e.Finalize(1)
			e.EncodeRange(1)
			e.EncodeRange(1)
			e.Finalize(0)
			So(e.Filters(), ShouldResemble, []SnapshotRegionFilter{{BaseAddress: 3, Size: 4}})
		})
	})
}

// encodeBools feeds a pass/fail sequence with the given stride
func encodeBools(base uint64, step uint64, seq []bool) []SnapshotRegionFilter {
	e := NewRunLengthEncoder(base)
	for _, pass := range seq {
		if pass {
			e.EncodeRange(step)
		} else {
			e.Finalize(step)
		}
	}
	e.Finalize(0)
	return e.Filters()
}

func TestRunLengthEncoderMinimal(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(200)
		step := uint64(1) << rng.Intn(4)
		seq := make([]bool, n)
		for i := range seq {
			seq[i] = rng.Intn(3) > 0
		}

		filters := encodeBools(0x4000, step, seq)

		covered := make([]bool, n)
		var prevEnd uint64
		for i, f := range filters {
			assert.NotZero(t, f.Size)
			assert.Zero(t, f.Size%step)
			if i > 0 {
				// maximal runs leave at least one failing element between filters
				assert.Greater(t, f.BaseAddress, prevEnd)
			}
			prevEnd = f.EndAddress()
			for a := f.BaseAddress; a < f.EndAddress(); a += step {
				covered[(a-0x4000)/step] = true
			}
		}
		assert.Equal(t, seq, covered)
	}
}
