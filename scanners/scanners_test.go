package scanners

import (
	"errors"
	"math/rand"
	"testing"

	"memscan/datatypes"
	"memscan/scan_types"
	"memscan/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(ct scan_types.ScanCompareType, value string, alignment scan_types.MemoryAlignment, types ...string) scan_types.ScanParameters {
	c := scan_types.ScanConstraint{CompareType: ct}
	if value != "" {
		v := scan_types.ParseAnonymousValue(value)
		c.Value = &v
	}
	p := scan_types.NewScanParameters(c, types...)
	p.Alignment = alignment
	return p
}

func compilePlan(t *testing.T, p scan_types.ScanParameters) *ScanPlan {
	t.Helper()
	plans, err := Compile(p, datatypes.NewRegistry())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	return plans[0]
}

// regionWithFilter builds a region over current/previous whose only
// collection is a new-scan filter for plan
func regionWithFilter(t *testing.T, base uint64, current, previous []byte, plan *ScanPlan) *snapshot.SnapshotRegion {
	t.Helper()
	region := snapshot.NewSnapshotRegion(base, uint64(len(current)), nil)
	region.SetValues(current, previous)
	var filters []snapshot.SnapshotRegionFilter
	if f, ok := region.WholeRegionFilter(plan.UnitSize, plan.Alignment); ok {
		filters = append(filters, f)
	}
	region.SetCollection(plan.NewFilterCollection(filters))
	return region
}

func TestScanNonZeroU32(t *testing.T) {
	plan := compilePlan(t, params(scan_types.CompareNotEqual, "0", scan_types.Alignment4, "u32"))
	data := []byte{0, 0, 0, 0, 5, 0, 0, 0, 0, 0, 0, 0, 7, 0, 0, 0}
	region := regionWithFilter(t, 0x1000, data, nil, plan)
	filter := region.Collection("u32").Filters[0]

	want := []snapshot.SnapshotRegionFilter{
		snapshot.NewFilter(0x1004, 4),
		snapshot.NewFilter(0x100C, 4),
	}
	assert.Equal(t, want, ScalarScanner{}.ScanFilter(region, filter, plan))
	assert.Equal(t, want, VectorScanner{LaneWidth: 16}.ScanFilter(region, filter, plan))

	d := NewDispatcher(DispatcherOptions{Vector: true, LaneWidth: 16, Workers: 2, ValidationScan: true})
	assert.Equal(t, want, d.ScanRegion(region, plan))
	assert.Zero(t, d.Mismatches())
}

func TestCompileRejectsBadParameters(t *testing.T) {
	reg := datatypes.NewRegistry()

	tests := []struct {
		name   string
		params scan_types.ScanParameters
		cause  error
	}{
		{"missing value", params(scan_types.CompareEqual, "", scan_types.AlignmentAuto, "u32"), scan_types.ErrInvalidConstraint},
		{"unknown type", params(scan_types.CompareEqual, "1", scan_types.AlignmentAuto, "u128"), datatypes.ErrUnknownDataType},
		{"bad value", params(scan_types.CompareEqual, "banana", scan_types.AlignmentAuto, "i32"), nil},
		{"unsupported compare", params(scan_types.CompareLogicalAndByX, "1", scan_types.AlignmentAuto, "f32"), datatypes.ErrUnsupportedCompare},
		{"no data types", params(scan_types.CompareChanged, "", scan_types.AlignmentAuto), nil},
		{"bad alignment", params(scan_types.CompareChanged, "", scan_types.MemoryAlignment(3), "u8"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.params, reg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidParameters)
			var perr *ParameterError
			assert.True(t, errors.As(err, &perr))
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
		})
	}
}

func TestCompileResolvesAlignment(t *testing.T) {
	plans, err := Compile(params(scan_types.CompareEqual, "1", scan_types.AlignmentAuto, "u8", "u32", "f64", "u32"), datatypes.NewRegistry())
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, 1, plans[0].Alignment)
	assert.Equal(t, 4, plans[1].Alignment)
	assert.Equal(t, 8, plans[2].Alignment)

	plan := compilePlan(t, params(scan_types.CompareEqual, "hi", scan_types.AlignmentAuto, datatypes.StringUTF8ID))
	assert.Equal(t, 2, plan.UnitSize)
	assert.Equal(t, uint64(1), plan.Padding())
}

func TestOptimizeUnsignedGreaterThanZero(t *testing.T) {
	reg := datatypes.NewRegistry()
	for _, id := range []string{"u8", "u16", "u32", "u64", "u32be"} {
		plan := compilePlan(t, params(scan_types.CompareGreaterThan, "0", scan_types.AlignmentAuto, id))
		assert.True(t, plan.Optimized(), id)
		assert.Equal(t, scan_types.CompareNotEqual, plan.Comparison.CompareType)
	}
	for _, tc := range []struct{ id, value string }{{"i32", "0"}, {"f32", "0"}, {"u32", "1"}} {
		plan := compilePlan(t, params(scan_types.CompareGreaterThan, tc.value, scan_types.AlignmentAuto, tc.id))
		assert.False(t, plan.Optimized(), tc.id)
	}

	// the rewritten comparator agrees with the requested one on every input
	rng := rand.New(rand.NewSource(3))
	for _, id := range []string{"u8", "u16", "u32", "u64", "u16be"} {
		dt := reg.MustGet(id)
		plan := compilePlan(t, params(scan_types.CompareGreaterThan, "0", scan_types.AlignmentAuto, id))
		original, err := dt.ScalarCompare(plan.Requested)
		require.NoError(t, err)

		data := randomBytes(rng, 512)
		for off := 0; off+plan.UnitSize <= len(data); off++ {
			assert.Equal(t, original(data, nil, off), plan.Scalar(data, nil, off), "%s at %d", id, off)
		}
	}
}

// randomBytes favours a few values so runs of passing elements form
func randomBytes(rng *rand.Rand, n int) []byte {
	choices := []byte{0, 0, 0, 0, 1, 3, 0x80, 0xFF}
	b := make([]byte, n)
	for i := range b {
		if rng.Intn(4) == 0 {
			b[i] = byte(rng.Intn(256))
		} else {
			b[i] = choices[rng.Intn(len(choices))]
		}
	}
	return b
}

func mutate(rng *rand.Rand, b []byte) []byte {
	out := append([]byte(nil), b...)
	for i := range out {
		if rng.Intn(6) == 0 {
			out[i] += byte(rng.Intn(5))
		}
	}
	return out
}

func TestScannersAgree(t *testing.T) {
	reg := datatypes.NewRegistry()
	rng := rand.New(rand.NewSource(11))
	alignments := []scan_types.MemoryAlignment{scan_types.Alignment1, scan_types.Alignment2, scan_types.Alignment4, scan_types.Alignment8}

	for _, id := range reg.IDs() {
		for _, ct := range scan_types.AllCompareTypes() {
			for _, align := range alignments {
				for _, value := range []string{"0", "1", "3"} {
					v := value
					if !ct.RequiresOperand() {
						v = ""
					}
					plans, err := Compile(params(ct, v, align, id), reg)
					if err != nil {
						continue
					}
					plan := plans[0]

					// odd base and size exercise the scalar head and tail
					size := 300 + rng.Intn(200)
					previous := randomBytes(rng, size)
					current := mutate(rng, previous)
					base := uint64(0x10000 + align.Bytes()*(1+rng.Intn(7)))
					region := regionWithFilter(t, base, current, previous, plan)
					input := region.Collection(id).Filters
					if len(input) == 0 {
						continue
					}

					want := ScalarScanner{}.ScanFilter(region, input[0], plan)
					for _, lane := range LaneWidths {
						got := VectorScanner{LaneWidth: lane}.ScanFilter(region, input[0], plan)
						require.Equal(t, want, got, "%s %s align=%d lane=%d", id, ct.Name(), align, lane)
					}

					d := NewDispatcher(DispatcherOptions{Vector: true, LaneWidth: 32, PartitionSize: 64, Workers: 4, ValidationScan: true})
					require.Equal(t, want, d.ScanRegion(region, plan), "%s %s align=%d partitioned", id, ct.Name(), align)
					require.Zero(t, d.Mismatches())

					if !ct.RequiresOperand() {
						break
					}
				}
			}
		}
	}
}

func TestUnchangedValuesAreIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	current := randomBytes(rng, 1024)
	previous := append([]byte(nil), current...)

	for _, id := range []string{"u8", "i16", "u32", "f32", "f64", "u64be"} {
		changed := compilePlan(t, params(scan_types.CompareChanged, "", scan_types.AlignmentAuto, id))
		region := regionWithFilter(t, 0x4000, current, previous, changed)
		d := NewDispatcher(DefaultDispatcherOptions())
		assert.Empty(t, d.ScanRegion(region, changed), id)

		unchanged := compilePlan(t, params(scan_types.CompareUnchanged, "", scan_types.AlignmentAuto, id))
		region = regionWithFilter(t, 0x4000, current, previous, unchanged)
		input := region.Collection(id).Filters
		assert.Equal(t, input, d.ScanRegion(region, unchanged), id)
	}
}

func TestScanRegionWithoutPreviousValues(t *testing.T) {
	plan := compilePlan(t, params(scan_types.CompareIncreased, "", scan_types.AlignmentAuto, "u8"))
	region := regionWithFilter(t, 0x1000, make([]byte, 64), nil, plan)
	assert.Nil(t, NewDispatcher(DefaultDispatcherOptions()).ScanRegion(region, plan))
}

func TestPartitionAndCoalesce(t *testing.T) {
	f := snapshot.NewFilter(0x1000, 1000)

	parts := Partition(f, 4, 4, 256)
	require.Len(t, parts, 4)
	var elements uint64
	for i, p := range parts {
		elements += p.ElementCount(4, 4)
		if i > 0 {
			assert.Equal(t, parts[i-1].BaseAddress+256, p.BaseAddress)
		}
	}
	assert.Equal(t, f.ElementCount(4, 4), elements)
	assert.Equal(t, f.EndAddress(), parts[3].EndAddress())

	assert.Equal(t, []snapshot.SnapshotRegionFilter{f}, Coalesce(parts, 4, 4))

	// stride wider than the element
	parts = Partition(f, 1, 8, 128)
	assert.Equal(t, []snapshot.SnapshotRegionFilter{f}, Coalesce(parts, 1, 8))

	// a gap of one element keeps filters apart
	apart := []snapshot.SnapshotRegionFilter{snapshot.NewFilter(0x1000, 8), snapshot.NewFilter(0x100C, 4)}
	assert.Equal(t, apart, Coalesce(apart, 4, 4))

	assert.Equal(t, []snapshot.SnapshotRegionFilter{f}, Partition(f, 4, 4, 0))
}

func TestScannerPolicy(t *testing.T) {
	plan := compilePlan(t, params(scan_types.CompareEqual, "1", scan_types.AlignmentAuto, "u32"))
	d := NewDispatcher(DispatcherOptions{Vector: true, LaneWidth: 32, Workers: 1})

	assert.Equal(t, "vector256", d.ScannerFor(snapshot.NewFilter(0, 64), plan).Name())
	assert.Equal(t, "scalar", d.ScannerFor(snapshot.NewFilter(0, 16), plan).Name())

	single := NewDispatcher(DispatcherOptions{Vector: true, LaneWidth: 32, SingleThreaded: true})
	assert.Equal(t, "scalar", single.ScannerFor(snapshot.NewFilter(0, 64), plan).Name())

	assert.Contains(t, []int{16, 32, 64}, DetectLaneWidth())
}
