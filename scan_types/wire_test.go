package scan_types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanParametersJSON(t *testing.T) {
	v := ParseAnonymousValue("0x2a")
	params := ScanParameters{
		CompareType: CompareShiftRightByX,
		Value:       &v,
		DataTypeIDs: []string{"u32", "f64be"},
		Alignment:   Alignment4,
		Tolerance:   ToleranceEpsilon,
		ReadMode:    ReadInterleavedWithScan,
	}

	data, err := json.Marshal(params)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"compare_type": "shift_right_by_x",
		"value": "0x2a",
		"data_types": ["u32", "f64be"],
		"alignment": 4,
		"tolerance": "epsilon",
		"read_mode": "read_interleaved_with_scan"
	}`, string(data))

	var decoded ScanParameters
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, params, decoded)
}

func TestMemoryAlignmentWire(t *testing.T) {
	var a MemoryAlignment
	require.NoError(t, json.Unmarshal([]byte(`"auto"`), &a))
	assert.Equal(t, AlignmentAuto, a)
	require.NoError(t, json.Unmarshal([]byte(`8`), &a))
	assert.Equal(t, Alignment8, a)
	assert.Error(t, json.Unmarshal([]byte(`3`), &a))

	data, err := json.Marshal(AlignmentAuto)
	require.NoError(t, err)
	assert.Equal(t, "0", string(data))

	assert.Equal(t, 1, AlignmentAuto.Bytes())
	assert.Equal(t, Alignment4, AlignmentAuto.Resolve(Alignment4))
	assert.Equal(t, Alignment2, Alignment2.Resolve(Alignment8))
}

func TestFloatingPointTolerance(t *testing.T) {
	var zero FloatingPointTolerance
	assert.Equal(t, "0.001", zero.String())
	assert.InDelta(t, 1e-3, zero.Float64(), 1e-12)

	for _, label := range []string{"0.1", "0.01", "0.001", "0.0001", "0.00001", "epsilon"} {
		tol, err := ParseFloatingPointTolerance(label)
		require.NoError(t, err)
		text, err := tol.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, label, string(text))
	}

	assert.Less(t, ToleranceEpsilon.Float64(), 1e-15)
	assert.Less(t, ToleranceEpsilon.Float32(), float32(1e-6))
	_, err := ParseFloatingPointTolerance("0.5")
	assert.Error(t, err)
}

func TestAnonymousValuePrefixes(t *testing.T) {
	assert.Equal(t, AnonymousValue{Text: "ff", Format: FormatHexadecimal}, ParseAnonymousValue("0xff"))
	assert.Equal(t, AnonymousValue{Text: "101", Format: FormatBinary}, ParseAnonymousValue(" 0B101 "))
	assert.Equal(t, AnonymousValue{Text: "-12.5", Format: FormatDecimal}, ParseAnonymousValue("-12.5"))
	assert.Equal(t, "0xff", ParseAnonymousValue("0xff").String())
}
