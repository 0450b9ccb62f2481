package datatypes

import (
	"encoding/json"
	"errors"
	"testing"

	"memscan/scan_types"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	Convey("Given a registry with the built-in types", t, func() {
		reg := NewRegistry()

		Convey("every primitive is present in both byte orders", func() {
			for _, id := range []string{"u8", "i8", "u16", "u16be", "i32be", "u64", "i64be", "f32", "f64be", StringUTF8ID} {
				dt, err := reg.Get(id)
				So(err, ShouldBeNil)
				So(dt.ID(), ShouldEqual, id)
			}
			So(len(reg.IDs()), ShouldEqual, 19)
		})

		Convey("attributes follow the type", func() {
			So(reg.MustGet("i16be").Endian(), ShouldEqual, BigEndian)
			So(reg.MustGet("i16be").UnitSize(), ShouldEqual, 2)
			So(reg.MustGet("u64").IsSigned(), ShouldBeFalse)
			So(reg.MustGet("f32").IsFloatingPoint(), ShouldBeTrue)
			So(reg.MustGet("f32").DefaultAlignment(), ShouldEqual, scan_types.Alignment4)
			So(reg.MustGet(StringUTF8ID).UnitSize(), ShouldEqual, 0)
			So(reg.MustGet(StringUTF8ID).DefaultAlignment(), ShouldEqual, scan_types.Alignment1)
		})

		Convey("unknown ids are reported", func() {
			_, err := reg.Get("u128")
			So(errors.Is(err, ErrUnknownDataType), ShouldBeTrue)
			So(func() { reg.MustGet("u128") }, ShouldPanic)
		})

		Convey("registering a duplicate id fails", func() {
			err := reg.Register(reg.MustGet("u32"))
			So(errors.Is(err, ErrDuplicateDataType), ShouldBeTrue)
		})

		Convey("plugin types can be added", func() {
			plugin := newIntegerType("u32_plugin", false, u32Codec(LittleEndian), LittleEndian)
			So(reg.Register(plugin), ShouldBeNil)
			So(reg.IDs()[len(reg.IDs())-1], ShouldEqual, "u32_plugin")
		})
	})
}

func TestParseFormat(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		typeID  string
		input   string
		bytes   []byte
		format  scan_types.DisplayFormat
		display string
	}{
		{"i16", "-2", []byte{0xFE, 0xFF}, scan_types.FormatDecimal, "-2"},
		{"u16be", "0xFFFE", []byte{0xFF, 0xFE}, scan_types.FormatDecimal, "65534"},
		{"u32", "0x2A", []byte{0x2A, 0, 0, 0}, scan_types.FormatHexadecimal, "0000002A"},
		{"u8", "0b101", []byte{5}, scan_types.FormatBinary, "00000101"},
		{"i64be", "-1", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, scan_types.FormatDecimal, "-1"},
		{"f32", "1.5", []byte{0, 0, 0xC0, 0x3F}, scan_types.FormatDecimal, "1.5"},
		{"f32be", "1.5", []byte{0x3F, 0xC0, 0, 0}, scan_types.FormatHexadecimal, "3FC00000"},
		{"f64", "0x3FF0000000000000", []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}, scan_types.FormatDecimal, "1"},
		{StringUTF8ID, "héllo", []byte("héllo"), scan_types.FormatDecimal, "héllo"},
		{StringUTF8ID, "0x6869", []byte("hi"), scan_types.FormatHexadecimal, "6869"},
		{StringUTF8ID, "0b0110100001101001", []byte("hi"), scan_types.FormatDecimal, "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.typeID+" "+tt.input, func(t *testing.T) {
			dt := reg.MustGet(tt.typeID)
			v, err := dt.Parse(scan_types.ParseAnonymousValue(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.typeID, v.DataTypeID)
			assert.Equal(t, tt.bytes, v.Bytes)

			out, err := dt.Format(v.Bytes, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.display, out)
		})
	}
}

func TestParseRejects(t *testing.T) {
	reg := NewRegistry()

	for _, tt := range []struct{ typeID, input string }{
		{"u8", "256"},
		{"u8", "-1"},
		{"i8", "128"},
		{"u16", "0x10000"},
		{"i32", "abc"},
		{"f32", "one"},
		{StringUTF8ID, "0xABC"},
		{StringUTF8ID, "0b101"},
		{StringUTF8ID, ""},
	} {
		_, err := reg.MustGet(tt.typeID).Parse(scan_types.ParseAnonymousValue(tt.input))
		assert.ErrorIs(t, err, ErrInvalidValue, "%s %q", tt.typeID, tt.input)
	}

	_, err := reg.MustGet("u32").Format([]byte{1, 2}, scan_types.FormatDecimal)
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = reg.MustGet(StringUTF8ID).Format([]byte{0xFF, 0xFE}, scan_types.FormatDecimal)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestDataValueWire(t *testing.T) {
	v := NewDataValue("i32", []byte{0x2A, 0, 0, 0})

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data_type":"i32","bytes":"2a000000"}`, string(data))

	var decoded DataValue
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, v.Equal(decoded))

	text, err := v.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "i32:2a000000", string(text))

	var fromText DataValue
	require.NoError(t, fromText.UnmarshalText(text))
	assert.True(t, v.Equal(fromText))

	assert.Error(t, fromText.UnmarshalText([]byte("2a000000")))
	assert.Error(t, json.Unmarshal([]byte(`{"bytes":"00"}`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`{"data_type":"u8","bytes":"zz"}`), &decoded))

	assert.False(t, v.IsZero())
	assert.True(t, NewDataValue("u16", []byte{0, 0}).IsZero())

	clone := v.Clone()
	clone.Bytes[0] = 0
	assert.Equal(t, byte(0x2A), v.Bytes[0])
}

func TestUnitSizeFor(t *testing.T) {
	reg := NewRegistry()
	op := NewDataValue(StringUTF8ID, []byte("abcd"))
	assert.Equal(t, 8, UnitSizeFor(reg.MustGet("f64"), nil))
	assert.Equal(t, 4, UnitSizeFor(reg.MustGet(StringUTF8ID), &op))
	assert.Equal(t, 0, UnitSizeFor(reg.MustGet(StringUTF8ID), nil))
}
