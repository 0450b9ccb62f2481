package datatypes

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"memscan/scan_types"
)

const StringUTF8ID = "string_utf8"

// stringUTF8 matches a byte sequence; its element size is the length of the operand
type stringUTF8 struct{}

func (stringUTF8) ID() string                                  { return StringUTF8ID }
func (stringUTF8) UnitSize() int                               { return 0 }
func (stringUTF8) Endian() Endian                              { return LittleEndian }
func (stringUTF8) IsFloatingPoint() bool                       { return false }
func (stringUTF8) IsSigned() bool                              { return false }
func (stringUTF8) DefaultAlignment() scan_types.MemoryAlignment { return scan_types.Alignment1 }
func (stringUTF8) DefaultValue() DataValue                     { return DataValue{DataTypeID: StringUTF8ID} }

// Parse takes decimal-format text literally. Hex and binary forms give raw bytes.
func (s stringUTF8) Parse(value scan_types.AnonymousValue) (DataValue, error) {
	var raw []byte
	switch value.Format {
	case scan_types.FormatHexadecimal:
		clean := strings.NewReplacer(" ", "", "_", "").Replace(value.Text)
		b, err := hex.DecodeString(clean)
		if err != nil {
			return DataValue{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, value.String(), StringUTF8ID, err)
		}
		raw = b
	case scan_types.FormatBinary:
		clean := strings.NewReplacer(" ", "", "_", "").Replace(value.Text)
		if len(clean)%8 != 0 {
			return DataValue{}, fmt.Errorf("%w: %q as %s: bit count is not a multiple of 8", ErrInvalidValue, value.String(), StringUTF8ID)
		}
		for i := 0; i < len(clean); i += 8 {
			n, err := strconv.ParseUint(clean[i:i+8], 2, 8)
			if err != nil {
				return DataValue{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, value.String(), StringUTF8ID, err)
			}
			raw = append(raw, byte(n))
		}
	default:
		raw = []byte(value.Text)
	}
	if len(raw) == 0 {
		return DataValue{}, fmt.Errorf("%w: empty %s value", ErrInvalidValue, StringUTF8ID)
	}
	return DataValue{DataTypeID: StringUTF8ID, Bytes: raw}, nil
}

func (s stringUTF8) Format(b []byte, format scan_types.DisplayFormat) (string, error) {
	if len(b) == 0 {
		return "", fmt.Errorf("%w: no bytes", ErrInvalidValue)
	}
	switch format {
	case scan_types.FormatHexadecimal:
		return strings.ToUpper(hex.EncodeToString(b)), nil
	case scan_types.FormatBinary:
		parts := make([]string, len(b))
		for i, c := range b {
			parts[i] = fmt.Sprintf("%08b", c)
		}
		return strings.Join(parts, ""), nil
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: bytes are not valid utf-8", ErrInvalidValue)
	}
	return string(b), nil
}

func (s stringUTF8) ScalarCompare(c Comparison) (ScalarCompareFn, error) {
	switch c.CompareType {
	case scan_types.CompareEqual, scan_types.CompareNotEqual:
	default:
		return nil, unsupported(StringUTF8ID, c.CompareType, "strings only compare for equality")
	}
	if c.Operand == nil || len(c.Operand.Bytes) == 0 {
		return nil, unsupported(StringUTF8ID, c.CompareType, "missing operand")
	}
	want := c.Operand.Bytes
	n := len(want)
	if c.CompareType == scan_types.CompareNotEqual {
		return func(cur, _ []byte, off int) bool { return !bytes.Equal(cur[off:off+n], want) }, nil
	}
	return func(cur, _ []byte, off int) bool { return bytes.Equal(cur[off:off+n], want) }, nil
}

func (s stringUTF8) VectorCompare(c Comparison, laneWidth, alignment int) (VectorCompareFn, error) {
	if err := checkLaneWidth(laneWidth, alignment); err != nil {
		return nil, err
	}
	scalar, err := s.ScalarCompare(c)
	if err != nil {
		return nil, err
	}
	return laneKernel(scalar, laneWidth, alignment), nil
}
