package datatypes

import (
	"fmt"
	"strconv"
	"strings"

	"memscan/scan_types"
)

type primitiveInfo struct {
	id     string
	size   int
	endian Endian
	signed bool
}

func (p primitiveInfo) ID() string     { return p.id }
func (p primitiveInfo) UnitSize() int  { return p.size }
func (p primitiveInfo) Endian() Endian { return p.endian }
func (p primitiveInfo) IsSigned() bool { return p.signed }
func (p primitiveInfo) DefaultValue() DataValue {
	return DataValue{DataTypeID: p.id, Bytes: make([]byte, p.size)}
}

func (p primitiveInfo) DefaultAlignment() scan_types.MemoryAlignment {
	return scan_types.MemoryAlignment(p.size)
}

func (p primitiveInfo) checkBytes(b []byte) error {
	if len(b) < p.size {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInvalidValue, p.id, p.size, len(b))
	}
	return nil
}

func (p primitiveInfo) operand(c Comparison) ([]byte, error) {
	if c.Operand == nil {
		return nil, unsupported(p.id, c.CompareType, "missing operand")
	}
	if len(c.Operand.Bytes) != p.size {
		return nil, unsupported(p.id, c.CompareType, fmt.Sprintf("operand is %d bytes, want %d", len(c.Operand.Bytes), p.size))
	}
	return c.Operand.Bytes, nil
}

func parseBits(text string, format scan_types.DisplayFormat, bits int) (uint64, error) {
	clean := strings.NewReplacer(" ", "", "_", "").Replace(text)
	base := 16
	if format == scan_types.FormatBinary {
		base = 2
	}
	return strconv.ParseUint(clean, base, bits)
}

func formatBits(v uint64, format scan_types.DisplayFormat, size int) string {
	if format == scan_types.FormatBinary {
		return fmt.Sprintf("%0*b", size*8, v)
	}
	return fmt.Sprintf("%0*X", size*2, v)
}

// integerType is a fixed-size two's complement integer
type integerType[T integer] struct {
	primitiveInfo
	codec codec[T]
}

func newIntegerType[T integer](id string, signed bool, c codec[T], endian Endian) *integerType[T] {
	return &integerType[T]{
		primitiveInfo: primitiveInfo{id: id, size: c.size, endian: endian, signed: signed},
		codec:         c,
	}
}

func (t *integerType[T]) IsFloatingPoint() bool { return false }

func (t *integerType[T]) Parse(value scan_types.AnonymousValue) (DataValue, error) {
	out := t.DefaultValue()
	text := strings.TrimSpace(value.Text)
	bits := t.size * 8

	if value.Format != scan_types.FormatDecimal {
		raw, err := parseBits(text, value.Format, bits)
		if err != nil {
			return DataValue{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, value.String(), t.id, err)
		}
		writeBits(out.Bytes, t.size, t.codec.order, raw)
		return out, nil
	}

	if t.signed {
		n, err := strconv.ParseInt(text, 10, bits)
		if err != nil {
			return DataValue{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, text, t.id, err)
		}
		t.codec.store(out.Bytes, T(n))
		return out, nil
	}

	n, err := strconv.ParseUint(strings.TrimPrefix(text, "+"), 10, bits)
	if err != nil {
		return DataValue{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, text, t.id, err)
	}
	t.codec.store(out.Bytes, T(n))
	return out, nil
}

func (t *integerType[T]) Format(b []byte, format scan_types.DisplayFormat) (string, error) {
	if err := t.checkBytes(b); err != nil {
		return "", err
	}
	if format != scan_types.FormatDecimal {
		return formatBits(readBits(b, t.size, t.codec.order), format, t.size), nil
	}
	v := t.codec.load(b)
	if t.signed {
		return strconv.FormatInt(int64(v), 10), nil
	}
	return strconv.FormatUint(uint64(v), 10), nil
}

func (t *integerType[T]) ScalarCompare(c Comparison) (ScalarCompareFn, error) {
	return integerScalarCompare(t.primitiveInfo, t.codec, c)
}

func (t *integerType[T]) VectorCompare(c Comparison, laneWidth, alignment int) (VectorCompareFn, error) {
	if err := checkLaneWidth(laneWidth, alignment); err != nil {
		return nil, err
	}
	scalar, err := t.ScalarCompare(c)
	if err != nil {
		return nil, err
	}
	if alignment == t.size {
		if kernel := equalityKernel(c, t.size, laneWidth); kernel != nil {
			return kernel, nil
		}
	}
	return laneKernel(scalar, laneWidth, alignment), nil
}

// floatType is an IEEE 754 binary32 or binary64 value
type floatType[T float] struct {
	primitiveInfo
	codec codec[T]
}

func newFloatType[T float](id string, c codec[T], endian Endian) *floatType[T] {
	return &floatType[T]{
		primitiveInfo: primitiveInfo{id: id, size: c.size, endian: endian, signed: true},
		codec:         c,
	}
}

func (t *floatType[T]) IsFloatingPoint() bool { return true }

func (t *floatType[T]) Parse(value scan_types.AnonymousValue) (DataValue, error) {
	out := t.DefaultValue()
	text := strings.TrimSpace(value.Text)
	bits := t.size * 8

	if value.Format != scan_types.FormatDecimal {
		raw, err := parseBits(text, value.Format, bits)
		if err != nil {
			return DataValue{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, value.String(), t.id, err)
		}
		writeBits(out.Bytes, t.size, t.codec.order, raw)
		return out, nil
	}

	f, err := strconv.ParseFloat(text, bits)
	if err != nil {
		return DataValue{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, text, t.id, err)
	}
	t.codec.store(out.Bytes, T(f))
	return out, nil
}

func (t *floatType[T]) Format(b []byte, format scan_types.DisplayFormat) (string, error) {
	if err := t.checkBytes(b); err != nil {
		return "", err
	}
	if format != scan_types.FormatDecimal {
		return formatBits(readBits(b, t.size, t.codec.order), format, t.size), nil
	}
	return strconv.FormatFloat(float64(t.codec.load(b)), 'g', -1, t.size*8), nil
}

func (t *floatType[T]) tolerance(tol scan_types.FloatingPointTolerance) T {
	if t.size == 4 {
		return T(tol.Float32())
	}
	return T(tol.Float64())
}

func (t *floatType[T]) ScalarCompare(c Comparison) (ScalarCompareFn, error) {
	return floatScalarCompare(t.primitiveInfo, t.codec, t.tolerance(c.Tolerance), c)
}

func (t *floatType[T]) VectorCompare(c Comparison, laneWidth, alignment int) (VectorCompareFn, error) {
	if err := checkLaneWidth(laneWidth, alignment); err != nil {
		return nil, err
	}
	scalar, err := t.ScalarCompare(c)
	if err != nil {
		return nil, err
	}
	return laneKernel(scalar, laneWidth, alignment), nil
}

func builtinPrimitives() []DataType {
	types := []DataType{
		newIntegerType("u8", false, u8Codec(), LittleEndian),
		newIntegerType("i8", true, i8Codec(), LittleEndian),
	}
	for _, e := range []Endian{LittleEndian, BigEndian} {
		suffix := ""
		if e == BigEndian {
			suffix = "be"
		}
		types = append(types,
			newIntegerType("u16"+suffix, false, u16Codec(e), e),
			newIntegerType("i16"+suffix, true, i16Codec(e), e),
			newIntegerType("u32"+suffix, false, u32Codec(e), e),
			newIntegerType("i32"+suffix, true, i32Codec(e), e),
			newIntegerType("u64"+suffix, false, u64Codec(e), e),
			newIntegerType("i64"+suffix, true, i64Codec(e), e),
			newFloatType("f32"+suffix, f32Codec(e), e),
			newFloatType("f64"+suffix, f64Codec(e), e),
		)
	}
	return types
}
