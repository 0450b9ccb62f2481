package datatypes

import (
	"encoding/binary"
	"math"
)

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type float interface {
	~float32 | ~float64
}

// codec moves one element between its in-memory bytes and a Go value
type codec[T integer | float] struct {
	size  int
	order binary.ByteOrder
	load  func(b []byte) T
	store func(b []byte, v T)
}

func byteOrder(e Endian) binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func u8Codec() codec[uint8] {
	return codec[uint8]{
		size:  1,
		order: binary.LittleEndian,
		load:  func(b []byte) uint8 { return b[0] },
		store: func(b []byte, v uint8) { b[0] = v },
	}
}

func i8Codec() codec[int8] {
	return codec[int8]{
		size:  1,
		order: binary.LittleEndian,
		load:  func(b []byte) int8 { return int8(b[0]) },
		store: func(b []byte, v int8) { b[0] = uint8(v) },
	}
}

func u16Codec(e Endian) codec[uint16] {
	if e == BigEndian {
		return codec[uint16]{2, binary.BigEndian, binary.BigEndian.Uint16, binary.BigEndian.PutUint16}
	}
	return codec[uint16]{2, binary.LittleEndian, binary.LittleEndian.Uint16, binary.LittleEndian.PutUint16}
}

func i16Codec(e Endian) codec[int16] {
	u := u16Codec(e)
	return codec[int16]{
		size:  2,
		order: u.order,
		load:  func(b []byte) int16 { return int16(u.load(b)) },
		store: func(b []byte, v int16) { u.store(b, uint16(v)) },
	}
}

func u32Codec(e Endian) codec[uint32] {
	if e == BigEndian {
		return codec[uint32]{4, binary.BigEndian, binary.BigEndian.Uint32, binary.BigEndian.PutUint32}
	}
	return codec[uint32]{4, binary.LittleEndian, binary.LittleEndian.Uint32, binary.LittleEndian.PutUint32}
}

func i32Codec(e Endian) codec[int32] {
	u := u32Codec(e)
	return codec[int32]{
		size:  4,
		order: u.order,
		load:  func(b []byte) int32 { return int32(u.load(b)) },
		store: func(b []byte, v int32) { u.store(b, uint32(v)) },
	}
}

func u64Codec(e Endian) codec[uint64] {
	if e == BigEndian {
		return codec[uint64]{8, binary.BigEndian, binary.BigEndian.Uint64, binary.BigEndian.PutUint64}
	}
	return codec[uint64]{8, binary.LittleEndian, binary.LittleEndian.Uint64, binary.LittleEndian.PutUint64}
}

func i64Codec(e Endian) codec[int64] {
	u := u64Codec(e)
	return codec[int64]{
		size:  8,
		order: u.order,
		load:  func(b []byte) int64 { return int64(u.load(b)) },
		store: func(b []byte, v int64) { u.store(b, uint64(v)) },
	}
}

func f32Codec(e Endian) codec[float32] {
	u := u32Codec(e)
	return codec[float32]{
		size:  4,
		order: u.order,
		load:  func(b []byte) float32 { return math.Float32frombits(u.load(b)) },
		store: func(b []byte, v float32) { u.store(b, math.Float32bits(v)) },
	}
}

func f64Codec(e Endian) codec[float64] {
	u := u64Codec(e)
	return codec[float64]{
		size:  8,
		order: u.order,
		load:  func(b []byte) float64 { return math.Float64frombits(u.load(b)) },
		store: func(b []byte, v float64) { u.store(b, math.Float64bits(v)) },
	}
}

// readBits returns the element's raw bits as an unsigned number
func readBits(b []byte, size int, order binary.ByteOrder) uint64 {
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	default:
		return order.Uint64(b)
	}
}

func writeBits(b []byte, size int, order binary.ByteOrder, v uint64) {
	switch size {
	case 1:
		b[0] = uint8(v)
	case 2:
		order.PutUint16(b, uint16(v))
	case 4:
		order.PutUint32(b, uint32(v))
	default:
		order.PutUint64(b, v)
	}
}
