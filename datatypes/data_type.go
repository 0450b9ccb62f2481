package datatypes

import (
	"errors"
	"fmt"

	"memscan/scan_types"
)

var (
	ErrUnknownDataType    = errors.New("unknown data type")
	ErrDuplicateDataType  = errors.New("data type already registered")
	ErrUnsupportedCompare = errors.New("unsupported compare")
	ErrInvalidValue       = errors.New("invalid value")
)

type Endian uint8

const (
	LittleEndian Endian = iota
	BigEndian
)

func (e Endian) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// ScalarCompareFn evaluates the element starting at offset. previous is only
// read by relative and delta compares; the operand is bound when the function
// is built.
type ScalarCompareFn func(current, previous []byte, offset int) bool

// VectorCompareFn evaluates laneWidth/alignment consecutive elements starting
// at offset. Bit i of the result is the outcome for the element at
// offset + i*alignment.
type VectorCompareFn func(current, previous []byte, offset int) uint64

// Comparison is everything a comparator needs besides the bytes it compares
type Comparison struct {
	CompareType scan_types.ScanCompareType
	Operand     *DataValue
	Tolerance   scan_types.FloatingPointTolerance
}

// DataType describes one primitive (or plugin) type that memory can be scanned as
type DataType interface {
	ID() string
	// UnitSize is the size of one element in bytes, 0 when sized by its operand
	UnitSize() int
	Endian() Endian
	IsFloatingPoint() bool
	IsSigned() bool
	DefaultAlignment() scan_types.MemoryAlignment
	DefaultValue() DataValue

	Parse(value scan_types.AnonymousValue) (DataValue, error)
	Format(b []byte, format scan_types.DisplayFormat) (string, error)

	ScalarCompare(c Comparison) (ScalarCompareFn, error)
	VectorCompare(c Comparison, laneWidth, alignment int) (VectorCompareFn, error)
}

// UnsupportedCompareError is returned when a data type has no comparator for a compare type
type UnsupportedCompareError struct {
	DataTypeID  string
	CompareType scan_types.ScanCompareType
	Reason      string
}

func (e *UnsupportedCompareError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s does not support %s compares", e.DataTypeID, e.CompareType.Name())
	}
	return fmt.Sprintf("%s does not support %s compares: %s", e.DataTypeID, e.CompareType.Name(), e.Reason)
}

func (e *UnsupportedCompareError) Is(target error) bool {
	return target == ErrUnsupportedCompare
}

func unsupported(id string, ct scan_types.ScanCompareType, reason string) error {
	return &UnsupportedCompareError{DataTypeID: id, CompareType: ct, Reason: reason}
}

// UnitSizeFor returns the element size a comparison over dt works with
func UnitSizeFor(dt DataType, operand *DataValue) int {
	if size := dt.UnitSize(); size > 0 {
		return size
	}
	if operand != nil {
		return len(operand.Bytes)
	}
	return 0
}

func checkLaneWidth(laneWidth, alignment int) error {
	switch laneWidth {
	case 16, 32, 64:
	default:
		return fmt.Errorf("unsupported lane width %d", laneWidth)
	}
	switch alignment {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("unsupported alignment %d", alignment)
	}
	return nil
}
