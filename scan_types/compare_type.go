package scan_types

import (
	"fmt"
	"strings"
)

// CompareKind groups compare types by what they compare against
type CompareKind uint8

const (
	// CompareKindImmediate compares the current value against an operand
	CompareKindImmediate CompareKind = iota
	// CompareKindRelative compares the current value against the previous value
	CompareKindRelative
	// CompareKindDelta compares the current value against the previous value adjusted by an operand
	CompareKindDelta
)

func (k CompareKind) String() string {
	switch k {
	case CompareKindImmediate:
		return "immediate"
	case CompareKindRelative:
		return "relative"
	case CompareKindDelta:
		return "delta"
	}
	return fmt.Sprintf("CompareKind(%d)", uint8(k))
}

// ScanCompareType is the comparison a scan pass applies to every candidate element
type ScanCompareType uint8

const (
	CompareEqual ScanCompareType = iota
	CompareNotEqual
	CompareGreaterThan
	CompareGreaterThanOrEqual
	CompareLessThan
	CompareLessThanOrEqual

	CompareChanged
	CompareUnchanged
	CompareIncreased
	CompareDecreased

	CompareIncreasedByX
	CompareDecreasedByX
	CompareMultipliedByX
	CompareDividedByX
	CompareModuloByX
	CompareShiftLeftByX
	CompareShiftRightByX
	CompareLogicalAndByX
	CompareLogicalOrByX
	CompareLogicalXorByX

	compareTypeCount
)

var compareTypeLabels = [compareTypeCount]string{
	"==", "!=", ">", ">=", "<", "<=",
	"changed", "unchanged", "increased", "decreased",
	"+x", "-x", "*x", "/x", "%x", "<<x", ">>x", "&x", "|x", "^x",
}

var compareTypeNames = [compareTypeCount]string{
	"equal", "not_equal", "greater_than", "greater_than_or_equal", "less_than", "less_than_or_equal",
	"changed", "unchanged", "increased", "decreased",
	"increased_by_x", "decreased_by_x", "multiplied_by_x", "divided_by_x", "modulo_by_x",
	"shift_left_by_x", "shift_right_by_x", "logical_and_by_x", "logical_or_by_x", "logical_xor_by_x",
}

// AllCompareTypes returns every compare type in declaration order
func AllCompareTypes() []ScanCompareType {
	out := make([]ScanCompareType, 0, compareTypeCount)
	for ct := ScanCompareType(0); ct < compareTypeCount; ct++ {
		out = append(out, ct)
	}
	return out
}

func (ct ScanCompareType) IsValid() bool {
	return ct < compareTypeCount
}

func (ct ScanCompareType) Kind() CompareKind {
	switch {
	case ct <= CompareLessThanOrEqual:
		return CompareKindImmediate
	case ct <= CompareDecreased:
		return CompareKindRelative
	default:
		return CompareKindDelta
	}
}

// RequiresOperand reports whether the compare type needs an operand value
func (ct ScanCompareType) RequiresOperand() bool {
	return ct.Kind() != CompareKindRelative
}

// RequiresPrevious reports whether the compare type reads previous values
func (ct ScanCompareType) RequiresPrevious() bool {
	return ct.Kind() != CompareKindImmediate
}

func (ct ScanCompareType) IsImmediate() bool {
	return ct.Kind() == CompareKindImmediate
}

// Label is the short symbol shown to users, e.g. ">=" or "+x"
func (ct ScanCompareType) Label() string {
	if !ct.IsValid() {
		return fmt.Sprintf("ScanCompareType(%d)", uint8(ct))
	}
	return compareTypeLabels[ct]
}

// Name is the snake_case identifier, e.g. "greater_than_or_equal"
func (ct ScanCompareType) Name() string {
	if !ct.IsValid() {
		return fmt.Sprintf("ScanCompareType(%d)", uint8(ct))
	}
	return compareTypeNames[ct]
}

func (ct ScanCompareType) String() string {
	return ct.Label()
}

// ParseScanCompareType accepts either a label ("<=", "*x") or a name ("less_than_or_equal")
func ParseScanCompareType(s string) (ScanCompareType, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for i := ScanCompareType(0); i < compareTypeCount; i++ {
		if compareTypeLabels[i] == lower || compareTypeNames[i] == lower {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown compare type %q", s)
}

func (ct ScanCompareType) MarshalText() ([]byte, error) {
	if !ct.IsValid() {
		return nil, fmt.Errorf("invalid compare type %d", uint8(ct))
	}
	return []byte(compareTypeNames[ct]), nil
}

func (ct *ScanCompareType) UnmarshalText(text []byte) error {
	parsed, err := ParseScanCompareType(string(text))
	if err != nil {
		return err
	}
	*ct = parsed
	return nil
}
