package scan_types

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidConstraint = errors.New("invalid scan constraint")

// ScanConstraint is a compare type plus its operand, if the compare type takes one
type ScanConstraint struct {
	CompareType ScanCompareType `json:"compare_type"`
	Value       *AnonymousValue `json:"value,omitempty"`
}

func (c ScanConstraint) Validate() error {
	if !c.CompareType.IsValid() {
		return fmt.Errorf("%w: unknown compare type %d", ErrInvalidConstraint, uint8(c.CompareType))
	}
	if c.CompareType.RequiresOperand() && (c.Value == nil || strings.TrimSpace(c.Value.Text) == "") {
		return fmt.Errorf("%w: %s requires a value", ErrInvalidConstraint, c.CompareType.Name())
	}
	return nil
}

func (c ScanConstraint) String() string {
	if c.Value == nil || !c.CompareType.RequiresOperand() {
		return c.CompareType.Name()
	}
	return strings.TrimSuffix(c.CompareType.Label(), "x") + " " + c.Value.String()
}

type constraintPrefix struct {
	symbol   string
	withArg  ScanCompareType
	bare     ScanCompareType
	bareOkay bool
}

// longest symbols first so "<<" wins over "<" and ">=" over ">"
var constraintPrefixes = []constraintPrefix{
	{"<<", CompareShiftLeftByX, 0, false},
	{">>", CompareShiftRightByX, 0, false},
	{"==", CompareEqual, CompareUnchanged, true},
	{"!=", CompareNotEqual, CompareChanged, true},
	{">=", CompareGreaterThanOrEqual, 0, false},
	{"<=", CompareLessThanOrEqual, 0, false},
	{">", CompareGreaterThan, CompareIncreased, true},
	{"<", CompareLessThan, CompareDecreased, true},
	{"+", CompareIncreasedByX, CompareIncreased, true},
	{"-", CompareDecreasedByX, CompareDecreased, true},
	{"*", CompareMultipliedByX, 0, false},
	{"/", CompareDividedByX, 0, false},
	{"%", CompareModuloByX, 0, false},
	{"&", CompareLogicalAndByX, 0, false},
	{"|", CompareLogicalOrByX, 0, false},
	{"^", CompareLogicalXorByX, 0, false},
	{"=", CompareEqual, CompareUnchanged, true},
}

// ParseConstraint parses the short constraint syntax used at the command line:
//
//	"== 100", "!= 0", "> 5", "<= 0x10"  immediate compares
//	"==", "!=", "+", "-"                unchanged, changed, increased, decreased
//	"+ 5", "- 5", "* 2", "<< 1", "^ 0xff"  delta compares
//	"changed", "unchanged", "increased", "decreased"
//	"100"                               equal to 100
func ParseConstraint(text string) (ScanConstraint, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return ScanConstraint{}, fmt.Errorf("%w: empty constraint", ErrInvalidConstraint)
	}

	if fields := strings.Fields(s); len(fields) > 0 {
		if ct, err := ParseScanCompareType(fields[0]); err == nil && len(fields[0]) > 2 {
			if !ct.RequiresOperand() {
				if len(fields) > 1 {
					return ScanConstraint{}, fmt.Errorf("%w: %s takes no value", ErrInvalidConstraint, ct.Name())
				}
				return ScanConstraint{CompareType: ct}, nil
			}
			rest := strings.TrimSpace(strings.TrimPrefix(s, fields[0]))
			if rest == "" {
				return ScanConstraint{}, fmt.Errorf("%w: %s requires a value", ErrInvalidConstraint, ct.Name())
			}
			v := ParseAnonymousValue(rest)
			return ScanConstraint{CompareType: ct, Value: &v}, nil
		}
	}

	for _, p := range constraintPrefixes {
		if !strings.HasPrefix(s, p.symbol) {
			continue
		}
		rest := strings.TrimSpace(s[len(p.symbol):])
		if rest == "" {
			if !p.bareOkay {
				return ScanConstraint{}, fmt.Errorf("%w: %q requires a value", ErrInvalidConstraint, p.symbol)
			}
			return ScanConstraint{CompareType: p.bare}, nil
		}
		v := ParseAnonymousValue(rest)
		return ScanConstraint{CompareType: p.withArg, Value: &v}, nil
	}

	v := ParseAnonymousValue(s)
	return ScanConstraint{CompareType: CompareEqual, Value: &v}, nil
}
