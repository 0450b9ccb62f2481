package scan_types

import (
	"fmt"
	"strings"
)

// FloatingPointTolerance is the absolute tolerance used by floating point equality compares.
// The zero value is the default tolerance of 0.001.
type FloatingPointTolerance uint8

const (
	Tolerance10E3 FloatingPointTolerance = iota
	Tolerance10E1
	Tolerance10E2
	Tolerance10E4
	Tolerance10E5
	ToleranceEpsilon

	toleranceCount
)

const DefaultTolerance = Tolerance10E3

const (
	float32Epsilon = 1.1920929e-07
	float64Epsilon = 2.220446049250313e-16
)

var toleranceLabels = [toleranceCount]string{"0.001", "0.1", "0.01", "0.0001", "0.00001", "epsilon"}

var toleranceValues = [toleranceCount]float64{1e-3, 1e-1, 1e-2, 1e-4, 1e-5, 0}

func (t FloatingPointTolerance) IsValid() bool {
	return t < toleranceCount
}

// Float32 returns the tolerance for single precision compares
func (t FloatingPointTolerance) Float32() float32 {
	if t == ToleranceEpsilon {
		return float32Epsilon
	}
	return float32(toleranceValues[t%toleranceCount])
}

// Float64 returns the tolerance for double precision compares
func (t FloatingPointTolerance) Float64() float64 {
	if t == ToleranceEpsilon {
		return float64Epsilon
	}
	return toleranceValues[t%toleranceCount]
}

func (t FloatingPointTolerance) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("FloatingPointTolerance(%d)", uint8(t))
	}
	return toleranceLabels[t]
}

func ParseFloatingPointTolerance(s string) (FloatingPointTolerance, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return DefaultTolerance, nil
	}
	for i := FloatingPointTolerance(0); i < toleranceCount; i++ {
		if toleranceLabels[i] == s {
			return i, nil
		}
	}
	switch s {
	case "1e-1":
		return Tolerance10E1, nil
	case "1e-2":
		return Tolerance10E2, nil
	case "1e-3":
		return Tolerance10E3, nil
	case "1e-4":
		return Tolerance10E4, nil
	case "1e-5":
		return Tolerance10E5, nil
	}
	return 0, fmt.Errorf("unknown floating point tolerance %q", s)
}

func (t FloatingPointTolerance) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid floating point tolerance %d", uint8(t))
	}
	return []byte(toleranceLabels[t]), nil
}

func (t *FloatingPointTolerance) UnmarshalText(text []byte) error {
	parsed, err := ParseFloatingPointTolerance(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
