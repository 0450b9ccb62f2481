package scan_types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MemoryAlignment is the byte stride between candidate element start addresses.
// The zero value is Auto, which resolves to the data type's natural alignment.
type MemoryAlignment uint8

const (
	AlignmentAuto MemoryAlignment = 0
	Alignment1    MemoryAlignment = 1
	Alignment2    MemoryAlignment = 2
	Alignment4    MemoryAlignment = 4
	Alignment8    MemoryAlignment = 8
)

func (a MemoryAlignment) IsValid() bool {
	switch a {
	case AlignmentAuto, Alignment1, Alignment2, Alignment4, Alignment8:
		return true
	}
	return false
}

// Bytes returns the stride in bytes, treating Auto as 1
func (a MemoryAlignment) Bytes() int {
	if a == AlignmentAuto {
		return 1
	}
	return int(a)
}

// Resolve replaces Auto with the given fallback
func (a MemoryAlignment) Resolve(fallback MemoryAlignment) MemoryAlignment {
	if a == AlignmentAuto {
		if fallback == AlignmentAuto {
			return Alignment1
		}
		return fallback
	}
	return a
}

func (a MemoryAlignment) String() string {
	if a == AlignmentAuto {
		return "auto"
	}
	return strconv.Itoa(int(a))
}

func ParseMemoryAlignment(s string) (MemoryAlignment, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "auto" {
		return AlignmentAuto, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid memory alignment %q", s)
	}
	a := MemoryAlignment(n)
	if n < 0 || n > 255 || !a.IsValid() {
		return 0, fmt.Errorf("invalid memory alignment %d", n)
	}
	return a, nil
}

func (a MemoryAlignment) MarshalText() ([]byte, error) {
	if !a.IsValid() {
		return nil, fmt.Errorf("invalid memory alignment %d", uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *MemoryAlignment) UnmarshalText(text []byte) error {
	parsed, err := ParseMemoryAlignment(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the alignment as its numeric wire value (0 for auto)
func (a MemoryAlignment) MarshalJSON() ([]byte, error) {
	if !a.IsValid() {
		return nil, fmt.Errorf("invalid memory alignment %d", uint8(a))
	}
	return []byte(strconv.Itoa(int(a))), nil
}

// UnmarshalJSON accepts a number or a string such as "auto"
func (a *MemoryAlignment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return a.UnmarshalText([]byte(s))
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid memory alignment %s", string(data))
	}
	return a.UnmarshalText([]byte(strconv.Itoa(n)))
}
