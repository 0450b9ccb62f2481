package scan_types

import (
	"fmt"
	"strings"
)

// DisplayFormat is the textual radix a value is entered or shown in
type DisplayFormat uint8

const (
	FormatDecimal DisplayFormat = iota
	FormatHexadecimal
	FormatBinary

	displayFormatCount
)

var displayFormatNames = [displayFormatCount]string{"dec", "hex", "bin"}

func (f DisplayFormat) IsValid() bool {
	return f < displayFormatCount
}

func (f DisplayFormat) String() string {
	if !f.IsValid() {
		return fmt.Sprintf("DisplayFormat(%d)", uint8(f))
	}
	return displayFormatNames[f]
}

func ParseDisplayFormat(s string) (DisplayFormat, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "dec", "decimal":
		return FormatDecimal, nil
	case "hex", "hexadecimal":
		return FormatHexadecimal, nil
	case "bin", "binary":
		return FormatBinary, nil
	}
	return 0, fmt.Errorf("unknown display format %q", s)
}

func (f DisplayFormat) MarshalText() ([]byte, error) {
	if !f.IsValid() {
		return nil, fmt.Errorf("invalid display format %d", uint8(f))
	}
	return []byte(displayFormatNames[f]), nil
}

func (f *DisplayFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseDisplayFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// AnonymousValue is user input that has not been bound to a data type yet.
// The same text is parsed once per data type a scan targets. It travels as
// its prefixed text form ("42", "0x2a", "0b101010").
type AnonymousValue struct {
	Text   string
	Format DisplayFormat
}

// ParseAnonymousValue strips a 0x or 0b prefix and records the matching format
func ParseAnonymousValue(s string) AnonymousValue {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		return AnonymousValue{Text: s[2:], Format: FormatHexadecimal}
	case strings.HasPrefix(lower, "0b"):
		return AnonymousValue{Text: s[2:], Format: FormatBinary}
	}
	return AnonymousValue{Text: s, Format: FormatDecimal}
}

func (v AnonymousValue) String() string {
	switch v.Format {
	case FormatHexadecimal:
		return "0x" + v.Text
	case FormatBinary:
		return "0b" + v.Text
	}
	return v.Text
}

func (v AnonymousValue) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *AnonymousValue) UnmarshalText(text []byte) error {
	*v = ParseAnonymousValue(string(text))
	return nil
}
