package scan_types

import (
	"fmt"
	"strings"
)

// MemoryReadMode decides when a scan pass refreshes region values from the process
type MemoryReadMode uint8

const (
	// ReadBeforeScan reads every region before any comparison starts
	ReadBeforeScan MemoryReadMode = iota
	// ReadInterleavedWithScan reads each region right before its filters are scanned
	ReadInterleavedWithScan
	// SkipRead scans the values already held by the snapshot
	SkipRead

	readModeCount
)

var readModeNames = [readModeCount]string{"read_before_scan", "read_interleaved_with_scan", "skip"}

func (m MemoryReadMode) IsValid() bool {
	return m < readModeCount
}

func (m MemoryReadMode) String() string {
	if !m.IsValid() {
		return fmt.Sprintf("MemoryReadMode(%d)", uint8(m))
	}
	return readModeNames[m]
}

func ParseMemoryReadMode(s string) (MemoryReadMode, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ReadBeforeScan, nil
	}
	for i := MemoryReadMode(0); i < readModeCount; i++ {
		if readModeNames[i] == s {
			return i, nil
		}
	}
	switch s {
	case "before":
		return ReadBeforeScan, nil
	case "interleaved":
		return ReadInterleavedWithScan, nil
	case "none":
		return SkipRead, nil
	}
	return 0, fmt.Errorf("unknown memory read mode %q", s)
}

func (m MemoryReadMode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("invalid memory read mode %d", uint8(m))
	}
	return []byte(readModeNames[m]), nil
}

func (m *MemoryReadMode) UnmarshalText(text []byte) error {
	parsed, err := ParseMemoryReadMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
