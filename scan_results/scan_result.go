package scan_results

import (
	"fmt"

	"memscan/datatypes"
	"memscan/scan_types"
)

// ScanResult is one element matching the last scan pass
type ScanResult struct {
	Index      uint64 `json:"index"`
	Address    uint64 `json:"address"`
	DataTypeID string `json:"data_type"`

	// Module is empty when the address is not inside a file backed module
	Module       string `json:"module,omitempty"`
	ModuleOffset uint64 `json:"module_offset,omitempty"`

	Current  *datatypes.DataValue `json:"current,omitempty"`
	Previous *datatypes.DataValue `json:"previous,omitempty"`
}

// Location renders the address as module+offset when it is inside a module
func (r ScanResult) Location() string {
	if r.Module != "" {
		return fmt.Sprintf("%s+0x%x", r.Module, r.ModuleOffset)
	}
	return fmt.Sprintf("0x%x", r.Address)
}

// FormatValues renders the current and previous values, "??" when unknown
func (r ScanResult) FormatValues(registry *datatypes.Registry, format scan_types.DisplayFormat) (current, previous string) {
	dt, err := registry.Get(r.DataTypeID)
	if err != nil {
		return "??", "??"
	}
	render := func(v *datatypes.DataValue) string {
		if v == nil {
			return "??"
		}
		s, err := dt.Format(v.Bytes, format)
		if err != nil {
			return "??"
		}
		return s
	}
	return render(r.Current), render(r.Previous)
}
