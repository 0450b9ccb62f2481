package scan_types

// ScanParameters is everything a scan pass needs besides the snapshot itself
type ScanParameters struct {
	CompareType ScanCompareType        `json:"compare_type"`
	Value       *AnonymousValue        `json:"value,omitempty"`
	DataTypeIDs []string               `json:"data_types"`
	Alignment   MemoryAlignment        `json:"alignment"`
	Tolerance   FloatingPointTolerance `json:"tolerance"`
	ReadMode    MemoryReadMode         `json:"read_mode"`

	// IsSingleThreaded runs every filter on the calling worker with the scalar scanner
	IsSingleThreaded bool `json:"single_threaded,omitempty"`
	// ValidationScan re-runs each region with the scalar scanner and reports differences
	ValidationScan bool `json:"validation_scan,omitempty"`
}

// NewScanParameters builds parameters for a constraint over the given data types
func NewScanParameters(constraint ScanConstraint, dataTypeIDs ...string) ScanParameters {
	return ScanParameters{
		CompareType: constraint.CompareType,
		Value:       constraint.Value,
		DataTypeIDs: dataTypeIDs,
		Alignment:   AlignmentAuto,
		Tolerance:   DefaultTolerance,
		ReadMode:    ReadBeforeScan,
	}
}

func (p ScanParameters) Constraint() ScanConstraint {
	return ScanConstraint{CompareType: p.CompareType, Value: p.Value}
}
