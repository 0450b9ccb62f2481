package scanners

import (
	"errors"
	"fmt"

	"memscan/datatypes"
	"memscan/scan_types"
	"memscan/snapshot"
)

var ErrInvalidParameters = errors.New("invalid scan parameters")

// ParameterError rejects a scan before any work starts
type ParameterError struct {
	DataTypeID string
	Reason     string
	Err        error
}

func (e *ParameterError) Error() string {
	msg := e.Reason
	if e.DataTypeID != "" {
		msg = e.DataTypeID + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "invalid scan parameters: " + msg
}

func (e *ParameterError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidParameters}
	}
	return []error{ErrInvalidParameters, e.Err}
}

// LaneWidths are the vector widths comparators are prepared for
var LaneWidths = []int{16, 32, 64}

// ScanPlan is one data type's share of a scan pass, with its comparators built
type ScanPlan struct {
	DataType   datatypes.DataType
	Comparison datatypes.Comparison
	// Requested is the comparison before optimization rules were applied
	Requested datatypes.Comparison
	Alignment int
	UnitSize  int
	Scalar    datatypes.ScalarCompareFn

	vectors map[int]datatypes.VectorCompareFn
}

func (p *ScanPlan) DataTypeID() string {
	return p.DataType.ID()
}

// Optimized reports whether an optimization rule rewrote the comparison
func (p *ScanPlan) Optimized() bool {
	return p.Comparison.CompareType != p.Requested.CompareType
}

// Padding is added to every filter so its last element's bytes stay covered
func (p *ScanPlan) Padding() uint64 {
	return snapshot.ElementPadding(p.UnitSize, p.Alignment)
}

// Vector returns the vector comparator for laneWidth, or nil when the data
// type has none
func (p *ScanPlan) Vector(laneWidth int) datatypes.VectorCompareFn {
	return p.vectors[laneWidth]
}

// NewFilterCollection starts a collection for this plan's data type
func (p *ScanPlan) NewFilterCollection(filters []snapshot.SnapshotRegionFilter) snapshot.FilterCollection {
	return snapshot.FilterCollection{
		DataTypeID: p.DataTypeID(),
		Alignment:  p.Alignment,
		UnitSize:   p.UnitSize,
		Filters:    filters,
	}
}

// Compile validates params against the registry and builds one plan per
// requested data type. Any failure rejects the whole scan.
func Compile(params scan_types.ScanParameters, registry *datatypes.Registry) ([]*ScanPlan, error) {
	if err := params.Constraint().Validate(); err != nil {
		return nil, &ParameterError{Reason: "bad constraint", Err: err}
	}
	if !params.Alignment.IsValid() {
		return nil, &ParameterError{Reason: fmt.Sprintf("alignment %d", uint8(params.Alignment))}
	}
	if !params.Tolerance.IsValid() {
		return nil, &ParameterError{Reason: fmt.Sprintf("tolerance %d", uint8(params.Tolerance))}
	}
	if !params.ReadMode.IsValid() {
		return nil, &ParameterError{Reason: fmt.Sprintf("read mode %d", uint8(params.ReadMode))}
	}
	if len(params.DataTypeIDs) == 0 {
		return nil, &ParameterError{Reason: "no data types"}
	}

	seen := make(map[string]bool)
	var plans []*ScanPlan
	for _, id := range params.DataTypeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		plan, err := compileOne(params, registry, id)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func compileOne(params scan_types.ScanParameters, registry *datatypes.Registry, id string) (*ScanPlan, error) {
	dt, err := registry.Get(id)
	if err != nil {
		return nil, &ParameterError{DataTypeID: id, Reason: "lookup", Err: err}
	}

	requested := datatypes.Comparison{CompareType: params.CompareType, Tolerance: params.Tolerance}
	if params.CompareType.RequiresOperand() {
		operand, err := dt.Parse(*params.Value)
		if err != nil {
			return nil, &ParameterError{DataTypeID: id, Reason: fmt.Sprintf("value %q", params.Value.String()), Err: err}
		}
		requested.Operand = &operand
	}

	unitSize := datatypes.UnitSizeFor(dt, requested.Operand)
	if unitSize <= 0 {
		return nil, &ParameterError{DataTypeID: id, Reason: "element size unknown without a value"}
	}

	comparison := Optimize(dt, requested)
	scalar, err := dt.ScalarCompare(comparison)
	if err != nil {
		return nil, &ParameterError{DataTypeID: id, Reason: "comparator", Err: err}
	}

	plan := &ScanPlan{
		DataType:   dt,
		Comparison: comparison,
		Requested:  requested,
		Alignment:  params.Alignment.Resolve(dt.DefaultAlignment()).Bytes(),
		UnitSize:   unitSize,
		Scalar:     scalar,
		vectors:    make(map[int]datatypes.VectorCompareFn),
	}
	for _, lane := range LaneWidths {
		if fn, err := dt.VectorCompare(comparison, lane, plan.Alignment); err == nil {
			plan.vectors[lane] = fn
		}
	}
	return plan, nil
}

// Optimize applies comparison rewrites that keep results identical but run
// faster. An unsigned integer compare "> 0" becomes "!= 0", which has a
// packed equality kernel.
func Optimize(dt datatypes.DataType, c datatypes.Comparison) datatypes.Comparison {
	if c.CompareType == scan_types.CompareGreaterThan &&
		dt.UnitSize() > 0 && !dt.IsFloatingPoint() && !dt.IsSigned() &&
		c.Operand != nil && c.Operand.IsZero() {
		c.CompareType = scan_types.CompareNotEqual
	}
	return c
}
