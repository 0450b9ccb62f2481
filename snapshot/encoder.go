package snapshot

// RunLengthEncoder turns a stream of per-element pass/fail outcomes, visited
// in address order, into filters covering the maximal passing runs.
//
// Call EncodeRange for every passing element and Finalize for every failing
// one, then Finalize(0) once at the end to flush the trailing run.
type RunLengthEncoder struct {
	cursor    uint64
	runLength uint64
	encoding  bool

	// padding is added to every emitted filter so the last element's bytes
	// are covered when the unit size exceeds the stride
	padding  uint64
	endLimit uint64

	filters []SnapshotRegionFilter
}

func NewRunLengthEncoder(baseAddress uint64) *RunLengthEncoder {
	return &RunLengthEncoder{cursor: baseAddress}
}

// NewPaddedRunLengthEncoder pads emitted filters by padding bytes. A non-zero
// endLimit clamps every filter so it never reaches past that address.
func NewPaddedRunLengthEncoder(baseAddress, padding, endLimit uint64) *RunLengthEncoder {
	return &RunLengthEncoder{cursor: baseAddress, padding: padding, endLimit: endLimit}
}

// ElementPadding is the padding for elements of unitSize visited alignment bytes apart
func ElementPadding(unitSize, alignment int) uint64 {
	if unitSize > alignment {
		return uint64(unitSize - alignment)
	}
	return 0
}

func (e *RunLengthEncoder) EncodeRange(step uint64) {
	e.encoding = true
	e.runLength += step
}

func (e *RunLengthEncoder) Finalize(step uint64) {
	if e.encoding && e.runLength > 0 {
		size := e.runLength + e.padding
		if e.endLimit > 0 && e.cursor+size > e.endLimit {
			size = e.endLimit - e.cursor
		}
		e.filters = append(e.filters, SnapshotRegionFilter{BaseAddress: e.cursor, Size: size})
		e.cursor += e.runLength
		e.runLength = 0
	}
	e.encoding = false
	e.cursor += step
}

func (e *RunLengthEncoder) IsEncoding() bool {
	return e.encoding
}

func (e *RunLengthEncoder) Cursor() uint64 {
	return e.cursor
}

// Filters returns the filters emitted so far and resets the result list
func (e *RunLengthEncoder) Filters() []SnapshotRegionFilter {
	result := e.filters
	e.filters = nil
	return result
}
