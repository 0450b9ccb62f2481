package snapshot

import (
	"errors"
	"fmt"
)

var (
	// ErrReadFailed is wrapped by every error caused by a failed region read
	ErrReadFailed = errors.New("region read failed")
	// ErrSnapshotBusy is returned when a snapshot lock could not be taken without blocking
	ErrSnapshotBusy = errors.New("snapshot is busy")
)

// RegionReadError reports the segments of a region that could not be read.
// Failed segments keep the values from the previous read.
type RegionReadError struct {
	BaseAddress uint64
	Failed      []Tombstone
	// Total is set when no segment of the region could be read
	Total bool
	Err   error
}

func (e *RegionReadError) Error() string {
	what := fmt.Sprintf("%d segment(s)", len(e.Failed))
	if e.Total {
		what = "all segments"
	}
	if e.Err != nil {
		return fmt.Sprintf("region 0x%x: %s unreadable: %v", e.BaseAddress, what, e.Err)
	}
	return fmt.Sprintf("region 0x%x: %s unreadable", e.BaseAddress, what)
}

func (e *RegionReadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrReadFailed}
	}
	return []error{ErrReadFailed, e.Err}
}

func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("snapshot: "+format, args...))
	}
}
