package snapshot

import (
	"time"

	"memscan/scan_types"

	"github.com/oklog/ulid/v2"
)

// ScanPass records one completed scan over the snapshot
type ScanPass struct {
	ID          ulid.ULID                 `json:"id"`
	Parameters  scan_types.ScanParameters `json:"parameters"`
	ResultCount uint64                    `json:"result_count"`
	Duration    time.Duration             `json:"duration"`
	Completed   time.Time                 `json:"completed"`
}

// NewPassID returns a time ordered id for the next scan pass. The caller must
// hold the write lock.
func (s *Snapshot) NewPassID() ulid.ULID {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy)
}

// RecordPass appends a completed pass to the history. The caller must hold
// the write lock.
func (s *Snapshot) RecordPass(pass ScanPass) {
	s.history = append(s.history, pass)
	s.log.Infoln("Scan pass", len(s.history), pass.ID.String(), "found", pass.ResultCount, "results in", pass.Duration)
}

// History returns the completed passes, oldest first
func (s *Snapshot) History() []ScanPass {
	result := make([]ScanPass, len(s.history))
	copy(result, s.history)
	return result
}
