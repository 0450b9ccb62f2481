package tasks

import (
	"errors"
	"sync/atomic"
	"time"

	"memscan/process"
	"memscan/snapshot"
)

type CollectorOptions struct {
	// Workers bounds concurrent region reads; 0 means one per CPU
	Workers int
	// Chunked reads every region in ChunkSize pieces
	Chunked   bool
	ChunkSize int
}

// ReadSummary counts the outcome of refreshing a snapshot's values
type ReadSummary struct {
	Regions     int
	Failed      int // regions that could not be read at all
	Partial     int // regions with some tombstoned segments
	BytesRead   uint64
	Duration    time.Duration
	Interrupted bool
}

// ValueCollectorTask refreshes every region of a snapshot in the background
type ValueCollectorTask struct {
	*TrackableTask
	summary ReadSummary
}

// Summary is valid once the task has completed
func (t *ValueCollectorTask) Summary() ReadSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summary
}

// StartValueCollector reads all regions of snap from reader on a worker
// pool. The snapshot's write lock is held until the task completes. Failed
// reads are logged and counted; they never fail the task.
func StartValueCollector(reader process.MemoryReader, snap *snapshot.Snapshot, opts CollectorOptions) *ValueCollectorTask {
	task := &ValueCollectorTask{TrackableTask: NewTrackableTask("value-collector")}

	go func() {
		task.start()
		snap.Lock()
		summary := collectValues(task.TrackableTask, reader, snap.Regions(), opts, fullRange)
		snap.Unlock()

		task.mu.Lock()
		task.summary = summary
		task.mu.Unlock()
		task.complete(summary.Interrupted, nil)
	}()

	return task
}

// collectValues reads regions one unit per region. The caller holds the snapshot's write lock.
func collectValues(task *TrackableTask, reader process.MemoryReader, regions []*snapshot.SnapshotRegion, opts CollectorOptions, pr progressRange) ReadSummary {
	start := time.Now()
	var failed, partial atomic.Int64
	var bytesRead atomic.Uint64

	complete := runUnits(task, len(regions), opts.Workers, pr, func(i int) {
		err := readRegion(task, reader, regions[i], opts)
		var readErr *snapshot.RegionReadError
		switch {
		case err == nil:
			bytesRead.Add(regions[i].Size())
		case errors.As(err, &readErr) && !readErr.Total:
			partial.Add(1)
			bytesRead.Add(regions[i].Size())
		default:
			failed.Add(1)
		}
	})

	summary := ReadSummary{
		Regions:     len(regions),
		Failed:      int(failed.Load()),
		Partial:     int(partial.Load()),
		BytesRead:   bytesRead.Load(),
		Duration:    time.Since(start),
		Interrupted: !complete,
	}
	task.log.Infoln("Read", summary.Regions, "regions,", summary.BytesRead, "bytes in", summary.Duration,
		"failed:", summary.Failed, "partial:", summary.Partial)
	return summary
}

func readRegion(task *TrackableTask, reader process.MemoryReader, region *snapshot.SnapshotRegion, opts CollectorOptions) error {
	var err error
	if opts.Chunked {
		err = region.ReadAllMemoryChunked(reader, opts.ChunkSize)
	} else {
		err = region.ReadAllMemory(reader)
	}
	if err != nil {
		task.log.Debugln("Read failed for region", region.String(), err)
	}
	return err
}
