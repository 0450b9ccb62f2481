package tasks

import (
	"time"

	"memscan/datatypes"
	"memscan/process"
	"memscan/scan_types"
	"memscan/scanners"
	"memscan/snapshot"

	"github.com/oklog/ulid/v2"
)

type ExecutorOptions struct {
	Dispatcher scanners.DispatcherOptions
	Collector  CollectorOptions
	// Events receives ScanResultsUpdated after every committed pass; may be nil
	Events *EventBus
}

func DefaultExecutorOptions() ExecutorOptions {
	return ExecutorOptions{Dispatcher: scanners.DefaultDispatcherOptions()}
}

// ScanSummary describes a finished scan pass
type ScanSummary struct {
	PassID      ulid.ULID
	NewScan     bool
	ResultCount uint64
	PerType     map[string]uint64
	Regions     int
	Read        ReadSummary
	Tombstoned  int // filters dropped because their memory could not be read
	Mismatches  int64
	Duration    time.Duration
}

// ScanTask runs one scan pass in the background
type ScanTask struct {
	*TrackableTask
	summary ScanSummary
}

// Summary is valid once the task has completed without being cancelled
func (t *ScanTask) Summary() ScanSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summary
}

// StartScanExecutor validates params and runs a scan pass over snap.
//
// The first pass over a snapshot is a new scan: every region is searched
// whole. Later passes narrow the filters left by the previous one. The
// snapshot's write lock is held for the whole pass; a cancelled pass leaves
// the filters as they were.
func StartScanExecutor(reader process.MemoryReader, snap *snapshot.Snapshot, registry *datatypes.Registry, params scan_types.ScanParameters, opts ExecutorOptions) (*ScanTask, error) {
	plans, err := scanners.Compile(params, registry)
	if err != nil {
		return nil, err
	}
	dopts := opts.Dispatcher
	dopts.SingleThreaded = dopts.SingleThreaded || params.IsSingleThreaded
	dopts.ValidationScan = dopts.ValidationScan || params.ValidationScan
	if dopts.SingleThreaded {
		opts.Collector.Workers = 1
		dopts.Workers = 1
	}
	opts.Dispatcher = dopts
	dispatcher := scanners.NewDispatcher(dopts)

	task := &ScanTask{TrackableTask: NewTrackableTask("scan-executor")}
	for _, plan := range plans {
		if plan.Optimized() {
			task.log.Debugln(plan.DataTypeID(), plan.Requested.CompareType.Name(), "rewritten as", plan.Comparison.CompareType.Name())
		}
	}
	e := &executor{
		task:       task,
		reader:     reader,
		snap:       snap,
		params:     params,
		plans:      plans,
		dispatcher: dispatcher,
		opts:       opts,
	}
	go e.run()
	return task, nil
}

type executor struct {
	task       *ScanTask
	reader     process.MemoryReader
	snap       *snapshot.Snapshot
	params     scan_types.ScanParameters
	plans      []*scanners.ScanPlan
	dispatcher *scanners.Dispatcher
	opts       ExecutorOptions
}

func (e *executor) run() {
	t := e.task.TrackableTask
	t.start()
	start := time.Now()

	e.snap.Lock()
	defer e.snap.Unlock()

	regions := e.snap.Regions()
	newScan := !e.snap.HasScanResults()
	summary := ScanSummary{NewScan: newScan}

	scanRange := fullRange
	if e.params.ReadMode == scan_types.ReadBeforeScan {
		summary.Read = collectValues(t, e.reader, regions, e.opts.Collector, progressRange{from: 0, span: 50})
		scanRange = progressRange{from: 50, span: 50}
		if summary.Read.Interrupted {
			t.complete(true, nil)
			return
		}
	}

	t.log.Infoln("Scanning", len(regions), "regions for", e.params.Constraint().String(), "new scan:", newScan)

	staged := make([][]snapshot.FilterCollection, len(regions))
	complete := runUnits(t, len(regions), e.opts.Dispatcher.Workers, scanRange, func(i int) {
		region := regions[i]
		if e.params.ReadMode == scan_types.ReadInterleavedWithScan {
			readRegion(t, e.reader, region, e.opts.Collector)
		}
		collections := make([]snapshot.FilterCollection, 0, len(e.plans))
		for _, plan := range e.plans {
			input := e.inputFilters(region, plan, newScan)
			var output []snapshot.SnapshotRegionFilter
			if len(input) > 0 {
				output = e.dispatcher.ScanFilters(region, plan, input)
			}
			collections = append(collections, plan.NewFilterCollection(output))
		}
		staged[i] = collections
	})
	if !complete {
		t.log.Infoln("Scan cancelled, filters left unchanged")
		t.complete(true, nil)
		return
	}

	for i, region := range regions {
		region.SetCollections(staged[i])
		summary.Tombstoned += region.DropTombstonedFilters()
	}
	if summary.Tombstoned > 0 {
		t.log.Warn("Dropped ", summary.Tombstoned, " filters over unreadable memory")
	}
	e.snap.DiscardEmptyRegions()

	summary.PassID = e.snap.NewPassID()
	summary.PerType = e.snap.ResultCount()
	summary.ResultCount = e.snap.TotalResultCount()
	summary.Regions = e.snap.RegionCount()
	summary.Mismatches = e.dispatcher.Mismatches()
	summary.Duration = time.Since(start)

	e.snap.RecordPass(snapshot.ScanPass{
		ID:          summary.PassID,
		Parameters:  e.params,
		ResultCount: summary.ResultCount,
		Duration:    summary.Duration,
		Completed:   time.Now(),
	})

	e.task.mu.Lock()
	e.task.summary = summary
	e.task.mu.Unlock()

	if e.opts.Events != nil {
		e.opts.Events.Publish(ScanResultsUpdated{PassID: summary.PassID, ResultCount: summary.ResultCount, Time: time.Now()})
	}
	t.complete(false, nil)
}

// inputFilters returns the filters a plan narrows in region. A new scan
// starts from the whole region; later passes start from the last results.
func (e *executor) inputFilters(region *snapshot.SnapshotRegion, plan *scanners.ScanPlan, newScan bool) []snapshot.SnapshotRegionFilter {
	if newScan {
		if f, ok := region.WholeRegionFilter(plan.UnitSize, plan.Alignment); ok {
			return []snapshot.SnapshotRegionFilter{f}
		}
		return nil
	}
	if c := region.Collection(plan.DataTypeID()); c != nil {
		return c.Filters
	}
	return nil
}
