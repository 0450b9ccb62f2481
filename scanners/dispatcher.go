package scanners

import (
	"runtime"
	"sync"
	"sync/atomic"

	"memscan/snapshot"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// DefaultPartitionSize is the filter size above which a filter is split across workers
const DefaultPartitionSize = 1 << 20

type DispatcherOptions struct {
	// Vector enables the vector scanner for filters at least one lane wide
	Vector bool
	// LaneWidth overrides the detected vector width when non-zero
	LaneWidth int
	// PartitionSize caps the bytes one encoder handles; 0 disables partitioning
	PartitionSize uint64
	// Workers bounds how many partitions run at once
	Workers int
	// SingleThreaded scans every filter inline with the scalar scanner
	SingleThreaded bool
	// ValidationScan re-scans each region with the scalar scanner and compares
	ValidationScan bool
}

func DefaultDispatcherOptions() DispatcherOptions {
	return DispatcherOptions{
		Vector:        true,
		PartitionSize: DefaultPartitionSize,
		Workers:       runtime.NumCPU(),
	}
}

// Dispatcher picks a scanner for every filter of a region and stitches the
// outputs back together
type Dispatcher struct {
	opts   DispatcherOptions
	vector VectorScanner
	sem    chan struct{}
	log    *logger.Logger

	mismatches atomic.Int64
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.LaneWidth == 0 {
		opts.LaneWidth = DetectLaneWidth()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Dispatcher{
		opts:   opts,
		vector: VectorScanner{LaneWidth: opts.LaneWidth},
		sem:    make(chan struct{}, opts.Workers),
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "dispatcher")),
	}
}

func (d *Dispatcher) Options() DispatcherOptions {
	return d.opts
}

// Mismatches is the number of regions where the validation scan disagreed
func (d *Dispatcher) Mismatches() int64 {
	return d.mismatches.Load()
}

// ScannerFor returns the scanner used for a filter
func (d *Dispatcher) ScannerFor(filter snapshot.SnapshotRegionFilter, plan *ScanPlan) Scanner {
	if d.opts.SingleThreaded || !d.opts.Vector {
		return ScalarScanner{}
	}
	if filter.Size < uint64(d.opts.LaneWidth) || plan.Vector(d.opts.LaneWidth) == nil {
		return ScalarScanner{}
	}
	return d.vector
}

// ScanRegion scans the region's filters for plan's data type and returns the
// surviving filters in address order. A region lacking the values the plan
// compares keeps no filters.
func (d *Dispatcher) ScanRegion(region *snapshot.SnapshotRegion, plan *ScanPlan) []snapshot.SnapshotRegionFilter {
	collection := region.Collection(plan.DataTypeID())
	if collection == nil {
		return nil
	}
	return d.ScanFilters(region, plan, collection.Filters)
}

// ScanFilters scans the given address ordered filters of region
func (d *Dispatcher) ScanFilters(region *snapshot.SnapshotRegion, plan *ScanPlan, filters []snapshot.SnapshotRegionFilter) []snapshot.SnapshotRegionFilter {
	if len(filters) == 0 {
		return nil
	}
	if !Scannable(region, plan) {
		d.log.Debugln("Region", region.String(), "has no values to compare, dropping its filters")
		return nil
	}

	var parts []snapshot.SnapshotRegionFilter
	for _, f := range filters {
		parts = append(parts, Partition(f, plan.UnitSize, plan.Alignment, d.opts.PartitionSize)...)
	}

	outputs := make([][]snapshot.SnapshotRegionFilter, len(parts))
	var wg sync.WaitGroup
	for i, part := range parts {
		run := func(i int, part snapshot.SnapshotRegionFilter) {
			outputs[i] = d.ScannerFor(part, plan).ScanFilter(region, part, plan)
		}

		// partitions borrow idle workers; when none is free they run inline
		if !d.opts.SingleThreaded && len(parts) > 1 {
			select {
			case d.sem <- struct{}{}:
				wg.Add(1)
				go func(i int, part snapshot.SnapshotRegionFilter) {
					defer func() {
						<-d.sem
						wg.Done()
					}()
					run(i, part)
				}(i, part)
				continue
			default:
			}
		}
		run(i, part)
	}
	wg.Wait()

	var result []snapshot.SnapshotRegionFilter
	for _, out := range outputs {
		result = append(result, out...)
	}
	result = Coalesce(result, plan.UnitSize, plan.Alignment)

	if d.opts.ValidationScan {
		d.validate(region, filters, plan, result)
	}
	return result
}

func (d *Dispatcher) validate(region *snapshot.SnapshotRegion, input []snapshot.SnapshotRegionFilter, plan *ScanPlan, got []snapshot.SnapshotRegionFilter) {
	var want []snapshot.SnapshotRegionFilter
	naive := ScalarScanner{}
	for _, f := range input {
		want = append(want, naive.ScanFilter(region, f, plan)...)
	}
	want = Coalesce(want, plan.UnitSize, plan.Alignment)

	if i, ok := firstDifference(want, got); !ok {
		d.mismatches.Add(1)
		d.log.Warn("Validation scan mismatch in region ", region.String(), " for ", plan.DataTypeID(), " at filter ", i,
			": scalar ", filterAt(want, i), ", dispatched ", filterAt(got, i))
	}
}

func firstDifference(a, b []snapshot.SnapshotRegionFilter) (int, bool) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return i, false
		}
	}
	if len(a) != len(b) {
		return min(len(a), len(b)), false
	}
	return 0, true
}

func filterAt(filters []snapshot.SnapshotRegionFilter, i int) string {
	if i < len(filters) {
		return filters[i].String()
	}
	return "none"
}
