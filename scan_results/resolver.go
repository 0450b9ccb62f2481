package scan_results

import (
	"errors"
	"fmt"

	"memscan/datatypes"
	"memscan/process"
	"memscan/process/memory_map"
	"memscan/scan_types"
	"memscan/snapshot"
	"memscan/tasks"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	lru "github.com/hashicorp/golang-lru"
)

const (
	DefaultPageSize   = 22
	DefaultCachePages = 64
)

var ErrIndexOutOfRange = errors.New("result index out of range")

type Options struct {
	PageSize   int
	CachePages int
}

func DefaultOptions() Options {
	return Options{PageSize: DefaultPageSize, CachePages: DefaultCachePages}
}

// Resolver turns the filters of a snapshot into pages of ScanResults.
// Results are numbered in address order of their regions, then per data
// type collection, then per element. Pages are cached until Invalidate.
type Resolver struct {
	snap     *snapshot.Snapshot
	registry *datatypes.Registry
	modules  []memory_map.Module
	pageSize int
	pages    *lru.Cache

	log *logger.Logger
}

// NewResolver creates a resolver over snap. modules may be nil; results are
// then reported by absolute address only.
func NewResolver(snap *snapshot.Snapshot, registry *datatypes.Registry, modules process.ModuleLister, opts Options) (*Resolver, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.CachePages <= 0 {
		opts.CachePages = DefaultCachePages
	}
	pages, err := lru.New(opts.CachePages)
	if err != nil {
		return nil, fmt.Errorf("page cache: %w", err)
	}

	r := &Resolver{
		snap:     snap,
		registry: registry,
		pageSize: opts.PageSize,
		pages:    pages,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "scan-results")),
	}
	if modules != nil {
		list, err := modules.GetModules()
		if err != nil {
			r.log.Warn("Module list unavailable: ", err)
		}
		r.modules = list
	}
	return r, nil
}

func (r *Resolver) PageSize() int {
	return r.pageSize
}

// Invalidate drops every cached page
func (r *Resolver) Invalidate() {
	r.pages.Purge()
}

// Watch purges the page cache whenever a scan pass commits new results.
// The returned func stops watching.
func (r *Resolver) Watch(bus *tasks.EventBus) func() {
	events, cancel := bus.Subscribe()
	go func() {
		for e := range events {
			if updated, ok := e.(tasks.ScanResultsUpdated); ok {
				r.log.Debugln("Results updated by pass", updated.PassID.String(), "count", updated.ResultCount)
				r.Invalidate()
			}
		}
	}()
	return cancel
}

// rlock fails instead of waiting while a scan or value collection holds the snapshot
func (r *Resolver) rlock() error {
	if !r.snap.TryRLock() {
		r.log.Warn("Snapshot busy, results unavailable until the running task completes")
		return snapshot.ErrSnapshotBusy
	}
	return nil
}

// Count is the total number of results
func (r *Resolver) Count() (uint64, error) {
	if err := r.rlock(); err != nil {
		return 0, err
	}
	defer r.snap.RUnlock()
	return r.snap.TotalResultCount(), nil
}

// PageCount is the number of pages needed for all results
func (r *Resolver) PageCount() (int, error) {
	count, err := r.Count()
	if err != nil {
		return 0, err
	}
	return int((count + uint64(r.pageSize) - 1) / uint64(r.pageSize)), nil
}

// Page returns the results of page n, counting from zero. A page past the
// end is empty.
func (r *Resolver) Page(n int) ([]ScanResult, error) {
	if n < 0 {
		return nil, fmt.Errorf("page %d: %w", n, ErrIndexOutOfRange)
	}
	if cached, ok := r.pages.Get(n); ok {
		return clonePage(cached.([]ScanResult)), nil
	}

	if err := r.rlock(); err != nil {
		return nil, err
	}
	results := r.collect(uint64(n)*uint64(r.pageSize), r.pageSize)
	r.snap.RUnlock()

	r.pages.Add(n, results)
	return clonePage(results), nil
}

// Result returns a single result by index
func (r *Resolver) Result(index uint64) (ScanResult, error) {
	page, err := r.Page(int(index / uint64(r.pageSize)))
	if err != nil {
		return ScanResult{}, err
	}
	i := int(index % uint64(r.pageSize))
	if i >= len(page) {
		return ScanResult{}, fmt.Errorf("result %d: %w", index, ErrIndexOutOfRange)
	}
	return page[i], nil
}

// collect resolves up to limit results starting at index first. The caller
// holds the read lock.
func (r *Resolver) collect(first uint64, limit int) []ScanResult {
	var results []ScanResult
	skip := first
	for _, region := range r.snap.Regions() {
		for _, c := range region.Collections() {
			n := c.ElementCount()
			if skip >= n {
				skip -= n
				continue
			}
			for i := skip; i < n && len(results) < limit; i++ {
				address, _ := c.Element(i)
				results = append(results, r.resolve(first+uint64(len(results)), region, c, address))
			}
			skip = 0
			if len(results) == limit {
				return results
			}
		}
	}
	return results
}

func (r *Resolver) resolve(index uint64, region *snapshot.SnapshotRegion, c snapshot.FilterCollection, address uint64) ScanResult {
	result := ScanResult{Index: index, Address: address, DataTypeID: c.DataTypeID}
	if module, offset, ok := memory_map.AddressToModule(address, r.modules); ok {
		result.Module = module.Name
		result.ModuleOffset = offset
	}

	off := region.Offset(address)
	size := c.UnitSize
	if cur := region.CurrentValues(); off+size <= len(cur) {
		v := datatypes.NewDataValue(c.DataTypeID, cur[off:off+size])
		result.Current = &v
	}
	if prev := region.PreviousValues(); off+size <= len(prev) {
		v := datatypes.NewDataValue(c.DataTypeID, prev[off:off+size])
		result.Previous = &v
	}
	return result
}

// Refresh re-reads the current value of every result in page n straight
// from the process. The snapshot is not touched; results that can no longer
// be read keep no current value.
func (r *Resolver) Refresh(reader process.MemoryReader, n int) ([]ScanResult, error) {
	page, err := r.Page(n)
	if err != nil {
		return nil, err
	}
	for i := range page {
		res := &page[i]
		size := r.unitSize(res)
		if size == 0 {
			continue
		}
		buf := make([]byte, size)
		if err := reader.ReadMemoryInto(process.ProcessMemoryAddress(res.Address), buf); err != nil {
			r.log.Debugln("Refresh failed for", res.Location(), err)
			res.Current = nil
			continue
		}
		v := datatypes.DataValue{DataTypeID: res.DataTypeID, Bytes: buf}
		res.Current = &v
	}
	r.pages.Add(n, clonePage(page))
	return page, nil
}

func (r *Resolver) unitSize(res *ScanResult) int {
	if res.Current != nil {
		return res.Current.Size()
	}
	if res.Previous != nil {
		return res.Previous.Size()
	}
	if dt, err := r.registry.Get(res.DataTypeID); err == nil {
		return dt.UnitSize()
	}
	return 0
}

// SetValue parses value as the result's data type and writes it to the process
func (r *Resolver) SetValue(writer process.MemoryWriter, result ScanResult, value scan_types.AnonymousValue) error {
	dt, err := r.registry.Get(result.DataTypeID)
	if err != nil {
		return err
	}
	dv, err := dt.Parse(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", result.Location(), err)
	}
	if err := writer.WriteMemory(process.ProcessMemoryAddress(result.Address), dv.Bytes); err != nil {
		return fmt.Errorf("set %s: %w", result.Location(), err)
	}
	r.log.Infoln("Wrote", value.String(), "as", result.DataTypeID, "to", result.Location())
	r.pages.Remove(int(result.Index / uint64(r.pageSize)))
	return nil
}

func clonePage(page []ScanResult) []ScanResult {
	out := make([]ScanResult, len(page))
	copy(out, page)
	return out
}
