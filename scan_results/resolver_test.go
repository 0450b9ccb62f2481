package scan_results

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"memscan/datatypes"
	"memscan/process"
	"memscan/process/memory_map"
	"memscan/process_blob"
	"memscan/scan_types"
	"memscan/snapshot"
	"memscan/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// scannedDump returns a dump holding 42 at three places and a snapshot
// whose last pass found exactly those
func scannedDump(t *testing.T) (*process_blob.ProcessDump, *snapshot.Snapshot) {
	t.Helper()
	dump := process_blob.NewProcessDump()
	require.NoError(t, dump.AddRegion(0x10000, make([]byte, 0x100), "rw-p", "/usr/bin/game"))
	require.NoError(t, dump.AddRegion(0x20000, make([]byte, 0x100), "rw-p", "[heap]"))
	for _, addr := range []uint64{0x10010, 0x10020, 0x20040} {
		require.NoError(t, dump.WriteMemory(process.ProcessMemoryAddress(addr), u32(42)))
	}

	snap, err := snapshot.NewSnapshotFromProcess(dump, memory_map.DefaultQueryOptions(), 0)
	require.NoError(t, err)

	v := scan_types.ParseAnonymousValue("42")
	params := scan_types.NewScanParameters(scan_types.ScanConstraint{CompareType: scan_types.CompareEqual, Value: &v}, "u32")
	task, err := tasks.StartScanExecutor(dump, snap, datatypes.NewRegistry(), params, tasks.DefaultExecutorOptions())
	require.NoError(t, err)
	require.NoError(t, task.WaitForCompletion())
	require.Equal(t, uint64(3), task.Summary().ResultCount)
	return dump, snap
}

func newResolver(t *testing.T, dump *process_blob.ProcessDump, snap *snapshot.Snapshot) *Resolver {
	t.Helper()
	r, err := NewResolver(snap, datatypes.NewRegistry(), dump, Options{PageSize: 2, CachePages: 4})
	require.NoError(t, err)
	return r
}

type brokenModules struct{}

func (brokenModules) GetModules() ([]memory_map.Module, error) {
	return nil, errors.New("module snapshot failed")
}

func TestResolverWithoutModules(t *testing.T) {
	_, snap := scannedDump(t)
	r, err := NewResolver(snap, datatypes.NewRegistry(), brokenModules{}, DefaultOptions())
	require.NoError(t, err)

	page, err := r.Page(0)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "0x10010", page[0].Location())
	assert.Empty(t, page[0].Module)
}

func TestPages(t *testing.T) {
	dump, snap := scannedDump(t)
	r := newResolver(t, dump, snap)

	pages, err := r.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 2, pages)

	first, err := r.Page(0)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "game+0x10", first[0].Location())
	assert.Equal(t, "game+0x20", first[1].Location())
	assert.Equal(t, uint64(1), first[1].Index)

	cur, prev := first[0].FormatValues(r.registry, scan_types.FormatDecimal)
	assert.Equal(t, "42", cur)
	assert.Equal(t, "42", prev)

	last, err := r.Result(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x20040), last.Address)
	assert.Equal(t, "0x20040", last.Location())

	_, err = r.Result(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	empty, err := r.Page(7)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRefreshAndSetValue(t *testing.T) {
	dump, snap := scannedDump(t)
	r := newResolver(t, dump, snap)

	require.NoError(t, dump.WriteMemory(0x10010, u32(43)))
	page, err := r.Refresh(dump, 0)
	require.NoError(t, err)
	cur, prev := page[0].FormatValues(r.registry, scan_types.FormatDecimal)
	assert.Equal(t, "43", cur)
	assert.Equal(t, "42", prev)

	// refreshed values are what the cache hands out next
	again, err := r.Page(0)
	require.NoError(t, err)
	assert.Equal(t, u32(43), again[0].Current.Bytes)

	last, err := r.Result(2)
	require.NoError(t, err)
	require.NoError(t, r.SetValue(dump, last, scan_types.ParseAnonymousValue("0x7")))
	got, err := dump.ReadMemory(0x20040, 4)
	require.NoError(t, err)
	assert.Equal(t, u32(7), got)

	assert.Error(t, r.SetValue(dump, last, scan_types.ParseAnonymousValue("not a number")))
}

func TestBusySnapshot(t *testing.T) {
	dump, snap := scannedDump(t)
	r := newResolver(t, dump, snap)

	snap.Lock()
	_, err := r.Page(0)
	assert.ErrorIs(t, err, snapshot.ErrSnapshotBusy)
	_, err = r.Count()
	assert.ErrorIs(t, err, snapshot.ErrSnapshotBusy)
	snap.Unlock()

	_, err = r.Page(0)
	assert.NoError(t, err)
}

func TestWatchPurgesCache(t *testing.T) {
	dump, snap := scannedDump(t)
	r := newResolver(t, dump, snap)
	bus := tasks.NewEventBus()
	stop := r.Watch(bus)
	defer stop()

	_, err := r.Page(0)
	require.NoError(t, err)
	require.Equal(t, 1, r.pages.Len())

	bus.Publish(tasks.ScanResultsUpdated{ResultCount: 3})
	assert.Eventually(t, func() bool { return r.pages.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}
