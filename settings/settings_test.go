package settings

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"memscan/scan_types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "auto", s.Scan.Alignment)
	assert.Equal(t, "0.001", s.Scan.Tolerance)
	assert.Equal(t, "read_before_scan", s.Scan.ReadMode)
	assert.Equal(t, runtime.NumCPU(), s.Scan.Workers)
	assert.Equal(t, uint64(1<<20), s.Scan.PartitionSize)
	assert.True(t, s.Scan.Vector)
	assert.Equal(t, "r", s.Memory.RequiredProtection)
	assert.True(t, s.Memory.IncludeShared)
	assert.Equal(t, uint64(64<<20), s.Memory.MaxRegionSize)
	assert.Equal(t, 16*1024, s.Memory.ReadChunkSize)
	assert.Equal(t, 22, s.Results.PageSize)
	assert.Equal(t, 64, s.Results.CachePages)

	p := s.ScanParameters(scan_types.ScanConstraint{CompareType: scan_types.CompareChanged}, "i32")
	assert.Equal(t, scan_types.AlignmentAuto, p.Alignment)
	assert.Equal(t, scan_types.DefaultTolerance, p.Tolerance)
	assert.Equal(t, []string{"i32"}, p.DataTypeIDs)
}

func TestFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memscan.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
scan:
  alignment: 1
  tolerance: "0.01"
  read_mode: interleaved
  validation_scan: true
memory:
  excluded_protection: x
results:
  page_size: 50
`), 0644))

	t.Setenv("MEMSCAN_SCAN_WORKERS", "3")
	t.Setenv("MEMSCAN_MEMORY_CHUNKED_READS", "true")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Scan.Workers)
	assert.True(t, s.Memory.ChunkedReads)
	assert.Equal(t, 50, s.ResolverOptions().PageSize)
	assert.Equal(t, "x", s.QueryOptions().ExcludedProtection)

	p := s.ScanParameters(scan_types.ScanConstraint{CompareType: scan_types.CompareChanged}, "u8")
	assert.Equal(t, scan_types.Alignment1, p.Alignment)
	assert.Equal(t, scan_types.ReadInterleavedWithScan, p.ReadMode)
	assert.True(t, p.ValidationScan)

	opts := s.ExecutorOptions()
	assert.Equal(t, 3, opts.Dispatcher.Workers)
	assert.True(t, opts.Collector.Chunked)
}

func TestInvalidSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memscan.yml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  alignment: 3\n  read_mode: sometimes\nmemory:\n  required_protection: q\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan.alignment")
	assert.Contains(t, err.Error(), "scan.read_mode")
	assert.Contains(t, err.Error(), "memory:")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
