// Package settings loads the scan, memory and results configuration from
// defaults, an optional YAML file and MEMSCAN_ environment variables.
package settings

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"memscan/process/memory_map"
	"memscan/scan_results"
	"memscan/scan_types"
	"memscan/scanners"
	"memscan/snapshot"
	"memscan/tasks"

	"github.com/spf13/viper"
)

const EnvPrefix = "MEMSCAN"

type Scan struct {
	Alignment      string `mapstructure:"alignment"`
	Tolerance      string `mapstructure:"tolerance"`
	ReadMode       string `mapstructure:"read_mode"`
	SingleThreaded bool   `mapstructure:"single_threaded"`
	ValidationScan bool   `mapstructure:"validation_scan"`
	Workers        int    `mapstructure:"workers"`
	PartitionSize  uint64 `mapstructure:"partition_size"`
	Vector         bool   `mapstructure:"vector"`
}

type Memory struct {
	RequiredProtection string `mapstructure:"required_protection"`
	ExcludedProtection string `mapstructure:"excluded_protection"`
	StartAddress       uint64 `mapstructure:"start_address"`
	EndAddress         uint64 `mapstructure:"end_address"` // 0 means no upper bound
	IncludeShared      bool   `mapstructure:"include_shared"`
	MaxRegionSize      uint64 `mapstructure:"max_region_size"`
	ChunkedReads       bool   `mapstructure:"chunked_reads"`
	ReadChunkSize      int    `mapstructure:"read_chunk_size"`
}

type Results struct {
	PageSize   int `mapstructure:"page_size"`
	CachePages int `mapstructure:"cache_pages"`
}

type Log struct {
	Debug bool `mapstructure:"debug"`
}

type Settings struct {
	Scan    Scan    `mapstructure:"scan"`
	Memory  Memory  `mapstructure:"memory"`
	Results Results `mapstructure:"results"`
	Log     Log     `mapstructure:"log"`
}

// SetDefaults registers every key with its default value on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scan.alignment", scan_types.AlignmentAuto.String())
	v.SetDefault("scan.tolerance", scan_types.DefaultTolerance.String())
	v.SetDefault("scan.read_mode", scan_types.ReadBeforeScan.String())
	v.SetDefault("scan.single_threaded", false)
	v.SetDefault("scan.validation_scan", false)
	v.SetDefault("scan.workers", runtime.NumCPU())
	v.SetDefault("scan.partition_size", scanners.DefaultPartitionSize)
	v.SetDefault("scan.vector", true)

	v.SetDefault("memory.required_protection", "r")
	v.SetDefault("memory.excluded_protection", "")
	v.SetDefault("memory.start_address", 0)
	v.SetDefault("memory.end_address", 0)
	v.SetDefault("memory.include_shared", true)
	v.SetDefault("memory.max_region_size", 64<<20)
	v.SetDefault("memory.chunked_reads", false)
	v.SetDefault("memory.read_chunk_size", snapshot.DefaultReadChunkSize)

	v.SetDefault("results.page_size", scan_results.DefaultPageSize)
	v.SetDefault("results.cache_pages", scan_results.DefaultCachePages)

	v.SetDefault("log.debug", false)
}

// New returns a viper instance with defaults and environment overrides set
// up. MEMSCAN_SCAN_WORKERS overrides scan.workers and so on.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, if given, on top of the defaults
func Load(path string) (*Settings, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v
func FromViper(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	var errs []error
	if _, err := scan_types.ParseMemoryAlignment(s.Scan.Alignment); err != nil {
		errs = append(errs, fmt.Errorf("scan.alignment: %w", err))
	}
	if _, err := scan_types.ParseFloatingPointTolerance(s.Scan.Tolerance); err != nil {
		errs = append(errs, fmt.Errorf("scan.tolerance: %w", err))
	}
	if _, err := scan_types.ParseMemoryReadMode(s.Scan.ReadMode); err != nil {
		errs = append(errs, fmt.Errorf("scan.read_mode: %w", err))
	}
	if s.Scan.Workers < 0 {
		errs = append(errs, fmt.Errorf("scan.workers: %d is negative", s.Scan.Workers))
	}
	if err := s.QueryOptions().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	}
	if s.Results.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("results.page_size: %d is not positive", s.Results.PageSize))
	}
	return errors.Join(errs...)
}

// QueryOptions selects the regions a snapshot is built from
func (s *Settings) QueryOptions() memory_map.QueryOptions {
	return memory_map.QueryOptions{
		RequiredProtection: s.Memory.RequiredProtection,
		ExcludedProtection: s.Memory.ExcludedProtection,
		StartAddress:       s.Memory.StartAddress,
		EndAddress:         s.Memory.EndAddress,
		IncludeShared:      s.Memory.IncludeShared,
	}
}

// ScanParameters applies the configured scan options to a constraint
func (s *Settings) ScanParameters(constraint scan_types.ScanConstraint, dataTypeIDs ...string) scan_types.ScanParameters {
	p := scan_types.NewScanParameters(constraint, dataTypeIDs...)
	// validated on load
	p.Alignment, _ = scan_types.ParseMemoryAlignment(s.Scan.Alignment)
	p.Tolerance, _ = scan_types.ParseFloatingPointTolerance(s.Scan.Tolerance)
	p.ReadMode, _ = scan_types.ParseMemoryReadMode(s.Scan.ReadMode)
	p.IsSingleThreaded = s.Scan.SingleThreaded
	p.ValidationScan = s.Scan.ValidationScan
	return p
}

func (s *Settings) ExecutorOptions() tasks.ExecutorOptions {
	opts := tasks.DefaultExecutorOptions()
	opts.Dispatcher.Workers = s.Scan.Workers
	opts.Dispatcher.PartitionSize = s.Scan.PartitionSize
	opts.Dispatcher.Vector = s.Scan.Vector
	opts.Collector = s.CollectorOptions()
	return opts
}

func (s *Settings) CollectorOptions() tasks.CollectorOptions {
	return tasks.CollectorOptions{
		Workers:   s.Scan.Workers,
		Chunked:   s.Memory.ChunkedReads,
		ChunkSize: s.Memory.ReadChunkSize,
	}
}

func (s *Settings) ResolverOptions() scan_results.Options {
	return scan_results.Options{PageSize: s.Results.PageSize, CachePages: s.Results.CachePages}
}
