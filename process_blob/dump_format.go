package process_blob

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"memscan/process"
	"memscan/process/memory_map"

	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/klauspost/compress/zstd"
)

const (
	metadataFile  = "metadata.json"
	memoryMapFile = "process_memory_map.json"

	// regions above this are not written to a dump
	maxBlobSize = 100 * 1024 * 1024
)

var (
	// encoder and decoder for zstd are reusable and thread-safe
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Metadata is the metadata.json document of a dump directory
type Metadata struct {
	PID   process.ProcessID `json:"pid"`
	Name  string            `json:"name"`
	Saved time.Time         `json:"saved,omitempty"`
}

// DumpStats summarizes one WriteDump call
type DumpStats struct {
	Saved             int
	SkippedUnreadable int
	SkippedTooLarge   int
	ReadErrors        int
	Bytes             uint64
}

// BlobName is the file a region's bytes are stored in
func BlobName(address uint64, size uint, compressed bool) string {
	name := fmt.Sprintf("blob_0x%x_%d.bin", address, size)
	if compressed {
		name += ".zst"
	}
	return name
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteDump writes metadata, the memory map and one zstd compressed blob per
// readable region. Regions that fail to read are logged and skipped.
func WriteDump(dirname string, meta Metadata, mm []memory_map.MemoryMapItem, reader process.MemoryReader, log *logger.Logger) (DumpStats, error) {
	var stats DumpStats

	if err := os.MkdirAll(dirname, 0755); err != nil {
		return stats, fmt.Errorf("failed to create directory: %w", err)
	}

	if meta.Saved.IsZero() {
		meta.Saved = time.Now().UTC()
	}
	if err := writeJSON(filepath.Join(dirname, metadataFile), meta); err != nil {
		return stats, err
	}
	if err := writeJSON(filepath.Join(dirname, memoryMapFile), mm); err != nil {
		return stats, err
	}

	for _, region := range mm {
		if !region.IsReadable() {
			stats.SkippedUnreadable++
			continue
		}
		if region.Size > maxBlobSize {
			log.Infoln("Skipping large region at", fmt.Sprintf("%x", region.Address), "(size:", region.Size/1024/1024, "MB)")
			stats.SkippedTooLarge++
			continue
		}

		data := make([]byte, region.Size)
		if err := reader.ReadMemoryInto(process.ProcessMemoryAddress(region.Address), data); err != nil {
			log.Debugln("Failed to read memory region at", fmt.Sprintf("%x", region.Address), ":", err)
			stats.ReadErrors++
			continue
		}

		compressed := zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/4))
		filename := filepath.Join(dirname, BlobName(region.Address, region.Size, true))
		if err := os.WriteFile(filename, compressed, 0644); err != nil {
			return stats, fmt.Errorf("failed to write blob %s: %w", filename, err)
		}
		stats.Saved++
		stats.Bytes += uint64(len(data))
	}

	log.Infoln("Process dump saved:", stats.Saved, "regions,", stats.Bytes, "bytes,", stats.ReadErrors, "read errors")
	return stats, nil
}

// ReadMetadata loads metadata.json from a dump directory
func ReadMetadata(dirname string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(filepath.Join(dirname, metadataFile))
	if err != nil {
		return meta, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return meta, nil
}

// ReadMemoryMapFile loads process_memory_map.json from a dump directory
func ReadMemoryMapFile(dirname string) ([]memory_map.MemoryMapItem, error) {
	data, err := os.ReadFile(filepath.Join(dirname, memoryMapFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read memory map: %w", err)
	}
	var mm []memory_map.MemoryMapItem
	if err := json.Unmarshal(data, &mm); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memory map: %w", err)
	}
	memory_map.Sort(mm)
	return mm, nil
}

// readBlob loads a region's bytes, preferring the compressed file. A region
// without any blob returns os.ErrNotExist.
func readBlob(dirname string, region memory_map.MemoryMapItem) ([]byte, error) {
	compressed := filepath.Join(dirname, BlobName(region.Address, region.Size, true))
	data, err := os.ReadFile(compressed)
	if err == nil {
		out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, region.Size))
		if err != nil {
			return nil, fmt.Errorf("failed to decompress blob %s: %w", compressed, err)
		}
		return out, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read blob %s: %w", compressed, err)
	}

	raw := filepath.Join(dirname, BlobName(region.Address, region.Size, false))
	data, err = os.ReadFile(raw)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", raw, err)
	}
	return data, nil
}
