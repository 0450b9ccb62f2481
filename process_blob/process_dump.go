package process_blob

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"memscan/process"
	"memscan/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// ProcessDump implements process.Process over saved or synthesized memory.
// It stands in for a live target in offline analysis and in tests.
type ProcessDump struct {
	PID       process.ProcessID
	Name      string
	MemoryMap []memory_map.MemoryMapItem
	Blobs     map[uint64][]byte // region address -> data

	log *logger.Logger
	mu  sync.RWMutex
}

var _ process.Process = (*ProcessDump)(nil)

// NewProcessDump creates a new ProcessDump instance
func NewProcessDump() *ProcessDump {
	return &ProcessDump{
		Blobs: make(map[uint64][]byte),
		log:   logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "process-dump")),
	}
}

// AddRegion maps data at address. The map stays sorted; regions must not overlap.
func (p *ProcessDump) AddRegion(address uint64, data []byte, perms, pathname string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	item := memory_map.MemoryMapItem{Address: address, Size: uint(len(data)), Perms: perms, Pathname: pathname}
	for _, existing := range p.MemoryMap {
		if item.Address < existing.End() && existing.Address < item.End() {
			return fmt.Errorf("region 0x%x-0x%x overlaps 0x%x-0x%x", item.Address, item.End(), existing.Address, existing.End())
		}
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	p.MemoryMap = append(p.MemoryMap, item)
	p.Blobs[address] = buf
	memory_map.Sort(p.MemoryMap)
	return nil
}

// RemoveRegion unmaps the region starting at address, as if it had been freed
func (p *ProcessDump) RemoveRegion(address uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, item := range p.MemoryMap {
		if item.Address == address {
			p.MemoryMap = append(p.MemoryMap[:i], p.MemoryMap[i+1:]...)
			break
		}
	}
	delete(p.Blobs, address)
}

func (p *ProcessDump) Open(pid process.ProcessID) error {
	return fmt.Errorf("Open not supported for ProcessDump, use Load")
}

func (p *ProcessDump) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Blobs = make(map[uint64][]byte)
	p.MemoryMap = nil
	return nil
}

func (p *ProcessDump) GetPID() process.ProcessID {
	return p.PID
}

func (p *ProcessDump) GetName() string {
	return p.Name
}

func (p *ProcessDump) UpdateMemoryMap() error {
	return nil // Memory map is static in a dump
}

func (p *ProcessDump) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return memory_map.IsValidAddress(uint64(addr), p.MemoryMap)
}

func (p *ProcessDump) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make([]memory_map.MemoryMapItem, len(p.MemoryMap))
	copy(result, p.MemoryMap)
	return result, nil
}

func (p *ProcessDump) GetModules() ([]memory_map.Module, error) {
	mm, err := p.GetMemoryMap()
	if err != nil {
		return nil, err
	}
	return memory_map.ModulesFromMap(mm), nil
}

// transfer walks the regions covering [addr, addr+len(buf)) and hands each
// piece to fn. Reads may span adjacent regions like they do in a live process.
func (p *ProcessDump) transfer(addr uint64, n int, fn func(blob []byte, off uint64, done int, size int)) error {
	done := 0
	for done < n {
		cur := addr + uint64(done)
		region := memory_map.GetMemoryRegionForAddress(cur, p.MemoryMap)
		if region == nil {
			return p.shortTransfer(addr, done, n)
		}
		data, ok := p.Blobs[region.Address]
		if !ok {
			return p.shortTransfer(addr, done, n)
		}
		off := cur - region.Address
		if off >= uint64(len(data)) {
			return p.shortTransfer(addr, done, n)
		}
		size := n - done
		if avail := len(data) - int(off); size > avail {
			size = avail
		}
		fn(data, off, done, size)
		done += size
	}
	return nil
}

func (p *ProcessDump) shortTransfer(addr uint64, done, n int) error {
	if done == 0 {
		return fmt.Errorf("0x%x: %w", addr, process.ErrAddressNotMapped)
	}
	return fmt.Errorf("0x%x: %w: %d of %d bytes", addr, process.ErrPartialRead, done, n)
}

func (p *ProcessDump) ReadMemoryInto(addr process.ProcessMemoryAddress, buf []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.transfer(uint64(addr), len(buf), func(blob []byte, off uint64, done, size int) {
		copy(buf[done:done+size], blob[off:])
	})
}

func (p *ProcessDump) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	result := make([]byte, size)
	if err := p.ReadMemoryInto(addr, result); err != nil {
		return nil, err
	}
	return result, nil
}

// WriteMemory patches the dump in place. Permissions are not enforced so tests
// can change read-only data between scans.
func (p *ProcessDump) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// check the whole range first so a failed write changes nothing
	if err := p.transfer(uint64(addr), len(data), func([]byte, uint64, int, int) {}); err != nil {
		return err
	}
	return p.transfer(uint64(addr), len(data), func(blob []byte, off uint64, done, size int) {
		copy(blob[off:], data[done:done+size])
	})
}

// Save writes the dump back out in the current directory format
func (p *ProcessDump) Save(dirname string) error {
	meta := Metadata{PID: p.PID, Name: p.Name}
	mm, _ := p.GetMemoryMap()
	_, err := WriteDump(dirname, meta, mm, p, p.log)
	return err
}

// Load reads a dump directory. Compressed and raw blobs are both accepted;
// regions without a blob stay mapped but unreadable.
func (p *ProcessDump) Load(dirname string) error {
	meta, err := ReadMetadata(dirname)
	if err != nil {
		return err
	}
	mm, err := ReadMemoryMapFile(dirname)
	if err != nil {
		return err
	}

	blobs := make(map[uint64][]byte)
	for _, region := range mm {
		data, err := readBlob(dirname, region)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue // Blob not saved (e.g. too large or not readable)
			}
			return err
		}
		blobs[region.Address] = data
	}

	p.mu.Lock()
	p.PID = meta.PID
	p.Name = meta.Name
	p.MemoryMap = mm
	p.Blobs = blobs
	p.mu.Unlock()

	p.log.Infoln("Loaded dump", dirname, "with", len(blobs), "of", len(mm), "regions")
	return nil
}
