//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"sync"

	"memscan/process"
	"memscan/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LinuxProcess implements the process.Process interface for Linux systems
type LinuxProcess struct {
	pid  process.ProcessID
	name string
	log  *logger.Logger
	mm   []memory_map.MemoryMapItem
	mu   sync.Mutex
}

var _ process.Process = (*LinuxProcess)(nil)

// New creates a new LinuxProcess instance
func New() *LinuxProcess {
	return &LinuxProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
}

// NewWithPID creates a new LinuxProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (*LinuxProcess, error) {
	p := New()
	if err := p.Open(pid); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *LinuxProcess) Open(pid process.ProcessID) error {
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return fmt.Errorf("pid %d: %w", pid, process.ErrProcessNotFound)
	}

	name := ""
	if info, err := readProcessInfo(procPath, pid); err == nil {
		name = info.Name
	}

	p.mu.Lock()
	p.pid = pid
	p.name = name
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))
	p.mu.Unlock()

	if err := p.UpdateMemoryMap(); err != nil {
		return fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.log.Infoln("Process opened", name)

	return nil
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.Infoln("Closing process")

	p.pid = 0
	p.name = ""
	p.mm = nil

	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *LinuxProcess) GetName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *LinuxProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()
	if pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.NewLinuxMemoryMap().ReadMemoryMap(int(pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	p.mu.Lock()
	p.mm = mm
	p.mu.Unlock()
	return nil
}

func (p *LinuxProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.isValidAddressInternal(addr)
}

// Internal helper function that assumes the mutex is already locked
func (p *LinuxProcess) isValidAddressInternal(addr process.ProcessMemoryAddress) bool {
	if addr <= 0x10000 {
		return false
	}

	if item := memory_map.GetMemoryRegionForAddress(uint64(addr), p.mm); item != nil {
		return item.IsReadable()
	}

	return false
}

func (p *LinuxProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	// Make a copy of the memory map to prevent external modification
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)

	return result, nil
}

// GetModules derives the loaded images from the file-backed mappings
func (p *LinuxProcess) GetModules() ([]memory_map.Module, error) {
	mm, err := p.GetMemoryMap()
	if err != nil {
		return nil, err
	}
	return memory_map.ModulesFromMap(mm), nil
}
