//go:build windows

package process_windows

import (
	"fmt"
	"sync"

	"memscan/process"
	"memscan/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

const processAccess = windows.PROCESS_VM_READ |
	windows.PROCESS_VM_WRITE |
	windows.PROCESS_VM_OPERATION |
	windows.PROCESS_QUERY_INFORMATION

// WindowsProcess implements the process.Process interface for Windows systems
type WindowsProcess struct {
	pid    process.ProcessID
	name   string
	handle windows.Handle
	log    *logger.Logger
	mm     []memory_map.MemoryMapItem
	mu     sync.Mutex
}

var _ process.Process = (*WindowsProcess)(nil)

// New creates a new WindowsProcess instance
func New() *WindowsProcess {
	return &WindowsProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
}

// NewWithPID creates a new WindowsProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (*WindowsProcess, error) {
	p := New()
	if err := p.Open(pid); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *WindowsProcess) Open(pid process.ProcessID) error {
	handle, err := windows.OpenProcess(processAccess, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess %d: %w", pid, err)
	}

	name := ""
	if info, err := NewProcessFinder().FindProcessByPID(pid); err == nil {
		name = info.Name
	}

	p.mu.Lock()
	if p.handle != 0 {
		windows.CloseHandle(p.handle)
	}
	p.pid = pid
	p.name = name
	p.handle = handle
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))
	p.mu.Unlock()

	if err := p.UpdateMemoryMap(); err != nil {
		p.log.Warn("Failed to initialize memory map: ", err)
	}

	p.log.Infoln("Process opened", name)
	return nil
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != 0 {
		if err := windows.CloseHandle(p.handle); err != nil {
			return fmt.Errorf("CloseHandle: %w", err)
		}
		p.handle = 0
	}

	p.log.Infoln("Process closed")
	p.pid = 0
	p.name = ""
	p.mm = nil
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))
	return nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *WindowsProcess) GetName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *WindowsProcess) openHandle() (windows.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == 0 {
		return 0, process.ErrProcessNotOpen
	}
	return p.handle, nil
}

func (p *WindowsProcess) UpdateMemoryMap() error {
	handle, err := p.openHandle()
	if err != nil {
		return err
	}

	mm := memory_map.QueryMemoryMap(handle)

	p.mu.Lock()
	p.mm = mm
	p.mu.Unlock()
	return nil
}

func (p *WindowsProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if item := memory_map.GetMemoryRegionForAddress(uint64(addr), p.mm); item != nil {
		return item.IsReadable()
	}
	return false
}

func (p *WindowsProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == 0 {
		return nil, process.ErrProcessNotOpen
	}
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

// ReadMemoryInto reads len(buf) bytes at addr directly into buf
func (p *WindowsProcess) ReadMemoryInto(addr process.ProcessMemoryAddress, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	handle, err := p.openHandle()
	if err != nil {
		return err
	}

	var n uintptr
	err = windows.ReadProcessMemory(handle, uintptr(addr), &buf[0], uintptr(len(buf)), &n)
	if n != 0 && n < uintptr(len(buf)) {
		return fmt.Errorf("read 0x%x: %w: %d of %d bytes", uint64(addr), process.ErrPartialRead, n, len(buf))
	}
	if err != nil {
		return fmt.Errorf("read 0x%x: %w", uint64(addr), err)
	}
	return nil
}

func (p *WindowsProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if !p.IsValidAddress(addr) {
		if _, err := p.openHandle(); err != nil {
			return nil, err
		}
		return nil, process.ErrAddressNotMapped
	}
	buf := make([]byte, size)
	if err := p.ReadMemoryInto(addr, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteMemory writes data to the process memory at the specified address
func (p *WindowsProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	handle, err := p.openHandle()
	if err != nil {
		return err
	}

	p.mu.Lock()
	region := memory_map.GetMemoryRegionForAddress(uint64(addr), p.mm)
	writable := region != nil && region.IsWritable()
	p.mu.Unlock()

	if region == nil {
		return fmt.Errorf("write 0x%x: %w", uint64(addr), process.ErrAddressNotMapped)
	}
	if !writable {
		return fmt.Errorf("write 0x%x: %w", uint64(addr), process.ErrNotWritable)
	}

	var n uintptr
	if err := windows.WriteProcessMemory(handle, uintptr(addr), &data[0], uintptr(len(data)), &n); err != nil {
		return fmt.Errorf("WriteProcessMemory 0x%x: %w", uint64(addr), err)
	}
	if n != uintptr(len(data)) {
		return fmt.Errorf("write 0x%x: %w: only wrote %d of %d bytes", uint64(addr), process.ErrPartialRead, n, len(data))
	}
	return nil
}
