//go:build linux

package process_linux

import (
	"fmt"
	"unsafe"

	"memscan/process"
	"memscan/process/memory_map"

	"golang.org/x/sys/unix"
)

// process_vm_writev uses the process_vm_writev syscall to write memory to another process
func process_vm_writev(
	pid process.ProcessID,
	localBuf []byte,
	remoteAddr process.ProcessMemoryAddress,
) (int, error) {
	localIov := unix.Iovec{
		Base: &localBuf[0],
		Len:  uint64(len(localBuf)),
	}

	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_WRITEV,
		uintptr(pid),                        // Remote process PID
		uintptr(unsafe.Pointer(&localIov)),  // Local iovec
		uintptr(1),                          // Number of local iovecs
		uintptr(unsafe.Pointer(&remoteIov)), // Remote iovec
		uintptr(1),                          // Number of remote iovecs
		uintptr(0),                          // Flags (reserved for future use)
	)

	if errno != 0 {
		return 0, fmt.Errorf("process_vm_writev failed: %s (errno: %d)", errno.Error(), errno)
	}

	return int(n), nil
}

// WriteMemory writes data to the process memory at the specified address
func (p *LinuxProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	p.mu.Lock()
	pid := p.pid
	region := memory_map.GetMemoryRegionForAddress(uint64(addr), p.mm)
	var item memory_map.MemoryMapItem
	if region != nil {
		item = *region
	}
	p.mu.Unlock()

	if pid == 0 {
		return process.ErrProcessNotOpen
	}
	if region == nil {
		return fmt.Errorf("write 0x%x: %w", uint64(addr), process.ErrAddressNotMapped)
	}
	if !item.IsWritable() {
		return fmt.Errorf("write 0x%x: %w", uint64(addr), process.ErrNotWritable)
	}

	// Copy so the caller may reuse data while the syscall runs
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	written, err := process_vm_writev(pid, dataCopy, addr)
	if err != nil {
		return fmt.Errorf("failed to write process memory: %w", err)
	}

	if written != len(data) {
		return fmt.Errorf("write 0x%x: %w: only wrote %d of %d bytes", uint64(addr), process.ErrPartialRead, written, len(data))
	}

	return nil
}
