//go:build linux

package process_linux

import (
	"fmt"
	"unsafe"

	"memscan/process"

	"golang.org/x/sys/unix"
)

// process_vm_readv uses the process_vm_readv syscall to read memory from another process
func process_vm_readv(
	pid process.ProcessID,
	localBuf []byte,
	remoteAddr process.ProcessMemoryAddress,
) (int, error) {
	if len(localBuf) == 0 {
		return 0, nil
	}

	localIov := unix.Iovec{
		Base: &localBuf[0],
		Len:  uint64(len(localBuf)),
	}

	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_READV,
		uintptr(pid),                        // Remote process PID
		uintptr(unsafe.Pointer(&localIov)),  // Local iovec
		uintptr(1),                          // Number of local iovecs
		uintptr(unsafe.Pointer(&remoteIov)), // Remote iovec
		uintptr(1),                          // Number of remote iovecs
		uintptr(0),                          // Flags (reserved for future use)
	)

	if errno != 0 {
		return 0, fmt.Errorf("process_vm_readv failed: %s (errno: %d)", errno.Error(), errno)
	}

	return int(n), nil
}

// ReadMemoryInto reads len(buf) bytes at addr directly into buf
func (p *LinuxProcess) ReadMemoryInto(addr process.ProcessMemoryAddress, buf []byte) error {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()

	if pid == 0 {
		return process.ErrProcessNotOpen
	}

	n, err := process_vm_readv(pid, buf, addr)
	if err != nil {
		return fmt.Errorf("read 0x%x: %w", uint64(addr), err)
	}
	if n != len(buf) {
		return fmt.Errorf("read 0x%x: %w: %d of %d bytes", uint64(addr), process.ErrPartialRead, n, len(buf))
	}
	return nil
}

// ReadMemory reads memory from the process at the specified address
func (p *LinuxProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	pid := p.pid
	valid := p.isValidAddressInternal(addr)
	p.mu.Unlock()

	if pid == 0 {
		return nil, process.ErrProcessNotOpen
	}
	if !valid {
		return nil, process.ErrAddressNotMapped
	}

	data := make([]byte, size)
	if err := p.ReadMemoryInto(addr, data); err != nil {
		return nil, err
	}
	return data, nil
}
