package process

import (
	"memscan/process/memory_map"
)

// MemoryReader copies bytes out of a target's address space
type MemoryReader interface {
	// ReadMemoryInto fills buf from addr. A short transfer returns an error
	// wrapping ErrPartialRead; buf contents are then undefined.
	ReadMemoryInto(addr ProcessMemoryAddress, buf []byte) error
}

// MemoryWriter writes bytes into a target's address space
type MemoryWriter interface {
	WriteMemory(addr ProcessMemoryAddress, data []byte) error
}

// ModuleLister enumerates the file-backed images loaded in a target
type ModuleLister interface {
	GetModules() ([]memory_map.Module, error)
}

// Process is the interface that defines operations for interacting with a system process
type Process interface {
	// Open opens a process with the given PID for memory operations
	Open(pid ProcessID) error

	// Close closes the process and releases resources
	Close() error

	// GetPID returns the process ID
	GetPID() ProcessID

	// GetName returns the process name, empty when unknown
	GetName() string

	// UpdateMemoryMap refreshes the memory map for the process
	UpdateMemoryMap() error

	// IsValidAddress checks if the given memory address is valid and readable
	IsValidAddress(addr ProcessMemoryAddress) bool

	// GetMemoryMap returns a copy of the current memory map
	GetMemoryMap() ([]memory_map.MemoryMapItem, error)

	// ReadMemory reads memory from the process at the specified address
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	MemoryReader
	MemoryWriter
	ModuleLister

	// Save saves the process memory and metadata to a directory
	Save(dirname string) error

	// Load loads the process memory and metadata from a directory
	Load(dirname string) error
}
