package memory_map

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address  uint64 // The starting address of the memory region
	Size     uint   // The size of the memory region in bytes
	Perms    string // Permissions (e.g., "r-xp" for read, execute, private)
	Offset   uint64 `json:",omitempty"` // Offset of the mapping into its backing file
	Pathname string `json:",omitempty"` // Backing file, or a pseudo name like [heap]
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	if mmItem.Pathname != "" {
		return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Path: %s", mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Pathname)
	}
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s", mmItem.Address, mmItem.Size, mmItem.Perms)
}

func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

func (mmItem MemoryMapItem) Contains(addr uint64) bool {
	return addr >= mmItem.Address && addr < mmItem.End()
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

func (mmItem MemoryMapItem) IsExecutable() bool {
	return len(mmItem.Perms) > 2 && mmItem.Perms[2] == 'x'
}

func (mmItem MemoryMapItem) IsShared() bool {
	return len(mmItem.Perms) > 3 && mmItem.Perms[3] == 's'
}

// IsFileBacked reports whether the mapping comes from a file on disk
func (mmItem MemoryMapItem) IsFileBacked() bool {
	return strings.HasPrefix(mmItem.Pathname, "/") || strings.Contains(mmItem.Pathname, `:\`)
}

// MemoryMap defines the interface for operations related to a process's memory map
type MemoryMap interface {
	// ReadMemoryMap reads and parses the memory map for a process
	ReadMemoryMap(pid int) ([]MemoryMapItem, error)
}

// Sort orders a memory map by address, which the lookups below rely on
func Sort(mm []MemoryMapItem) {
	sort.Slice(mm, func(i, j int) bool {
		return mm[i].Address < mm[j].Address
	})
}

// IsValidAddress checks if an address is within a mapped region of a sorted memory map
func IsValidAddress(addr uint64, memoryMap []MemoryMapItem) bool {
	return GetMemoryRegionForAddress(addr, memoryMap) != nil
}

// GetMemoryRegionForAddress returns the region of a sorted memory map containing an address
func GetMemoryRegionForAddress(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}
	return nil
}

// Module is one loaded image, spanning every mapping of its file
type Module struct {
	Name string
	Path string
	Base uint64
	Size uint64
}

func (m Module) End() uint64 {
	return m.Base + m.Size
}

// ModulesFromMap groups file-backed mappings by path. A module spans from its
// lowest to its highest mapping.
func ModulesFromMap(mm []MemoryMapItem) []Module {
	index := make(map[string]int)
	var modules []Module
	for _, item := range mm {
		if !item.IsFileBacked() {
			continue
		}
		i, ok := index[item.Pathname]
		if !ok {
			index[item.Pathname] = len(modules)
			modules = append(modules, Module{
				Name: filepath.Base(item.Pathname),
				Path: item.Pathname,
				Base: item.Address,
				Size: uint64(item.Size),
			})
			continue
		}
		m := &modules[i]
		end := m.End()
		if item.End() > end {
			end = item.End()
		}
		if item.Address < m.Base {
			m.Base = item.Address
		}
		m.Size = end - m.Base
	}
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Base < modules[j].Base
	})
	return modules
}

// AddressToModule returns the module containing addr and the offset into it
func AddressToModule(addr uint64, modules []Module) (Module, uint64, bool) {
	i := sort.Search(len(modules), func(i int) bool {
		return modules[i].End() > addr
	})
	if i < len(modules) && modules[i].Base <= addr {
		return modules[i], addr - modules[i].Base, true
	}
	return Module{}, 0, false
}
