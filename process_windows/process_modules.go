//go:build windows

package process_windows

import (
	"errors"
	"fmt"
	"sort"
	"unsafe"

	"memscan/process/memory_map"

	"golang.org/x/sys/windows"
)

// GetModules lists the images loaded in the target with a Toolhelp32 module snapshot
func (p *WindowsProcess) GetModules() ([]memory_map.Module, error) {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()
	if _, err := p.openHandle(); err != nil {
		return nil, err
	}

	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ModuleEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var modules []memory_map.Module
	for err = windows.Module32First(snap, &entry); err == nil; err = windows.Module32Next(snap, &entry) {
		modules = append(modules, memory_map.Module{
			Name: windows.UTF16ToString(entry.Module[:]),
			Path: windows.UTF16ToString(entry.ExePath[:]),
			Base: uint64(entry.ModBaseAddr),
			Size: uint64(entry.ModBaseSize),
		})
	}
	if !errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return nil, fmt.Errorf("Module32Next: %w", err)
	}

	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Base < modules[j].Base
	})
	return modules, nil
}
