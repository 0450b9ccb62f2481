//go:build windows

package process_windows

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"unsafe"

	"memscan/process"

	"golang.org/x/sys/windows"
)

// WindowsProcessFinder implements the process.ProcessFinder interface
type WindowsProcessFinder struct{}

// NewProcessFinder creates a new WindowsProcessFinder
func NewProcessFinder() process.ProcessFinder {
	return &WindowsProcessFinder{}
}

func (f *WindowsProcessFinder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	all, err := snapshotProcesses()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].PID == pid {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("process with PID %d does not exist", pid)
}

func (f *WindowsProcessFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	return findProcessesByNamePattern("(?i)^" + regexp.QuoteMeta(name) + "$")
}

func (f *WindowsProcessFinder) FindProcessByNamePattern(pattern string) ([]process.ProcessInfo, error) {
	return findProcessesByNamePattern(pattern)
}

func (f *WindowsProcessFinder) FindAllProcesses() ([]process.ProcessInfo, error) {
	return snapshotProcesses()
}

func findProcessesByNamePattern(pattern string) ([]process.ProcessInfo, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	all, err := snapshotProcesses()
	if err != nil {
		return nil, err
	}

	selfPID := process.ProcessID(os.Getpid())
	var results []process.ProcessInfo
	for _, info := range all {
		if info.PID != selfPID && re.MatchString(info.Name) {
			results = append(results, info)
		}
	}
	return results, nil
}

// snapshotProcesses walks a Toolhelp32 process snapshot
func snapshotProcesses() ([]process.ProcessInfo, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var results []process.ProcessInfo
	for err = windows.Process32First(snap, &entry); err == nil; err = windows.Process32Next(snap, &entry) {
		results = append(results, process.ProcessInfo{
			PID:     process.ProcessID(entry.ProcessID),
			PPID:    process.ProcessID(entry.ParentProcessID),
			Name:    windows.UTF16ToString(entry.ExeFile[:]),
			Threads: int(entry.Threads),
			State:   process.ProcessRunning,
		})
	}
	if !errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return nil, fmt.Errorf("Process32Next: %w", err)
	}
	return results, nil
}
