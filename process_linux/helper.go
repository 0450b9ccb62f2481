//go:build linux

package process_linux

import (
	"fmt"
	"strconv"

	"memscan/process"
)

// OpenTarget opens a process given a PID, an exact process name or a name
// pattern, tried in that order. Several matches open the lowest PID.
func OpenTarget(target string) (*LinuxProcess, error) {
	if pid, err := strconv.Atoi(target); err == nil {
		return NewWithPID(process.ProcessID(pid))
	}

	finder := NewProcessFinder()
	matches, err := finder.FindProcessByName(target)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		if matches, err = finder.FindProcessByNamePattern(target); err != nil {
			return nil, err
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no process found matching '%s'", target)
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if m.PID < best.PID {
			best = m
		}
	}
	return NewWithPID(best.PID)
}
