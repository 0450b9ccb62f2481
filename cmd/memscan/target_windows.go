//go:build windows

package main

import (
	"memscan/process"
	"memscan/process_windows"
)

func openLive(target string) (process.Process, error) {
	proc, err := process_windows.OpenTarget(target)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

func newFinder() process.ProcessFinder {
	return process_windows.NewProcessFinder()
}
