//go:build linux

package main

import (
	"memscan/process"
	"memscan/process_linux"
)

func openLive(target string) (process.Process, error) {
	proc, err := process_linux.OpenTarget(target)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

func newFinder() process.ProcessFinder {
	return process_linux.NewProcessFinder()
}
