//go:build !linux && !windows

package main

import (
	"fmt"
	"runtime"

	"memscan/process"
)

func openLive(target string) (process.Process, error) {
	return nil, fmt.Errorf("live processes are not supported on %s, use --dump", runtime.GOOS)
}

func newFinder() process.ProcessFinder {
	return nil
}
