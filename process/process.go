// Package process defines the target-process abstraction the scan engine reads from and writes to
package process

import "errors"

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrPartialRead is returned when fewer bytes than requested could be transferred
	ErrPartialRead = errors.New("partial read")

	ErrNotWritable = errors.New("memory not writable")

	ErrProcessNotFound = errors.New("process not found")
)
