//go:build windows

package process_windows

import (
	"fmt"

	"memscan/process"
	"memscan/process_blob"
)

// Save writes the process memory and metadata to a directory in the
// process_blob dump format
func (p *WindowsProcess) Save(dirname string) error {
	p.mu.Lock()
	pid, name, log := p.pid, p.name, p.log
	p.mu.Unlock()

	if pid == 0 {
		return fmt.Errorf("save: %w", process.ErrProcessNotOpen)
	}

	if err := p.UpdateMemoryMap(); err != nil {
		return fmt.Errorf("failed to update memory map: %w", err)
	}
	mm, err := p.GetMemoryMap()
	if err != nil {
		return err
	}

	log.Infoln("Saving process to directory:", dirname)
	stats, err := process_blob.WriteDump(dirname, process_blob.Metadata{PID: pid, Name: name}, mm, p, log)
	if err != nil {
		return err
	}
	log.Debugln("Skipped", stats.SkippedUnreadable, "unreadable and", stats.SkippedTooLarge, "oversized regions")
	return nil
}

func (p *WindowsProcess) Load(dirname string) error {
	return fmt.Errorf("loading from a dump is not supported by WindowsProcess, use ProcessDump instead")
}
