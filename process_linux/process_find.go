//go:build linux

package process_linux

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"memscan/process"
)

const procRoot = "/proc"

// LinuxProcessFinder enumerates scan targets from /proc
type LinuxProcessFinder struct {
	root string
}

// NewProcessFinder creates a new LinuxProcessFinder
func NewProcessFinder() process.ProcessFinder {
	return &LinuxProcessFinder{root: procRoot}
}

func (f *LinuxProcessFinder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	dir := filepath.Join(f.root, strconv.Itoa(int(pid)))
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("pid %d: %w", pid, process.ErrProcessNotFound)
	}
	return readProcessInfo(dir, pid)
}

func (f *LinuxProcessFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	return f.match("^" + regexp.QuoteMeta(name) + "$")
}

func (f *LinuxProcessFinder) FindProcessByNamePattern(pattern string) ([]process.ProcessInfo, error) {
	return f.match(pattern)
}

func (f *LinuxProcessFinder) FindAllProcesses() ([]process.ProcessInfo, error) {
	return f.match("")
}

// match lists every numeric /proc entry whose comm or exe basename matches pattern.
// The scanner's own process is never offered as a target.
func (f *LinuxProcessFinder) match(pattern string) ([]process.ProcessInfo, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.root, err)
	}

	self := os.Getpid()
	var results []process.ProcessInfo
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || !entry.IsDir() || pid == self {
			continue
		}

		info, err := readProcessInfo(filepath.Join(f.root, entry.Name()), process.ProcessID(pid))
		if err != nil {
			continue // exited while listing
		}

		// comm is truncated to 15 bytes
		if re.MatchString(info.Name) || (info.Exe != "" && re.MatchString(filepath.Base(info.Exe))) {
			results = append(results, *info)
		}
	}
	return results, nil
}

func readProcessInfo(dir string, pid process.ProcessID) (*process.ProcessInfo, error) {
	comm, err := os.ReadFile(filepath.Join(dir, "comm"))
	if err != nil {
		return nil, fmt.Errorf("read comm: %w", err)
	}
	cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline"))
	if err != nil {
		return nil, fmt.Errorf("read cmdline: %w", err)
	}

	info := &process.ProcessInfo{
		PID:     pid,
		Name:    strings.TrimSpace(string(comm)),
		Cmdline: splitCmdline(cmdline),
	}
	// kernel threads have no exe link
	info.Exe, _ = os.Readlink(filepath.Join(dir, "exe"))

	if status, err := os.Open(filepath.Join(dir, "status")); err == nil {
		parseStatus(status, info)
		status.Close()
	}
	return info, nil
}

func splitCmdline(raw []byte) []string {
	raw = bytes.TrimSuffix(raw, []byte{0})
	if len(raw) == 0 {
		return nil
	}
	var args []string
	for _, arg := range bytes.Split(raw, []byte{0}) {
		args = append(args, string(arg))
	}
	return args
}

// parseStatus fills the fields of info that come from /proc/[pid]/status
func parseStatus(r io.Reader, info *process.ProcessInfo) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			continue
		}

		switch key {
		case "PPid":
			if n, err := strconv.Atoi(fields[0]); err == nil {
				info.PPID = process.ProcessID(n)
			}
		case "State":
			info.State = process.ProcessState(fields[0][:1])
		case "Threads":
			info.Threads, _ = strconv.Atoi(fields[0])
		case "VmRSS":
			n, err := strconv.ParseUint(fields[0], 10, 64)
			if err != nil {
				continue
			}
			if len(fields) > 1 && fields[1] == "kB" {
				n *= 1024
			}
			info.Memory = n
		}
	}
}
