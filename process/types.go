package process

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessInfo contains basic information about a process
type ProcessInfo struct {
	PID     ProcessID    // Process ID
	PPID    ProcessID    // Parent Process ID
	Name    string       // Process name from /proc/[pid]/comm
	Exe     string       // Path to the executable
	Cmdline []string     // Command line arguments
	State   ProcessState // Process state (R, S, D, Z, etc.)
	Threads int          // Number of threads
	Memory  uint64       // Resident Set Size (memory usage in bytes)
}

// ProcessFinder discovers running processes
type ProcessFinder interface {
	// FindProcessByPID finds a process by its PID
	FindProcessByPID(pid ProcessID) (*ProcessInfo, error)

	// FindProcessByName finds processes by their name (exact match)
	FindProcessByName(name string) ([]ProcessInfo, error)

	// FindProcessByNamePattern finds processes by their name (pattern match)
	FindProcessByNamePattern(pattern string) ([]ProcessInfo, error)

	// FindAllProcesses returns information about all running processes
	FindAllProcesses() ([]ProcessInfo, error)
}

// ProcessState is the one-letter state code from /proc/[pid]/stat
type ProcessState string

const (
	ProcessRunning  ProcessState = "R"
	ProcessSleeping ProcessState = "S"
	ProcessWaiting  ProcessState = "D"
	ProcessZombie   ProcessState = "Z"
	ProcessStopped  ProcessState = "T"
	ProcessDead     ProcessState = "X"
)

// Scannable reports whether the process still has an address space to read
func (s ProcessState) Scannable() bool {
	return s != ProcessZombie && s != ProcessDead
}
