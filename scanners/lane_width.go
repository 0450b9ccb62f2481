package scanners

import "golang.org/x/sys/cpu"

// DetectLaneWidth picks the vector width, in bytes, matching the widest
// vector registers this CPU has
func DetectLaneWidth() int {
	switch {
	case cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW:
		return 64
	case cpu.X86.HasAVX2:
		return 32
	default:
		return 16
	}
}
