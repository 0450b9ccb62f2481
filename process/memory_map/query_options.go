package memory_map

import (
	"fmt"
	"strings"
)

// QueryOptions selects which mappings a snapshot covers. Protection strings
// are made of the flags r, w, x and s (shared).
type QueryOptions struct {
	RequiredProtection string
	ExcludedProtection string
	StartAddress       uint64
	EndAddress         uint64 // exclusive, 0 means no upper bound
	IncludeShared      bool
}

func DefaultQueryOptions() QueryOptions {
	return QueryOptions{RequiredProtection: "r", IncludeShared: true}
}

func (o QueryOptions) Validate() error {
	for _, set := range []string{o.RequiredProtection, o.ExcludedProtection} {
		for _, c := range set {
			if !strings.ContainsRune("rwxs", c) {
				return fmt.Errorf("unknown protection flag %q", c)
			}
		}
	}
	if o.EndAddress != 0 && o.EndAddress <= o.StartAddress {
		return fmt.Errorf("empty address window 0x%x-0x%x", o.StartAddress, o.EndAddress)
	}
	return nil
}

func hasFlag(item MemoryMapItem, flag rune) bool {
	switch flag {
	case 'r':
		return item.IsReadable()
	case 'w':
		return item.IsWritable()
	case 'x':
		return item.IsExecutable()
	case 's':
		return item.IsShared()
	}
	return false
}

// Matches reports whether item passes the protection and sharing rules and
// overlaps the address window
func (o QueryOptions) Matches(item MemoryMapItem) bool {
	for _, c := range o.RequiredProtection {
		if !hasFlag(item, c) {
			return false
		}
	}
	for _, c := range o.ExcludedProtection {
		if hasFlag(item, c) {
			return false
		}
	}
	if !o.IncludeShared && item.IsShared() {
		return false
	}
	if item.End() <= o.StartAddress {
		return false
	}
	if o.EndAddress != 0 && item.Address >= o.EndAddress {
		return false
	}
	return item.Size > 0
}

// Filter returns the matching items clipped to the address window
func (o QueryOptions) Filter(mm []MemoryMapItem) []MemoryMapItem {
	var out []MemoryMapItem
	for _, item := range mm {
		if !o.Matches(item) {
			continue
		}
		start, end := item.Address, item.End()
		if start < o.StartAddress {
			start = o.StartAddress
		}
		if o.EndAddress != 0 && end > o.EndAddress {
			end = o.EndAddress
		}
		if start != item.Address {
			item.Offset += start - item.Address
		}
		item.Address = start
		item.Size = uint(end - start)
		out = append(out, item)
	}
	return out
}
