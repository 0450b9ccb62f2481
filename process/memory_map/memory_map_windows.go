//go:build windows

package memory_map

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	memMapped = 0x40000

	maxUserAddress = 0x7FFFFFFEFFFF
)

// QueryMemoryMap walks committed regions with VirtualQueryEx
func QueryMemoryMap(handle windows.Handle) []MemoryMapItem {
	var mm []MemoryMapItem
	var mbi windows.MemoryBasicInformation

	address := uint64(0)
	for address < maxUserAddress {
		err := windows.VirtualQueryEx(handle, uintptr(address), &mbi, unsafe.Sizeof(mbi))
		if err != nil {
			break
		}

		baseAddr := uint64(mbi.BaseAddress)
		regionSize := uint64(mbi.RegionSize)

		if mbi.State == windows.MEM_COMMIT {
			mm = append(mm, MemoryMapItem{
				Address: baseAddr,
				Size:    uint(regionSize),
				Perms:   protectToPerms(mbi.Protect, mbi.Type),
			})
		}

		address = baseAddr + regionSize
		if regionSize == 0 {
			address++
		}
	}

	Sort(mm)
	return mm
}

// protectToPerms renders page protection in the /proc/[pid]/maps style
func protectToPerms(protect, typ uint32) string {
	perms := []byte("---p")
	if protect&windows.PAGE_GUARD != 0 || protect&windows.PAGE_NOACCESS != 0 {
		return string(perms)
	}
	switch protect & 0xFF {
	case windows.PAGE_READONLY:
		perms[0] = 'r'
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		perms[0], perms[1] = 'r', 'w'
	case windows.PAGE_EXECUTE:
		perms[2] = 'x'
	case windows.PAGE_EXECUTE_READ:
		perms[0], perms[2] = 'r', 'x'
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		perms[0], perms[1], perms[2] = 'r', 'w', 'x'
	}
	if typ == memMapped {
		perms[3] = 's'
	}
	return string(perms)
}
