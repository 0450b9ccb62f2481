package memory_map

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMaps = `55d4c0a00000-55d4c0a02000 r--p 00000000 08:01 1049 /usr/bin/game
55d4c0a02000-55d4c0a08000 r-xp 00002000 08:01 1049 /usr/bin/game
55d4c0a08000-55d4c0a0a000 rw-p 00008000 08:01 1049 /usr/bin/game
55d4c1000000-55d4c1021000 rw-p 00000000 00:00 0 [heap]
7f0000000000-7f0000001000 rw-s 00000000 00:05 77 /dev/shm/my segment
7ffd00000000-7ffd00021000 rw-p 00000000 00:00 0 [stack]
`

func TestParseMaps(t *testing.T) {
	mm, err := ParseMaps(strings.NewReader(sampleMaps))
	require.NoError(t, err)
	require.Len(t, mm, 6)

	assert.Equal(t, uint64(0x55d4c0a02000), mm[1].Address)
	assert.Equal(t, uint(0x6000), mm[1].Size)
	assert.Equal(t, uint64(0x2000), mm[1].Offset)
	assert.True(t, mm[1].IsExecutable())
	assert.False(t, mm[1].IsWritable())

	assert.Equal(t, "[heap]", mm[3].Pathname)
	assert.False(t, mm[3].IsFileBacked())

	assert.Equal(t, "/dev/shm/my segment", mm[4].Pathname)
	assert.True(t, mm[4].IsShared())
}

func TestRegionLookup(t *testing.T) {
	mm, err := ParseMaps(strings.NewReader(sampleMaps))
	require.NoError(t, err)

	item := GetMemoryRegionForAddress(0x55d4c1000010, mm)
	require.NotNil(t, item)
	assert.Equal(t, "[heap]", item.Pathname)

	assert.True(t, IsValidAddress(0x55d4c0a09fff, mm))
	assert.False(t, IsValidAddress(0x55d4c0a0a000, mm))
	assert.False(t, IsValidAddress(0x1000, mm))
}

func TestModules(t *testing.T) {
	mm, err := ParseMaps(strings.NewReader(sampleMaps))
	require.NoError(t, err)

	modules := ModulesFromMap(mm)
	require.Len(t, modules, 2)
	assert.Equal(t, "game", modules[0].Name)
	assert.Equal(t, uint64(0x55d4c0a00000), modules[0].Base)
	assert.Equal(t, uint64(0xa000), modules[0].Size)

	m, off, ok := AddressToModule(0x55d4c0a08010, modules)
	require.True(t, ok)
	assert.Equal(t, "game", m.Name)
	assert.Equal(t, uint64(0x8010), off)

	_, _, ok = AddressToModule(0x55d4c1000000, modules)
	assert.False(t, ok)
}

func TestQueryOptions(t *testing.T) {
	mm, err := ParseMaps(strings.NewReader(sampleMaps))
	require.NoError(t, err)

	writable := QueryOptions{RequiredProtection: "rw", ExcludedProtection: "x", IncludeShared: false}
	got := writable.Filter(mm)
	require.Len(t, got, 3)
	assert.Equal(t, "/usr/bin/game", got[0].Pathname)
	assert.Equal(t, "[heap]", got[1].Pathname)
	assert.Equal(t, "[stack]", got[2].Pathname)

	window := DefaultQueryOptions()
	window.StartAddress = 0x55d4c0a01000
	window.EndAddress = 0x55d4c0a03000
	got = window.Filter(mm)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(0x55d4c0a01000), got[0].Address)
	assert.Equal(t, uint(0x1000), got[0].Size)
	assert.Equal(t, uint64(0x1000), got[0].Offset)
	assert.Equal(t, uint(0x1000), got[1].Size)

	assert.NoError(t, DefaultQueryOptions().Validate())
	assert.Error(t, QueryOptions{RequiredProtection: "q"}.Validate())
	assert.Error(t, QueryOptions{StartAddress: 10, EndAddress: 5}.Validate())
}
