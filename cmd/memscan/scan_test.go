package main

import (
	"bytes"
	"strings"
	"testing"

	"memscan/process_blob"
	"memscan/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savedDump(t *testing.T) string {
	t.Helper()
	dump := process_blob.NewProcessDump()
	dump.Name = "game"
	data := make([]byte, 0x1000)
	data[0x40] = 100
	data[0x80] = 100
	require.NoError(t, dump.AddRegion(0x400000, data, "rw-p", "/opt/game/game"))

	dir := t.TempDir()
	require.NoError(t, dump.Save(dir))
	return dir
}

func TestSessionNarrowsAndWrites(t *testing.T) {
	var err error
	cfg, err = settings.Load("")
	require.NoError(t, err)
	dumpDir = savedDump(t)
	defer func() { dumpDir = "" }()

	s, err := newSession([]string{"i32"})
	require.NoError(t, err)
	defer s.close()

	require.NoError(t, s.command("100"))
	count, err := s.resolver.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	require.NoError(t, s.command("set 1 250"))
	require.NoError(t, s.command("increased"))
	count, err = s.resolver.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	r, err := s.resolver.Result(0)
	require.NoError(t, err)
	assert.Equal(t, "game+0x80", r.Location())
	assert.Len(t, s.snap.History(), 2)

	assert.Error(t, s.command("types nope"))
	assert.Error(t, s.command(">= banana"))
	require.NoError(t, s.command("types u8,i16"))
	assert.False(t, s.snap.HasScanResults())
}

func TestRepl(t *testing.T) {
	var err error
	cfg, err = settings.Load("")
	require.NoError(t, err)
	dumpDir = savedDump(t)
	defer func() { dumpDir = "" }()

	s, err := newSession([]string{"u8"})
	require.NoError(t, err)
	defer s.close()

	var out bytes.Buffer
	require.NoError(t, s.repl(strings.NewReader("!= 0\nbogus words\nquit\nnot reached\n"), &out))
	assert.Contains(t, out.String(), "error:")
	count, err := s.resolver.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}
