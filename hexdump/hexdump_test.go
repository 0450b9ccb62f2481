package hexdump

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"memscan/coloransi"
	"memscan/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var escapes = regexp.MustCompile("\033\\[[0-9;]*m")

func plain(s string) string {
	return escapes.ReplaceAllString(s, "")
}

func TestDumpLayout(t *testing.T) {
	data := []byte("Hello, world!\x00\x01\x02ABC")
	out := plain(DumpString(0x1000, data, DefaultOptions()))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "0000000000001000  48 65 6c 6c 6f 2c 20 77 6f 72 6c 64 21 00 01 02 | Hello, world!...", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0000000000001010  41 42 43 "))
	// short lines keep the ascii column aligned
	assert.Equal(t, strings.Index(lines[0], "|"), strings.Index(lines[1], "|"))
}

func TestDumpMaxLinesAndGroups(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxLines = 1
	opts.GroupSize = 4
	opts.ShowASCII = false
	out := plain(DumpString(0, make([]byte, 40), opts))
	assert.Equal(t, "0000000000000000  00000000 00000000 00000000 00000000\n... 24 more bytes\n", out)
}

func TestHighlightsAndChanges(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	opts := DefaultOptions()
	opts.Previous = []byte{1, 9, 3, 4}
	opts.Highlights = []Highlight{{Address: 0x12, Size: 8, Color: coloransi.BrightYellow}}

	out := DumpString(0x10, data, opts)
	assert.Contains(t, out, coloransi.Foreground(opts.ChangedColor, "02"))
	assert.Contains(t, out, coloransi.Highlight(coloransi.BrightYellow, "03"))
	assert.Contains(t, out, coloransi.Highlight(coloransi.BrightYellow, "04"))
	assert.Contains(t, out, coloransi.Foreground(opts.HexColor, "01"))

	marks := paint(0x10, 4, opts.Highlights)
	assert.Equal(t, []coloransi.ColorCode{0, 0, coloransi.BrightYellow, coloransi.BrightYellow}, marks)
}

func TestRegionView(t *testing.T) {
	current := bytes.Repeat([]byte{0}, 64)
	current[8] = 7
	region := snapshot.NewSnapshotRegionWithValues(0x4000, current)
	region.SetCollection(snapshot.FilterCollection{
		DataTypeID: "u32",
		Alignment:  4,
		UnitSize:   4,
		Filters:    []snapshot.SnapshotRegionFilter{snapshot.NewFilter(0x4008, 8)},
	})

	highlights := ResultHighlights(region, 0x4000, 0x4010)
	require.Len(t, highlights, 2)
	assert.Equal(t, uint64(0x4008), highlights[0].Address)
	assert.Equal(t, uint64(0x400C), highlights[1].Address)
	assert.Equal(t, coloransi.ForKey("u32"), highlights[0].Color)

	// the window end is exclusive
	highlights = ResultHighlights(region, 0x4000, 0x400C)
	require.Len(t, highlights, 1)
	assert.Equal(t, uint64(0x4008), highlights[0].Address)

	var buf bytes.Buffer
	require.NoError(t, Region(&buf, region, 0x4000, 16, DefaultOptions()))
	assert.Contains(t, buf.String(), coloransi.Highlight(coloransi.ForKey("u32"), "07"))
	assert.Contains(t, Legend(region), "u32")

	assert.Error(t, Region(&buf, region, 0x5000, 16, DefaultOptions()))
}
