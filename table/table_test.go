package table

import (
	"bytes"
	"testing"

	"memscan/coloransi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tbl := New(
		Column{Header: "address"},
		Column{Header: "type", Format: func(s string) string { return coloransi.Foreground(coloransi.Cyan, s) }},
		Column{Header: "value", Right: true},
	)
	tbl.Row("0x1000", "u32", "42")
	tbl.Row("game+0x10", "", "7")
	tbl.Rowf("%s\t%s\t%d", "0x2000", "i8", -1)
	require.Equal(t, 3, tbl.Len())

	var buf bytes.Buffer
	require.NoError(t, tbl.Render(&buf))
	plain := stripped(buf.String())
	assert.Equal(t, ""+
		"address    type  value\n"+
		"---------  ----  -----\n"+
		"0x1000     u32      42\n"+
		"game+0x10  -         7\n"+
		"0x2000     i8       -1\n", plain)
}

func TestVisibleLength(t *testing.T) {
	assert.Equal(t, 3, VisibleLength(coloransi.Highlight(coloransi.BrightYellow, "abc")))
	assert.Equal(t, 2, VisibleLength("äö"))
	assert.Equal(t, 0, VisibleLength(""))
}

func stripped(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
