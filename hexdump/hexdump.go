// Package hexdump renders region bytes as colored hex with scan results
// highlighted per data type and bytes that changed since the previous read
// marked.
package hexdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode"

	"memscan/coloransi"
	"memscan/process/memory_map"
	"memscan/snapshot"
)

type Options struct {
	BytesPerLine int
	// GroupSize bytes are printed without a space between them
	GroupSize int
	ShowASCII bool
	// MaxLines caps the output, 0 for no limit
	MaxLines int

	OffsetColor       coloransi.ColorCode
	HexColor          coloransi.ColorCode
	ZeroColor         coloransi.ColorCode
	NonPrintableColor coloransi.ColorCode
	ChangedColor      coloransi.ColorCode

	Highlights []Highlight
	// Previous holds the bytes of the last read, same length as the data; a
	// differing byte is printed in ChangedColor
	Previous []byte
	// MemoryMap enables the pointer preview for the first two qwords of a line
	MemoryMap []memory_map.MemoryMapItem
}

// Highlight paints Size bytes at Address with Color as background
type Highlight struct {
	Address uint64
	Size    int
	Color   coloransi.ColorCode
}

func DefaultOptions() Options {
	return Options{
		BytesPerLine:      16,
		GroupSize:         1,
		ShowASCII:         true,
		OffsetColor:       coloransi.Cyan,
		HexColor:          coloransi.Green,
		ZeroColor:         coloransi.BrightBlack,
		NonPrintableColor: coloransi.Red,
		ChangedColor:      coloransi.BrightRed,
	}
}

// Dump writes data, which starts at address, as hex lines to w
func Dump(w io.Writer, address uint64, data []byte, opts Options) {
	if opts.BytesPerLine <= 0 {
		opts.BytesPerLine = 16
	}
	if opts.GroupSize <= 0 {
		opts.GroupSize = 1
	}
	if len(opts.Previous) != len(data) {
		opts.Previous = nil
	}
	marks := paint(address, len(data), opts.Highlights)

	lines := 0
	for off := 0; off < len(data); off += opts.BytesPerLine {
		if opts.MaxLines > 0 && lines == opts.MaxLines {
			fmt.Fprintf(w, "... %d more bytes\n", len(data)-off)
			return
		}
		end := min(off+opts.BytesPerLine, len(data))
		writeLine(w, address+uint64(off), data, off, end, marks, opts)
		lines++
	}
}

func DumpString(address uint64, data []byte, opts Options) string {
	var buf bytes.Buffer
	Dump(&buf, address, data, opts)
	return buf.String()
}

// paint resolves highlights to one background color per byte, 0 for none.
// Later highlights win.
func paint(address uint64, n int, highlights []Highlight) []coloransi.ColorCode {
	if len(highlights) == 0 {
		return nil
	}
	marks := make([]coloransi.ColorCode, n)
	end := address + uint64(n)
	for _, h := range highlights {
		lo, hi := h.Address, h.Address+uint64(h.Size)
		if hi <= address || lo >= end {
			continue
		}
		lo, hi = max(lo, address), min(hi, end)
		for a := lo; a < hi; a++ {
			marks[a-address] = h.Color
		}
	}
	return marks
}

func writeLine(w io.Writer, lineAddress uint64, data []byte, off, end int, marks []coloransi.ColorCode, opts Options) {
	fmt.Fprint(w, coloransi.Foreground(opts.OffsetColor, fmt.Sprintf("%016x", lineAddress)), "  ")

	for i := 0; i < opts.BytesPerLine; i++ {
		pos := off + i
		if pos < end {
			fmt.Fprint(w, hexCell(data, pos, marks, opts))
		} else {
			fmt.Fprint(w, "  ")
		}
		if (i+1)%opts.GroupSize == 0 && i+1 < opts.BytesPerLine {
			fmt.Fprint(w, " ")
		}
	}

	if opts.ShowASCII {
		fmt.Fprint(w, " | ")
		for pos := off; pos < end; pos++ {
			fmt.Fprint(w, asciiCell(data[pos], markAt(marks, pos), opts))
		}
	}

	if len(opts.MemoryMap) > 0 {
		for q := off; q+8 <= end && q < off+16; q += 8 {
			ptr := binary.LittleEndian.Uint64(data[q : q+8])
			if memory_map.GetMemoryRegionForAddress(ptr, opts.MemoryMap) != nil {
				fmt.Fprint(w, " ", coloransi.Foreground(coloransi.Yellow, fmt.Sprintf("->0x%x", ptr)))
			}
		}
	}
	fmt.Fprintln(w)
}

func markAt(marks []coloransi.ColorCode, pos int) coloransi.ColorCode {
	if marks == nil {
		return 0
	}
	return marks[pos]
}

func hexCell(data []byte, pos int, marks []coloransi.ColorCode, opts Options) string {
	b := data[pos]
	text := fmt.Sprintf("%02x", b)
	if bg := markAt(marks, pos); bg != 0 {
		return coloransi.Highlight(bg, text)
	}
	switch {
	case opts.Previous != nil && opts.Previous[pos] != b:
		return coloransi.Foreground(opts.ChangedColor, text)
	case b == 0:
		return coloransi.Foreground(opts.ZeroColor, text)
	}
	return coloransi.Foreground(opts.HexColor, text)
}

func asciiCell(b byte, bg coloransi.ColorCode, opts Options) string {
	r := rune(b)
	printable := b < 0x80 && unicode.IsPrint(r)
	text := "."
	if printable {
		text = string(r)
	}
	switch {
	case bg != 0:
		return coloransi.Highlight(bg, text)
	case !printable:
		return coloransi.Foreground(opts.NonPrintableColor, text)
	}
	return text
}

// ResultHighlights marks every scan result of region inside [from, to),
// one palette color per data type
func ResultHighlights(region *snapshot.SnapshotRegion, from, to uint64) []Highlight {
	var out []Highlight
	for _, c := range region.Collections() {
		color := coloransi.ForKey(c.DataTypeID)
		for _, f := range c.Filters {
			if f.EndAddress() <= from || f.BaseAddress >= to {
				continue
			}
			n := f.ElementCount(c.UnitSize, c.Alignment)
			for i := uint64(0); i < n; i++ {
				a := f.ElementAddress(i, c.Alignment)
				if a >= to {
					break
				}
				if a+uint64(c.UnitSize) > from {
					out = append(out, Highlight{Address: a, Size: c.UnitSize, Color: color})
				}
			}
		}
	}
	return out
}

// Region dumps size bytes of region's current values starting at address,
// with its scan results highlighted and changes against the previous values
// marked
func Region(w io.Writer, region *snapshot.SnapshotRegion, address uint64, size int, opts Options) error {
	if !region.HasCurrentValues() {
		return fmt.Errorf("region %s has not been read", region.String())
	}
	if address < region.BaseAddress() || address >= region.EndAddress() {
		return fmt.Errorf("0x%x is outside region %s", address, region.String())
	}
	end := min(address+uint64(size), region.EndAddress())
	lo, hi := region.Offset(address), region.Offset(end)

	opts.Highlights = append(ResultHighlights(region, address, end), opts.Highlights...)
	if region.HasPreviousValues() {
		opts.Previous = region.PreviousValues()[lo:hi]
	}
	Dump(w, address, region.CurrentValues()[lo:hi], opts)
	return nil
}

// Legend names the color of each data type with results in region
func Legend(region *snapshot.SnapshotRegion) string {
	var parts []string
	for _, c := range region.Collections() {
		if len(c.Filters) > 0 {
			parts = append(parts, coloransi.Highlight(coloransi.ForKey(c.DataTypeID), " "+c.DataTypeID+" "))
		}
	}
	return strings.Join(parts, " ")
}
