// Package table renders aligned text tables for the memscan CLI. Cell
// widths ignore ANSI escapes, so colored cells line up.
package table

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Column describes one column. Format, if set, decorates a cell after its
// width was measured.
type Column struct {
	Header   string
	Blank    string
	Format   func(string) string
	MinWidth int
	Right    bool
}

type Table struct {
	columns []Column
	rows    [][]string
	widths  []int
}

func New(columns ...Column) *Table {
	t := &Table{columns: columns, widths: make([]int, len(columns))}
	for i := range t.columns {
		if t.columns[i].Blank == "" {
			t.columns[i].Blank = "-"
		}
		t.widths[i] = max(t.columns[i].MinWidth, VisibleLength(t.columns[i].Header))
	}
	return t
}

// Row appends a row; missing or empty cells show the column's Blank
func (t *Table) Row(cells ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(cells) && cells[i] != "" {
			row[i] = cells[i]
		} else {
			row[i] = t.columns[i].Blank
		}
		t.widths[i] = max(t.widths[i], VisibleLength(row[i]))
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Rowf(format string, args ...any) {
	t.Row(strings.Split(fmt.Sprintf(format, args...), "\t")...)
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Render(w io.Writer) error {
	header := make([]string, len(t.columns))
	rule := make([]string, len(t.columns))
	for i, c := range t.columns {
		header[i] = t.pad(i, c.Header)
		rule[i] = strings.Repeat("-", t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(header, "  "), " ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(rule, "  ")); err != nil {
		return err
	}

	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = t.pad(i, v)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) pad(i int, s string) string {
	fill := t.widths[i] - VisibleLength(s)
	if f := t.columns[i].Format; f != nil {
		s = f(s)
	}
	if fill <= 0 {
		return s
	}
	if t.columns[i].Right {
		return strings.Repeat(" ", fill) + s
	}
	return s + strings.Repeat(" ", fill)
}

// VisibleLength counts the runes of s outside ANSI SGR sequences
func VisibleLength(s string) int {
	n := 0
	for i := 0; i < len(s); {
		if s[i] == '\033' {
			end := strings.IndexByte(s[i:], 'm')
			if end < 0 {
				break
			}
			i += end + 1
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n++
	}
	return n
}
