package cli

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// columnGap separates columns in text output.
const columnGap = "  "

// table is text output with aligned columns. Widths are terminal cells, so
// Japanese holiday names and event summaries line up with ASCII rows.
type table struct {
	header []string
	rows   [][]string
	widths []int
}

func newTable(header ...string) *table {
	t := &table{}
	if len(header) > 0 {
		t.header = header
		t.measure(header)
	}
	return t
}

// add appends a row. Empty cells print as "-".
func (t *table) add(cells ...string) {
	row := make([]string, len(cells))
	for i, cell := range cells {
		row[i] = orDash(cell)
	}
	t.rows = append(t.rows, row)
	t.measure(row)
}

func (t *table) measure(row []string) {
	for len(t.widths) < len(row) {
		t.widths = append(t.widths, 0)
	}
	for i, cell := range row {
		if w := runewidth.StringWidth(cell); w > t.widths[i] {
			t.widths[i] = w
		}
	}
}

func (t *table) line(b *strings.Builder, row []string) {
	last := len(row) - 1
	for i, cell := range row {
		if i == last {
			b.WriteString(cell)
			break
		}
		b.WriteString(runewidth.FillRight(cell, t.widths[i]))
		b.WriteString(columnGap)
	}
	b.WriteByte('\n')
}

func (t *table) render(out io.Writer) error {
	var b strings.Builder
	if t.header != nil {
		t.line(&b, t.header)
	}
	for _, row := range t.rows {
		t.line(&b, row)
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
