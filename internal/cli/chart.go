package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/hyperjump/semsim/internal/visualize"
)

const (
	barCell   = "██"
	emptyCell = "  "
	cellGap   = " "
)

// chart draws a visualization as a vertical bar chart. It implements
// visualize.Renderer.
type chart struct {
	theme       theme
	rows        int
	columns     []visualize.Column
	details     []visualize.Detail
	placeholder string
}

func newChart(t theme, rows int) *chart {
	if rows < 1 {
		rows = 1
	}
	return &chart{theme: t, rows: rows}
}

// RenderEmpty implements visualize.Renderer.
func (c *chart) RenderEmpty(placeholder string) error {
	c.placeholder = placeholder
	return nil
}

// RenderColumn implements visualize.Renderer.
func (c *chart) RenderColumn(col visualize.Column, detail visualize.Detail) error {
	c.columns = append(c.columns, col)
	c.details = append(c.details, detail)
	return nil
}

// cells scales a column height to whole rows. Every column gets at least one row.
func (c *chart) cells(col visualize.Column, maxHeight float64) int {
	if maxHeight <= 0 {
		return 1
	}
	n := int(math.Round(col.Height / maxHeight * float64(c.rows)))
	return max(1, min(n, c.rows))
}

func (c *chart) String() string {
	var b strings.Builder
	if c.placeholder != "" {
		b.WriteString(c.placeholder)
		b.WriteByte('\n')
		return b.String()
	}

	maxHeight := 0.0
	for _, col := range c.columns {
		maxHeight = math.Max(maxHeight, col.Height)
	}
	heights := make([]int, len(c.columns))
	for i, col := range c.columns {
		heights[i] = c.cells(col, maxHeight)
	}

	for row := c.rows; row >= 1; row-- {
		var line strings.Builder
		for i, col := range c.columns {
			if i > 0 {
				line.WriteString(cellGap)
			}
			switch {
			case heights[i] < row:
				line.WriteString(emptyCell)
			case !col.Valid || col.Count == 0:
				line.WriteString(c.theme.invalid.Render(barCell))
			default:
				line.WriteString(c.theme.bar.Render(barCell))
			}
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}

	var axis strings.Builder
	for i, col := range c.columns {
		if i > 0 {
			axis.WriteString(cellGap)
		}
		fmt.Fprintf(&axis, "%-2d", (col.Index+1)%100)
	}
	b.WriteString(c.theme.muted.Render(strings.TrimRight(axis.String(), " ")))
	b.WriteString("\n\n")

	for i, d := range c.details {
		if c.columns[i].Count == 0 {
			b.WriteString(c.theme.muted.Render(d.Header))
			b.WriteByte('\n')
			continue
		}
		b.WriteString(c.theme.header.Render(d.Header))
		b.WriteByte('\n')
		for _, item := range d.Items {
			b.WriteString("  - ")
			b.WriteString(Truncate(item, 120))
			b.WriteByte('\n')
		}
		if d.More != "" {
			b.WriteString("  ")
			b.WriteString(c.theme.muted.Render(d.More))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
