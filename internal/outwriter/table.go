package outwriter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Cell width bounds for table output.
const (
	minCellWidth = 8
	maxCellWidth = 40
	cellOverhead = 3 // Border and padding per column
)

// TableRenderer prints chart data as a plain table. It needs no external tools.
type TableRenderer struct {
	Width int // Terminal width override (0 = auto-detect)
}

var _ contract.Renderer = &TableRenderer{} // Compile-time check

// Available always succeeds.
func (r *TableRenderer) Available() error {
	return nil
}

// Render reads the CSV document in data and writes a table to out.
func (r *TableRenderer) Render(ctx context.Context, chart schema.ChartSpec, data io.Reader, out io.Writer) error {
	if err := ctx.Err(); err != nil {
		return contract.WrapCancelled(ctx, err)
	}

	records, err := csv.NewReader(data).ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read chart data: %w", err)
	}
	if len(records) == 0 {
		return errors.New("chart data has no header row")
	}
	header, rows := records[0], records[1:]

	width := cellWidth(terminalWidth(r.Width), len(header))
	table := tablewriter.NewWriter(out)
	table.Header(truncateRow(header, width))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, truncateRow(row, width))
	}
	if err := table.Bulk(cells); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s: %s (%d rows)\n", chart.Kind, chart.Title, len(rows))
	return nil
}

// cellWidth splits the terminal width evenly across columns.
func cellWidth(termWidth, columns int) int {
	if columns <= 0 {
		return maxCellWidth
	}
	w := termWidth/columns - cellOverhead
	if w < minCellWidth {
		return minCellWidth
	}
	if w > maxCellWidth {
		return maxCellWidth
	}
	return w
}

// truncateRow cuts every cell to width display columns.
func truncateRow(row []string, width int) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = runewidth.Truncate(cell, width, "…")
	}
	return out
}
