// Package outwriter has chart renderers and the printers for stored records.
package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
	"golang.org/x/term"
)

// defaultTermWidth is used when the terminal size cannot be detected.
const defaultTermWidth = 80

// NewRenderer returns the renderer for kind. width overrides the detected
// terminal width for table output (0 = auto-detect).
func NewRenderer(kind schema.RendererKind, width int) (contract.Renderer, error) {
	switch kind {
	case schema.UPlotRenderer, "":
		return NewUPlotRenderer(), nil
	case schema.TableRenderer:
		return &TableRenderer{Width: width}, nil
	default:
		return nil, fmt.Errorf("invalid renderer '%s'. must be uplot, table", kind)
	}
}

// terminalWidth returns the override when positive, else the width of stdout.
func terminalWidth(override int) int {
	if override > 0 {
		return override
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return defaultTermWidth
	}
	return detected
}

// writeWithFile opens outputFile (stdout when empty), runs writer on it and reports where it went.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteReportData writes chart datasets as JSON to outputFile, or stdout when empty.
func WriteReportData(outputFile string, data []schema.ChartData) error {
	if data == nil {
		data = []schema.ChartData{}
	}
	return writeWithFile(outputFile, func(w io.Writer) error {
		return writeJSON(w, data)
	}, "Wrote report data")
}
