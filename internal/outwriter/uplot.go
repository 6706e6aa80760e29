package outwriter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
)

// uplotInstallURL points users at the YouPlot installation instructions.
const uplotInstallURL = "https://github.com/red-data-tools/YouPlot#installation"

// histogramBins is the bucket count for every histogram.
const histogramBins = 7

// UPlotRenderer draws charts in the terminal with the YouPlot "uplot" command.
type UPlotRenderer struct {
	Command string // Executable name or path, "uplot" by default
}

var _ contract.Renderer = &UPlotRenderer{} // Compile-time check

// NewUPlotRenderer returns a renderer that resolves "uplot" on PATH.
func NewUPlotRenderer() *UPlotRenderer {
	return &UPlotRenderer{Command: "uplot"}
}

// Available reports schema.ErrMissingRenderer when the command cannot be found.
func (r *UPlotRenderer) Available() error {
	_, err := r.lookPath()
	return err
}

func (r *UPlotRenderer) lookPath() (string, error) {
	path, err := exec.LookPath(r.Command)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not installed, see %s", schema.ErrMissingRenderer, r.Command, uplotInstallURL)
	}
	return path, nil
}

// Render pipes data into uplot and forwards the chart to out.
func (r *UPlotRenderer) Render(ctx context.Context, chart schema.ChartSpec, data io.Reader, out io.Writer) error {
	path, err := r.lookPath()
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, uplotArgs(chart)...)
	cmd.Stdin = data
	cmd.Stdout = out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return contract.WrapCancelled(ctx, err)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("uplot %s failed: %w", chart.Kind, err)
		}
		return fmt.Errorf("uplot %s failed: %w: %s", chart.Kind, err, msg)
	}
	return nil
}

// uplotArgs builds the argument list for one chart.
func uplotArgs(chart schema.ChartSpec) []string {
	args := []string{
		string(chart.Kind),
		"--title", chart.Title,
		"--delimiter", ",",
		"--output", "-",
		"--color-output",
		"--headers",
	}
	if chart.Kind == schema.HistogramChart {
		args = append(args, "--nbins", fmt.Sprint(histogramBins))
	}
	return args
}
