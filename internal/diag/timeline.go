// Package diag renders a per-frame timeline of PPU mode against dot using
// gonum.org/v1/plot, the plotting library the rest of the example pack uses
// for offline analysis charts. STAT IRQ sources are not plotted.
package diag

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ModeSample is one recorded (cycle, mode) observation, typically collected
// by a test harness or CLI subcommand driving PPU.Step in a loop and
// inspecting its exported Mode() accessor every dot.
type ModeSample struct {
	Cycle int
	Mode  uint8 // 0=HBlank 1=VBlank 2=OamEvaluation 3=Drawing
}

// RenderModeTimeline plots mode (y-axis, 0..3) against dot index (x-axis)
// for one frame's worth of samples and writes a PNG to filename.
func RenderModeTimeline(samples []ModeSample, filename string) error {
	p := plot.New()
	p.Title.Text = "PPU mode timeline"
	p.X.Label.Text = "dot"
	p.Y.Label.Text = "mode"

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = float64(s.Cycle)
		pts[i].Y = float64(s.Mode)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("diag: new line: %w", err)
	}
	line.LineStyle.Width = vg.Points(1)
	p.Add(line)

	img := vgimg.NewWith(vgimg.UseWH(10*vg.Inch, 3*vg.Inch), vgimg.UseDPI(96))
	dc := draw.New(img)
	p.Draw(dc)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("diag: create %s: %w", filename, err)
	}
	defer f.Close()

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return fmt.Errorf("diag: write %s: %w", filename, err)
	}
	return nil
}
