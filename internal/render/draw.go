package render

import (
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"
)

// Panel is one trace of a segment image.
type Panel struct {
	Title   string
	Samples []float64
}

// Canvas holds image geometry.
type Canvas struct {
	Width     int
	Height    int
	LineWidth float64
}

const (
	marginX     = 8.0
	titleHeight = 16.0
)

// Draw renders the panels stacked vertically and encodes a PNG to w.
func (c Canvas) Draw(w io.Writer, panels ...Panel) error {
	if len(panels) == 0 {
		return fmt.Errorf("nothing to draw")
	}
	dc := gg.NewContext(c.Width, c.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	panelHeight := float64(c.Height) / float64(len(panels))
	for i, panel := range panels {
		top := float64(i) * panelHeight
		if i > 0 {
			dc.SetRGB(0.6, 0.6, 0.6)
			dc.SetLineWidth(1)
			dc.DrawLine(0, top, float64(c.Width), top)
			dc.Stroke()
		}
		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawStringAnchored(panel.Title, marginX, top+titleHeight/2, 0, 0.5)
		c.trace(dc, panel.Samples, top+titleHeight, panelHeight-titleHeight-4)
	}
	return dc.EncodePNG(w)
}

func (c Canvas) trace(dc *gg.Context, samples []float64, top, height float64) {
	if len(samples) < 2 || height <= 0 {
		return
	}
	lo, hi := samples[0], samples[0]
	for _, v := range samples {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	width := float64(c.Width) - 2*marginX
	step := width / float64(len(samples)-1)

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(c.LineWidth)
	for i, v := range samples {
		x := marginX + float64(i)*step
		y := top + height - (v-lo)/span*height
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()
}
