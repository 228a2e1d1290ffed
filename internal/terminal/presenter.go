package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"ecgnote/internal/annotation"
	"ecgnote/internal/labels"
	"ecgnote/internal/patientstore"
)

const defaultSparkWidth = 64

// Presenter prints prompts as plain text.
type Presenter struct {
	out        io.Writer
	set        *labels.Set
	raw        bool
	sparkWidth int
	legendDone bool

	heading  *color.Color
	normal   *color.Color
	abnormal *color.Color
	dim      *color.Color
}

// NewPresenter writes prompts to out. colorize enables ANSI colors; raw
// translates line feeds for a terminal in raw mode.
func NewPresenter(out io.Writer, set *labels.Set, colorize, raw bool) *Presenter {
	p := &Presenter{
		out:        out,
		set:        set,
		raw:        raw,
		sparkWidth: defaultSparkWidth,
		heading:    color.New(color.Bold),
		normal:     color.New(color.FgBlue),
		abnormal:   color.New(color.FgRed),
		dim:        color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.heading, p.normal, p.abnormal, p.dim} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Legend renders the key bindings of the active label set.
func (p *Presenter) Legend() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("labels: %s", p.set.Name())
	tw.AppendHeader(table.Row{"Key", "Label", "Meaning"})
	for _, label := range p.set.Entries() {
		tw.AppendRow(table.Row{string(label.Key), p.colorLabel(label.Code), label.Description})
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"Backspace", "undo", "Clear this patient and step back"})
	tw.AppendRow(table.Row{"Esc", "exit", "Save and quit"})
	return tw.Render()
}

// Present implements annotation.Presenter.
func (p *Presenter) Present(prompt annotation.Prompt) error {
	var b strings.Builder
	if !p.legendDone {
		b.WriteString(p.Legend())
		b.WriteString("\n")
		p.legendDone = true
	}

	if prompt.Segment == 1 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s  [%d / %d]  segment %d/%d\n",
		p.heading.Sprint(prompt.PatientID),
		prompt.Current, prompt.Remaining,
		prompt.Segment, patientstore.SegmentsPerPatient,
	)

	if rec := prompt.Record; rec != nil {
		rawLR, denoisedLR, err := rec.LR(prompt.Segment)
		if err != nil {
			return err
		}
		rawSeg, err := rec.Segment(patientstore.KeyRawVoltage, prompt.Segment)
		if err != nil {
			return err
		}
		denoisedSeg, err := rec.Segment(patientstore.KeyDenoised, prompt.Segment)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "  original  %s  LR %s\n", Sparkline(rawSeg, p.sparkWidth), rawLR)
		fmt.Fprintf(&b, "  denoised  %s  LR %s\n", Sparkline(denoisedSeg, p.sparkWidth), denoisedLR)
	}
	if prompt.ImagePath != "" {
		fmt.Fprintf(&b, "  %s\n", p.dim.Sprint(prompt.ImagePath))
	}
	if len(prompt.Labels) > 0 {
		codes := make([]string, 0, len(prompt.Labels))
		for _, code := range prompt.Labels {
			codes = append(codes, p.colorLabel(code))
		}
		fmt.Fprintf(&b, "  so far: %s\n", strings.Join(codes, " "))
	}
	b.WriteString("  label> ")

	text := b.String()
	if p.raw {
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	_, err := io.WriteString(p.out, text)
	return err
}

func (p *Presenter) colorLabel(code string) string {
	switch labels.Describe(code).Class {
	case labels.ClassNormal:
		return p.normal.Sprint(code)
	case labels.ClassAbnormal:
		return p.abnormal.Sprint(code)
	default:
		return code
	}
}
