package stats

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"ecgnote/internal/fileutil"
	"ecgnote/internal/labels"
)

const chartHeight = "480px"

var classColors = map[labels.Class]string{
	labels.ClassNormal:   "#3b6fd8",
	labels.ClassAbnormal: "#d8453b",
	labels.ClassOther:    "#8a8f98",
}

// Chart builds a bar chart of segment counts per label.
func Chart(s Summary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:     "100%",
			Height:    chartHeight,
			PageTitle: "ecgnote label distribution",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Label distribution",
			Subtitle: fmt.Sprintf("%d segments across %d annotated patients", s.Segments, s.Annotated),
			Left:     "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Label"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Segments"}),
	)

	codes := make([]string, len(s.Labels))
	values := make([]opts.BarData, len(s.Labels))
	for i, c := range s.Labels {
		codes[i] = c.Code
		values[i] = opts.BarData{
			Name:      c.Description,
			Value:     c.Segments,
			ItemStyle: &opts.ItemStyle{Color: classColors[c.Class]},
		}
	}
	bar.SetXAxis(codes)
	bar.AddSeries("Segments", values,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

// WriteChart renders the chart as a standalone HTML page at path.
func WriteChart(path string, s Summary) error {
	bar := Chart(s)
	return fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return bar.Render(w)
	})
}
