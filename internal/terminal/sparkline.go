package terminal

import (
	"math"
	"strings"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values as a row of block characters at most width wide.
// Each column shows the sample with the largest deviation in its bucket, so
// R peaks survive downsampling.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if width > len(values) {
		width = len(values)
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	columns := make([]float64, width)
	for c := range columns {
		start := c * len(values) / width
		end := (c + 1) * len(values) / width
		pick := values[start]
		for _, v := range values[start:end] {
			if math.Abs(v-mean) > math.Abs(pick-mean) {
				pick = v
			}
		}
		columns[c] = pick
	}

	lo, hi := columns[0], columns[0]
	for _, v := range columns {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var b strings.Builder
	for _, v := range columns {
		idx := 0
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1)))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}
