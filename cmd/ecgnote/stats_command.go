package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"ecgnote/internal/config"
	"ecgnote/internal/stats"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var chartPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show how often each label was used",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.loadStore()
			if err != nil {
				return err
			}
			summary, err := stats.Collect(store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(summary.Labels) == 0 {
				fmt.Fprintln(out, "No labels recorded yet")
			} else {
				fmt.Fprintln(out, renderLabelStats(summary))
			}

			if chartPath == "" {
				return nil
			}
			target, err := config.ExpandPath(chartPath)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create chart directory: %w", err)
			}
			if err := stats.WriteChart(target, summary); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Fprintf(out, "Wrote chart to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&chartPath, "chart", "", "Also write an HTML bar chart to this path")
	return cmd
}

func renderLabelStats(s stats.Summary) string {
	rows := make([][]string, 0, len(s.Labels))
	for _, c := range s.Labels {
		rows = append(rows, []string{
			c.Code,
			c.Description,
			c.Class.String(),
			strconv.Itoa(c.Segments),
			strconv.Itoa(c.Patients),
			fmt.Sprintf("%.1f%%", 100*s.Share(c)),
		})
	}
	title := fmt.Sprintf("%d annotated, %d partial, %d total", s.Annotated, s.Partial, s.Total)
	return renderTitledTable(title,
		[]string{"Label", "Meaning", "Class", "Segments", "Patients", "Share"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
		[]string{"Total", "", "", strconv.Itoa(s.Segments), "", ""},
	)
}
