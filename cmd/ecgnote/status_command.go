package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ecgnote/internal/patientstore"
	"ecgnote/internal/stats"
)

type storeStatus struct {
	StorePath      string     `json:"store_path"`
	StoreBytes     int64      `json:"store_bytes"`
	Modified       time.Time  `json:"modified"`
	Total          int        `json:"total"`
	Annotated      int        `json:"annotated"`
	Partial        int        `json:"partial"`
	Remaining      int        `json:"remaining"`
	Printed        int        `json:"printed"`
	LastAnnotation *time.Time `json:"last_annotation,omitempty"`
	Locked         bool       `json:"locked"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var list bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show annotation and report progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.loadStore()
			if err != nil {
				return err
			}
			status, err := buildStoreStatus(cfg.Paths.StorePath, store)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Store", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range storeStatusLines(status, colorize) {
				fmt.Fprintln(out, line)
			}
			if list {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderPatientList(store))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List every patient")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func buildStoreStatus(path string, store *patientstore.Store) (storeStatus, error) {
	summary, err := stats.Collect(store)
	if err != nil {
		return storeStatus{}, err
	}
	status := storeStatus{
		StorePath: path,
		Total:     summary.Total,
		Annotated: summary.Annotated,
		Partial:   summary.Partial,
		Remaining: summary.Total - summary.Annotated,
		Printed:   summary.Printed,
	}
	if info, err := os.Stat(path); err == nil {
		status.StoreBytes = info.Size()
		status.Modified = info.ModTime()
	}

	var last time.Time
	for _, id := range store.IDs() {
		rec, err := store.Record(id)
		if err != nil {
			return storeStatus{}, err
		}
		if at := rec.AnnotationTime(); at.After(last) {
			last = at
		}
	}
	if !last.IsZero() {
		status.LastAnnotation = &last
	}

	if lock, err := patientstore.AcquireLock(path); err != nil {
		status.Locked = true
	} else {
		_ = lock.Release()
	}
	return status, nil
}

func storeStatusLines(s storeStatus, colorize bool) []string {
	lines := []string{
		renderStatusLine("Store", statusInfo, fmt.Sprintf("%s (%s, modified %s)", s.StorePath, humanize.Bytes(uint64(s.StoreBytes)), humanize.Time(s.Modified)), colorize),
	}

	kind := statusWarn
	if s.Remaining == 0 {
		kind = statusOK
	}
	lines = append(lines, renderStatusLine("Annotated", kind, fmt.Sprintf("%s of %s patients", humanize.Comma(int64(s.Annotated)), humanize.Comma(int64(s.Total))), colorize))
	lines = append(lines, renderStatusLine("Remaining", kind, humanize.Comma(int64(s.Remaining)), colorize))
	if s.Partial > 0 {
		lines = append(lines, renderStatusLine("Partially labeled", statusWarn, strconv.Itoa(s.Partial), colorize))
	}

	printedKind := statusInfo
	if s.Total > 0 && s.Printed == s.Total {
		printedKind = statusOK
	}
	lines = append(lines, renderStatusLine("Printed", printedKind, fmt.Sprintf("%d of %d records", s.Printed, s.Total), colorize))

	last := "never"
	if s.LastAnnotation != nil {
		last = fmt.Sprintf("%s (%s)", humanize.Time(*s.LastAnnotation), s.LastAnnotation.Format("2006-01-02 15:04"))
	}
	lines = append(lines, renderStatusLine("Last annotation", statusInfo, last, colorize))

	if s.Locked {
		lines = append(lines, renderStatusLine("Session", statusWarn, "store is locked by a running session", colorize))
	}
	return lines
}

func renderPatientList(store *patientstore.Store) string {
	ids := store.IDs()
	rows := make([][]string, 0, len(ids))
	for i, id := range ids {
		rec, err := store.Record(id)
		if err != nil {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			id,
			strings.Join(rec.Labels(), " "),
			yesNo(rec.IsAnnotated()),
			yesNo(rec.IsPrinted()),
			strconv.Itoa(len(rec.Images())),
		})
	}
	return renderTable(
		[]string{"#", "Patient", "Labels", "Annotated", "Printed", "Images"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}
