package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ecgnote/internal/ledger"
	"ecgnote/internal/logging"
	"ecgnote/internal/patientstore"
	"ecgnote/internal/report"
	"ecgnote/internal/technician"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "report [patient-id...]",
		Short: "Write PDF reports for patients",
		Long: `Write one PDF per patient, merged behind the configured cover.

Without arguments every patient with an unprinted record is reported. --all
reprints every patient in the store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}
			runCtx := logging.WithSessionID(cmd.Context(), uuid.NewString())
			logger = logging.WithContext(runCtx, logger)

			roster, err := technician.Load(cfg.Report.TechnicianCSV)
			if err != nil {
				return err
			}
			history, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return err
			}
			defer history.Close()

			out := cmd.OutOrStdout()
			return ctx.withLockedStore(func(store *patientstore.Store) error {
				gen := report.NewGenerator(cfg, store, roster, history, logger)

				ids := args
				switch {
				case len(ids) > 0:
				case all:
					ids, err = report.UniquePatients(store)
				default:
					ids, err = gen.Pending()
				}
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Fprintln(out, "Nothing to report")
					return nil
				}

				results, runErr := gen.Run(runCtx, ids)
				fmt.Fprint(out, renderReportResults(results))
				fmt.Fprintln(out)
				return runErr
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Report every patient, including already printed ones")
	cmd.AddCommand(newReportHistoryCommand(ctx))
	return cmd
}

func renderReportResults(results []report.Result) string {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := "ok"
		output := res.OutputPath
		if res.Err != nil {
			status = "failed"
			output = res.Err.Error()
		} else if info, err := os.Stat(res.OutputPath); err == nil {
			output = fmt.Sprintf("%s (%s)", filepath.Base(res.OutputPath), humanize.Bytes(uint64(info.Size())))
		}
		rows = append(rows, []string{
			res.PatientID,
			res.Technician,
			strconv.Itoa(res.Records),
			strconv.Itoa(res.Pages),
			status,
			output,
		})
	}
	return renderTable(
		[]string{"Patient", "Technician", "Records", "Pages", "Status", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func newReportHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		patientID string
		status    string
		limit     int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past report runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := ledger.Filter{PatientID: patientID, Limit: limit}
			switch ledger.Status(status) {
			case "", ledger.StatusSucceeded, ledger.StatusFailed:
				filter.Status = ledger.Status(status)
			default:
				return fmt.Errorf("unknown status %q (want %s or %s)", status, ledger.StatusSucceeded, ledger.StatusFailed)
			}

			history, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return err
			}
			defer history.Close()

			runs, err := history.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No report runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				detail := run.OutputPath
				if run.Status == ledger.StatusFailed {
					detail = run.Error
				}
				rows = append(rows, []string{
					humanize.Time(run.CreatedAt),
					run.PatientID,
					run.Technician,
					strconv.Itoa(run.Pages),
					string(run.Status),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Patient", "Technician", "Pages", "Status", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))

			if patientID != "" {
				last, ok, err := history.LastSuccess(cmd.Context(), patientID)
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintf(out, "Last successful report: %s (%s)\n", last.OutputPath, last.CreatedAt.Local().Format("2006-01-02 15:04"))
				} else {
					fmt.Fprintln(out, "No successful report for this patient yet")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&patientID, "patient", "", "Only runs for this patient")
	cmd.Flags().StringVar(&status, "status", "", "Only runs with this status (succeeded, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 lists all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}
