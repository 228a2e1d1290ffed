package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ecgnote/internal/logging"
	"ecgnote/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		sessionID string
		patientID string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the ecgnote log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogFile()
			if path == "" {
				return errors.New("file logging is disabled (paths.log_dir is empty)")
			}

			opts := logs.TailOptions{Offset: -1, Limit: lines}
			if sessionID != "" {
				opts.Match = append(opts.Match, logMatch(cfg.Logging.Format, logging.FieldSessionID, sessionID))
			}
			if patientID != "" {
				opts.Match = append(opts.Match, logMatch(cfg.Logging.Format, logging.FieldPatientID, patientID))
			}

			out := cmd.OutOrStdout()
			runCtx := cmd.Context()
			for {
				res, err := logs.Tail(runCtx, path, opts)
				for _, line := range res.Lines {
					fmt.Fprintln(out, line)
				}
				if errors.Is(err, context.Canceled) {
					return nil
				}
				if err != nil || !follow {
					return err
				}
				opts.Offset = res.Offset
				opts.Follow = true
				opts.Wait = time.Minute
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&sessionID, "session", "", "Only lines of this session id")
	cmd.Flags().StringVar(&patientID, "patient", "", "Only lines about this patient")
	return cmd
}

// logMatch is the text a log line carries for key=value in the given format.
func logMatch(format, key, value string) string {
	if format == "json" {
		return fmt.Sprintf("%q:%q", key, value)
	}
	return key + "=" + value
}
