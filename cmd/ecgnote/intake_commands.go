package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"ecgnote/internal/config"
	"ecgnote/internal/intake"
	"ecgnote/internal/patientstore"
	"ecgnote/internal/technician"
)

func newIntakeCommand(ctx *commandContext) *cobra.Command {
	intakeCmd := &cobra.Command{
		Use:   "intake",
		Short: "Build the roster and the patient store from raw measurements",
	}
	intakeCmd.AddCommand(newIntakeRosterCommand(ctx))
	intakeCmd.AddCommand(newIntakeConvertCommand(ctx))
	return intakeCmd
}

func newIntakeRosterCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "roster <csv-root>",
		Short: "Collect the CSV files of every patient directory into a roster JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			target := outPath
			if target == "" {
				target = filepath.Join(filepath.Dir(cfg.Paths.StorePath), "id.json")
			}
			if target, err = config.ExpandPath(target); err != nil {
				return err
			}

			var names intake.NameLookup
			roster, err := technician.Load(cfg.Report.TechnicianCSV)
			switch {
			case err == nil:
				names = roster
			case errors.Is(err, fs.ErrNotExist):
				fmt.Fprintf(cmd.ErrOrStderr(), "Technician roster %s not found; names left empty\n", cfg.Report.TechnicianCSV)
			default:
				return err
			}

			entries, err := intake.ScanCSVRoot(root, names)
			if err != nil {
				return err
			}
			added, updated, err := intake.MergeRoster(target, entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Roster %s: %d added, %d updated\n", target, added, updated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Roster JSON to update (default: id.json next to the store)")
	return cmd
}

func newIntakeConvertCommand(ctx *commandContext) *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "convert <dump.json>",
		Short: "Add the records of a raw measurement dump to the patient store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			dst := cfg.Paths.StorePath
			if storePath != "" {
				if dst, err = config.ExpandPath(storePath); err != nil {
					return err
				}
			}

			lock, err := patientstore.AcquireLock(dst)
			if err != nil {
				return err
			}
			defer lock.Release()

			summary, err := intake.Convert(src, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Store %s: %d added, %d already present\n", dst, summary.Added, summary.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&storePath, "store", "", "Store document to write (default: paths.store_path)")
	return cmd
}
