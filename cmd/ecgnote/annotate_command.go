package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ecgnote/internal/annotation"
	"ecgnote/internal/labels"
	"ecgnote/internal/logging"
	"ecgnote/internal/patientstore"
	"ecgnote/internal/render"
	"ecgnote/internal/terminal"
)

func newAnnotateCommand(ctx *commandContext) *cobra.Command {
	var skipRender bool
	var saveEvery int
	var labelSet string

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Label every unannotated patient, one key per segment",
		Long: `Walk the store in document order and ask for one label per segment.

Backspace clears the current patient and steps back, Esc or Ctrl-C saves and
quits. The store is written every save_every completed patients and always
when the session ends.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			annotationCfg := cfg.Annotation
			if labelSet != "" {
				annotationCfg.LabelSet = labelSet
			}
			if saveEvery > 0 {
				annotationCfg.SaveEvery = saveEvery
			}
			set, err := labels.FromConfig(annotationCfg)
			if err != nil {
				return err
			}

			logger, err := ctx.logger(true)
			if err != nil {
				return err
			}
			runCtx := logging.WithSessionID(cmd.Context(), uuid.NewString())
			logger = logging.WithContext(runCtx, logger)

			stdout := cmd.OutOrStdout()
			return ctx.withLockedStore(func(store *patientstore.Store) error {
				if !skipRender {
					renderer := render.New(cfg, store, logger)
					if shouldColorize(cmd.ErrOrStderr()) {
						renderer.SetProgress(cmd.ErrOrStderr())
					}
					summary, err := renderer.Run(runCtx)
					if err != nil {
						return fmt.Errorf("render before annotate: %w", err)
					}
					if summary.Rendered > 0 {
						fmt.Fprintf(stdout, "Rendered %d patients\n", summary.Rendered)
					}
				}

				keys := terminal.NewKeyReader(cmd.InOrStdin())
				if err := keys.EnableRaw(); err != nil {
					return fmt.Errorf("enable raw terminal: %w", err)
				}
				presenter := terminal.NewPresenter(stdout, set, shouldColorize(stdout), keys.Raw())

				engine, err := annotation.NewEngine(store, keys, presenter, set,
					annotation.WithSaveEvery(annotationCfg.SaveEvery),
					annotation.WithRenderDir(cfg.Paths.RenderDir),
					annotation.WithLogger(logger),
				)
				if err != nil {
					_ = keys.Restore()
					return err
				}

				session, runErr := engine.Run(runCtx)
				restoreErr := keys.Restore()
				fmt.Fprintln(stdout)
				printSessionSummary(stdout, session, store.AnnotatedCount())

				if errors.Is(runErr, io.EOF) {
					fmt.Fprintln(stdout, "Input closed; progress saved")
					runErr = nil
				}
				return errors.Join(runErr, restoreErr)
			})
		},
	}

	cmd.Flags().BoolVar(&skipRender, "no-render", false, "Do not render missing segment images before the session")
	cmd.Flags().IntVar(&saveEvery, "save-every", 0, "Override annotation.save_every for this session")
	cmd.Flags().StringVar(&labelSet, "labels", "", "Override annotation.label_set (minimal, extended, custom)")
	return cmd
}

func printSessionSummary(out io.Writer, s annotation.Session, annotated int) {
	rows := [][]string{
		{"Labeled this session", fmt.Sprintf("%d", s.Completed)},
		{"Checkpoints", fmt.Sprintf("%d", s.Checkpoints)},
		{"Annotated", fmt.Sprintf("%d / %d", annotated, s.Total)},
	}
	fmt.Fprintln(out, renderTable([]string{"Session", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}
