package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ecgnote/internal/patientstore"
	"ecgnote/internal/render"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the three segment images of every patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}
			return ctx.withLockedStore(func(store *patientstore.Store) error {
				renderer := render.New(cfg, store, logger)
				if force {
					renderer.SetForce(true)
				}
				if shouldColorize(cmd.ErrOrStderr()) {
					renderer.SetProgress(cmd.ErrOrStderr())
				}
				summary, err := renderer.Run(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d patients, skipped %d (images in %s)\n",
					summary.Rendered, summary.Skipped, cfg.Paths.RenderDir)
				return err
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Redraw patients that already have images")
	return cmd
}
