package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"ecgnote/internal/config"
	"ecgnote/internal/fileutil"
	"ecgnote/internal/logging"
	"ecgnote/internal/patientstore"
)

// Store is the part of the patient store the renderer needs.
type Store interface {
	IDs() []string
	Record(id string) (*patientstore.Record, error)
	SetImages(id string, names []string) error
	Save() error
}

// Summary counts what a run did.
type Summary struct {
	Rendered int
	Skipped  int
}

// Renderer writes segment images for every patient in a store.
type Renderer struct {
	store    Store
	dir      string
	canvas   Canvas
	force    bool
	logger   *slog.Logger
	progress io.Writer
}

// New builds a renderer from the render and path settings.
func New(cfg *config.Config, store Store, logger *slog.Logger) *Renderer {
	return &Renderer{
		store: store,
		dir:   cfg.Paths.RenderDir,
		canvas: Canvas{
			Width:     cfg.Render.Width,
			Height:    cfg.Render.Height,
			LineWidth: cfg.Render.LineWidth,
		},
		force:  cfg.Render.Force,
		logger: logging.NewComponentLogger(logger, "render"),
	}
}

// SetForce re-renders patients that already have images.
func (r *Renderer) SetForce(force bool) { r.force = force }

// SetProgress shows a progress bar on w while rendering. nil disables it.
func (r *Renderer) SetProgress(w io.Writer) { r.progress = w }

// ImageName is the file name of a patient's segment image.
func ImageName(id string, segment int) string {
	return fmt.Sprintf("%s-%d.png", id, segment)
}

// Run renders every patient that has no images yet, or all of them when
// forced, and saves the store if anything changed. A patient whose
// attributes cannot be drawn stops the run.
func (r *Renderer) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return summary, fmt.Errorf("create render dir: %w", err)
	}

	ids := r.store.IDs()
	var bar *progressbar.ProgressBar
	if r.progress != nil {
		bar = progressbar.NewOptions(len(ids),
			progressbar.OptionSetWriter(r.progress),
			progressbar.OptionSetDescription("rendering"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var runErr error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		rendered, err := r.renderPatient(id)
		if err != nil {
			runErr = err
			break
		}
		if rendered {
			summary.Rendered++
		} else {
			summary.Skipped++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if summary.Rendered > 0 {
		if err := r.store.Save(); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	r.logger.Info("render finished",
		logging.Int("rendered", summary.Rendered),
		logging.Int("skipped", summary.Skipped),
		logging.Bool("force", r.force),
	)
	return summary, runErr
}

func (r *Renderer) renderPatient(id string) (bool, error) {
	rec, err := r.store.Record(id)
	if err != nil {
		return false, err
	}
	if len(rec.Images()) > 0 && !r.force {
		return false, nil
	}

	names := make([]string, 0, patientstore.SegmentsPerPatient)
	for segment := 1; segment <= patientstore.SegmentsPerPatient; segment++ {
		panels, err := segmentPanels(rec, segment)
		if err != nil {
			return false, err
		}
		name := ImageName(id, segment)
		err = fileutil.WriteFileAtomic(filepath.Join(r.dir, name), 0o644, func(w io.Writer) error {
			return r.canvas.Draw(w, panels...)
		})
		if err != nil {
			return false, fmt.Errorf("write %s: %w", name, err)
		}
		names = append(names, name)
	}
	if err := r.store.SetImages(id, names); err != nil {
		return false, err
	}
	r.logger.Debug("patient rendered", logging.String(logging.FieldPatientID, id))
	return true, nil
}

func segmentPanels(rec *patientstore.Record, segment int) ([]Panel, error) {
	rawLR, denoisedLR, err := rec.LR(segment)
	if err != nil {
		return nil, err
	}
	raw, err := rec.Segment(patientstore.KeyRawVoltage, segment)
	if err != nil {
		return nil, err
	}
	denoised, err := rec.Segment(patientstore.KeyDenoised, segment)
	if err != nil {
		return nil, err
	}
	of := patientstore.SegmentsPerPatient
	return []Panel{
		{Title: fmt.Sprintf("Original %d/%d  LR %s", segment, of, rawLR), Samples: raw},
		{Title: fmt.Sprintf("Denoised %d/%d  LR %s", segment, of, denoisedLR), Samples: denoised},
	}, nil
}
