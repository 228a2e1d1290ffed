package annotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"ecgnote/internal/labels"
	"ecgnote/internal/logging"
	"ecgnote/internal/patientstore"
)

// DefaultSaveEvery is the checkpoint period used when none is configured.
const DefaultSaveEvery = 20

// Engine drives an annotation session over a Store.
type Engine struct {
	store     Store
	keys      KeySource
	presenter Presenter
	labels    *labels.Set
	saveEvery int
	renderDir string
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithSaveEvery sets how many completed patients trigger a checkpoint.
func WithSaveEvery(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.saveEvery = n
		}
	}
}

// WithRenderDir sets the directory that holds rendered segment images.
func WithRenderDir(dir string) Option {
	return func(e *Engine) { e.renderDir = dir }
}

// WithClock replaces the clock used for annotation timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine constructs an engine. The label set decides which keys produce
// labels; the session control keys are fixed.
func NewEngine(store Store, keys KeySource, presenter Presenter, set *labels.Set, opts ...Option) (*Engine, error) {
	if store == nil || keys == nil || presenter == nil {
		return nil, errors.New("annotation engine needs a store, a key source and a presenter")
	}
	if set == nil || set.Len() == 0 {
		return nil, errors.New("annotation engine needs a non-empty label set")
	}
	e := &Engine{
		store:     store,
		keys:      keys,
		presenter: presenter,
		labels:    set,
		saveEvery: DefaultSaveEvery,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "annotate")
	return e, nil
}

// Start measures the store and returns the initial session.
func (e *Engine) Start() Session {
	total := e.store.Len()
	done := e.store.AnnotatedCount()
	return Session{
		Total:       total,
		DoneAtStart: done,
		Remaining:   total - done,
	}
}

// Run walks the whole store. It always ends with a forced checkpoint, also
// when the operator exits or input fails.
func (e *Engine) Run(ctx context.Context) (Session, error) {
	s := e.Start()
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("annotation session started",
		logging.Int("patients", s.Total),
		logging.Int("remaining", s.Remaining),
		logging.String("label_set", e.labels.Name()),
		logging.Int("save_every", e.saveEvery),
	)

	s, runErr := e.walk(ctx, s)
	s, saveErr := e.checkpoint(ctx, s, true)
	if err := errors.Join(runErr, saveErr); err != nil {
		logger.Error("annotation session failed", logging.Error(err), logging.Int("completed", s.Completed))
		return s, err
	}
	logger.Info("annotation session finished",
		logging.Int("completed", s.Completed),
		logging.Int("checkpoints", s.Checkpoints),
		logging.Int("annotated", e.store.AnnotatedCount()),
	)
	return s, nil
}

func (e *Engine) walk(ctx context.Context, s Session) (Session, error) {
	for s.Cursor < s.Total {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		id, err := e.store.IDAt(s.Cursor)
		if err != nil {
			return s, err
		}
		rec, err := e.store.Record(id)
		if err != nil {
			return s, err
		}
		if rec.IsAnnotated() {
			s.Cursor++
			continue
		}

		var outcome Outcome
		s, outcome, err = e.AnnotateOne(ctx, s)
		if err != nil {
			return s, err
		}
		if outcome == Exit {
			logging.WithContext(ctx, e.logger).Info("session cancelled by operator", logging.String(logging.FieldPatientID, id))
			return s, nil
		}
	}
	return s, nil
}

// AnnotateOne collects the remaining segment labels of the patient at the
// cursor. A patient that kept some labels from an earlier session resumes at
// its first unlabeled segment.
func (e *Engine) AnnotateOne(ctx context.Context, s Session) (Session, Outcome, error) {
	id, err := e.store.IDAt(s.Cursor)
	if err != nil {
		return s, Exit, err
	}
	logger := logging.WithContext(ctx, e.logger).With(logging.String(logging.FieldPatientID, id))

	for {
		rec, err := e.store.Record(id)
		if err != nil {
			return s, Exit, err
		}
		committed := rec.Labels()
		if len(committed) >= patientstore.SegmentsPerPatient {
			s.Cursor++
			return s, Next, nil
		}
		segment := len(committed) + 1

		current, remaining := s.Progress()
		prompt := Prompt{
			PatientID: id,
			Index:     s.Cursor,
			Segment:   segment,
			Current:   current,
			Remaining: remaining,
			Labels:    committed,
			ImagePath: e.imagePath(rec, segment),
			Record:    rec,
		}
		if err := e.presenter.Present(prompt); err != nil {
			return s, Exit, fmt.Errorf("present %s segment %d: %w", id, segment, err)
		}

		key, err := e.keys.ReadKey(ctx)
		if err != nil {
			return s, Exit, fmt.Errorf("read key: %w", err)
		}

		switch {
		case key == labels.KeyEscape || key == labels.KeyCtrlC:
			return s, Exit, nil
		case key == labels.KeyBackspace || key == labels.KeyDelete:
			if err := e.store.Revert(id); err != nil {
				return s, Exit, err
			}
			if s.Cursor > 0 {
				s.Cursor--
			}
			logger.Info("patient reverted", logging.Int("cursor", s.Cursor))
			return s, Prev, nil
		}

		label, ok := e.labels.Lookup(key)
		if !ok {
			logger.Debug("ignoring unbound key", logging.Int("key", int(key)))
			continue
		}
		complete, err := e.store.Commit(id, label.Code, e.now())
		if err != nil {
			return s, Exit, err
		}
		logger.Debug("label committed",
			logging.Int(logging.FieldSegment, segment),
			logging.String("label", label.Code),
		)
		if complete {
			s.Cursor++
			s.Completed++
			s.SinceLastSave++
			s, err = e.checkpoint(ctx, s, false)
			return s, Next, err
		}
	}
}

// checkpoint saves the store when forced or when SaveEvery patients have
// been completed since the last save. A save resets the counter.
func (e *Engine) checkpoint(ctx context.Context, s Session, force bool) (Session, error) {
	if !force && s.SinceLastSave < e.saveEvery {
		return s, nil
	}
	if err := e.store.Save(); err != nil {
		return s, fmt.Errorf("checkpoint: %w", err)
	}
	logging.WithContext(ctx, e.logger).Info("checkpoint written",
		logging.Bool("forced", force),
		logging.Int("patients_since_last", s.SinceLastSave),
		logging.Int("cursor", s.Cursor),
	)
	s.SinceLastSave = 0
	s.Checkpoints++
	return s, nil
}

func (e *Engine) imagePath(rec *patientstore.Record, segment int) string {
	images := rec.Images()
	if segment < 1 || segment > len(images) || images[segment-1] == "" {
		return ""
	}
	if e.renderDir == "" || filepath.IsAbs(images[segment-1]) {
		return images[segment-1]
	}
	return filepath.Join(e.renderDir, images[segment-1])
}
