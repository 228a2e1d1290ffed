package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ecgnote/internal/config"
	"ecgnote/internal/fileutil"
	"ecgnote/internal/ledger"
	"ecgnote/internal/logging"
	"ecgnote/internal/patientstore"
)

// Store is the part of the patient store the generator uses.
type Store interface {
	RecordSource
	MarkPrinted(id string) error
	Save() error
}

// Roster resolves technician names.
type Roster interface {
	Name(patientID string) (string, error)
}

// Recorder keeps the history of report runs.
type Recorder interface {
	Record(ctx context.Context, run ledger.Run) (ledger.Run, error)
}

// Result describes one patient's report.
type Result struct {
	RunID      string
	PatientID  string
	Technician string
	OutputPath string
	Records    int
	Pages      int
	Err        error
}

// Generator produces patient reports.
type Generator struct {
	cfg      config.Report
	dir      string
	render   string
	store    Store
	roster   Roster
	recorder Recorder
	merger   Merger
	wording  Wording
	logger   *slog.Logger
}

// NewGenerator wires a generator. recorder may be nil.
func NewGenerator(cfg *config.Config, store Store, roster Roster, recorder Recorder, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:      cfg.Report,
		dir:      cfg.Paths.ReportDir,
		render:   cfg.Paths.RenderDir,
		store:    store,
		roster:   roster,
		recorder: recorder,
		merger:   PDFCPU{},
		wording:  NewWording(cfg.Report.Descriptions),
		logger:   logging.NewComponentLogger(logger, "report"),
	}
}

// SetMerger replaces the PDF merger.
func (g *Generator) SetMerger(m Merger) {
	if m != nil {
		g.merger = m
	}
}

// Pending returns patients with at least one record not yet printed.
func (g *Generator) Pending() ([]string, error) {
	patients, err := UniquePatients(g.store)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, pid := range patients {
		keys, err := RecordsFor(g.store, pid)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			rec, err := g.store.Record(key)
			if err != nil {
				return nil, err
			}
			if !rec.IsPrinted() {
				out = append(out, pid)
				break
			}
		}
	}
	return out, nil
}

// Run reports each patient in turn. A failing patient is recorded and
// skipped; the returned error joins every failure.
func (g *Generator) Run(ctx context.Context, patientIDs []string) ([]Result, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	coverPages, err := g.coverPages()
	if err != nil {
		return nil, err
	}

	var (
		results []Result
		errs    []error
	)
	for _, pid := range patientIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res := g.generate(pid, coverPages)
		if res.Err == nil {
			res.Err = g.markPrinted(pid)
		}
		res = g.record(ctx, res)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("report %s: %w", pid, res.Err))
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (g *Generator) coverPages() (int, error) {
	if g.cfg.CoverPDF == "" {
		return 0, nil
	}
	if g.cfg.CoverPages > 0 {
		return g.cfg.CoverPages, nil
	}
	n, err := g.merger.PageCount(g.cfg.CoverPDF)
	if err != nil {
		return 0, fmt.Errorf("count cover pages: %w", err)
	}
	return n, nil
}

func (g *Generator) generate(pid string, coverPages int) Result {
	res := Result{PatientID: pid}
	logger := g.logger.With(logging.String(logging.FieldPatientID, pid))

	name, err := g.roster.Name(pid)
	if err != nil {
		res.Err = err
		return res
	}
	res.Technician = name

	keys, err := RecordsFor(g.store, pid)
	if err != nil {
		res.Err = err
		return res
	}
	if len(keys) == 0 {
		res.Err = fmt.Errorf("%s: %w", pid, patientstore.ErrNotFound)
		return res
	}
	records := make([][]Attribute, 0, len(keys))
	for _, key := range keys {
		rec, err := g.store.Record(key)
		if err != nil {
			res.Err = err
			return res
		}
		attrs, err := RecordAttributes(rec, g.render, g.wording)
		if err != nil {
			res.Err = err
			return res
		}
		records = append(records, attrs)
	}
	res.Records = len(records)

	doc := NewPDF(g.cfg.FontPath)
	header := PageHeader{
		Title:      g.cfg.Title,
		Technician: name,
		LegendText: g.cfg.LegendText,
		Logo:       g.cfg.Logo,
		Board:      g.cfg.Board,
	}
	if err := Layout(doc, header, coverPages, records); err != nil {
		res.Err = err
		return res
	}

	content, err := os.CreateTemp(g.dir, ".content-"+fileutil.SanitizeFileName(pid)+"-*.pdf")
	if err != nil {
		res.Err = fmt.Errorf("create content pdf: %w", err)
		return res
	}
	contentPath := content.Name()
	defer os.Remove(contentPath)
	writeErr := doc.Write(content)
	closeErr := content.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		res.Err = err
		return res
	}

	out := filepath.Join(g.dir, OutputName(pid, name))
	if err := g.assemble(out, contentPath); err != nil {
		res.Err = err
		return res
	}
	res.OutputPath = out

	pages, err := g.merger.PageCount(out)
	if err != nil {
		logger.Warn("could not count report pages", logging.Error(err))
		pages = PageCount(len(records), coverPages)
	}
	res.Pages = pages
	logger.Info("report written",
		logging.String("path", out),
		logging.Int("records", res.Records),
		logging.Int("pages", res.Pages),
	)
	return res
}

// assemble builds the final report next to out and renames it into place,
// so a failed merge never replaces a report delivered earlier.
func (g *Generator) assemble(out, contentPath string) error {
	staged, err := os.CreateTemp(g.dir, ".report-*.pdf")
	if err != nil {
		return fmt.Errorf("create staged report: %w", err)
	}
	stagedPath := staged.Name()
	_ = staged.Close()
	defer os.Remove(stagedPath)

	if g.cfg.CoverPDF != "" {
		err = g.merger.Merge(stagedPath, g.cfg.CoverPDF, contentPath)
	} else {
		err = fileutil.CopyFile(contentPath, stagedPath)
	}
	if err != nil {
		return fmt.Errorf("merge cover and content: %w", err)
	}
	if err := os.Chmod(stagedPath, 0o644); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	if err := os.Rename(stagedPath, out); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}

func (g *Generator) markPrinted(pid string) error {
	keys, err := RecordsFor(g.store, pid)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := g.store.MarkPrinted(key); err != nil {
			return err
		}
	}
	return g.store.Save()
}

func (g *Generator) record(ctx context.Context, res Result) Result {
	if res.Err != nil {
		g.logger.Error("report failed",
			logging.String(logging.FieldPatientID, res.PatientID),
			logging.Error(res.Err),
		)
	}
	if g.recorder == nil {
		return res
	}
	run := ledger.Run{
		PatientID:  res.PatientID,
		Technician: res.Technician,
		OutputPath: res.OutputPath,
		Pages:      res.Pages,
		Records:    res.Records,
		Status:     ledger.StatusSucceeded,
	}
	if res.Err != nil {
		run.Status = ledger.StatusFailed
		run.Error = res.Err.Error()
	}
	stored, err := g.recorder.Record(ctx, run)
	if err != nil {
		g.logger.Warn("could not record report run", logging.Error(err))
		return res
	}
	res.RunID = stored.ID
	return res
}

// OutputName is the final report file name for a patient.
func OutputName(patientID, technician string) string {
	id := fileutil.SanitizeFileName(patientID)
	name := fileutil.SanitizeFileName(technician)
	if name == "" {
		return id + ".pdf"
	}
	return id + "_" + name + ".pdf"
}
