package testsupport

import (
	"path/filepath"
	"testing"

	"ecgnote/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StorePath = filepath.Join(base, "master_ecg.json")
	cfgVal.Paths.RenderDir = filepath.Join(base, "render_vis")
	cfgVal.Paths.ReportDir = filepath.Join(base, "pdf_results")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Report.CoverPDF = ""
	cfgVal.Report.Logo = ""
	cfgVal.Report.Board = ""
	cfgVal.Report.TechnicianCSV = filepath.Join(base, "technician.csv")
	cfgVal.Render.Width = 300
	cfgVal.Render.Height = 120

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSaveEvery overrides the checkpoint period.
func WithSaveEvery(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Annotation.SaveEvery = n
	}
}

// WithLabelSet selects a built-in label set.
func WithLabelSet(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Annotation.LabelSet = name
	}
}

// WithStore writes a fixture store with the given patients to the configured
// store path.
func WithStore(patients ...Patient) ConfigOption {
	return func(b *configBuilder) {
		WriteStore(b.t, b.cfg.Paths.StorePath, patients...)
	}
}

// WithTechnicians writes the technician roster CSV.
func WithTechnicians(rows map[string]string) ConfigOption {
	return func(b *configBuilder) {
		WriteTechnicianCSV(b.t, b.cfg.Report.TechnicianCSV, rows)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StorePath)
}
