package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecgnote/internal/config"
	"ecgnote/internal/patientstore"
	"ecgnote/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("ECGNOTE_STORE", "")

	defaults := []testsupport.ConfigOption{
		testsupport.WithStore(
			testsupport.Patient{ID: "P1_1", PatientID: "P1"},
			testsupport.Patient{ID: "P1_2", PatientID: "P1"},
			testsupport.Patient{ID: "P2_1", PatientID: "P2"},
		),
		testsupport.WithTechnicians(map[string]string{"P1": "Kim", "P2": "Lee"}),
	}
	cfg := testsupport.NewConfig(t, append(defaults, opts...)...)

	configPath := filepath.Join(homeDir, ".config", "ecgnote", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func (e *cliTestEnv) store(t *testing.T) *patientstore.Store {
	t.Helper()
	return testsupport.MustLoadStore(t, e.cfg.Paths.StorePath)
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
store_path = %q
render_dir = %q
report_dir = %q
data_dir = %q
log_dir = %q

[annotation]
save_every = %d
label_set = %q

[render]
width = %d
height = %d

[report]
cover_pdf = ""
logo = ""
board = ""
technician_csv = %q

[logging]
level = "error"
`,
		cfg.Paths.StorePath,
		cfg.Paths.RenderDir,
		cfg.Paths.ReportDir,
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Annotation.SaveEvery,
		cfg.Annotation.LabelSet,
		cfg.Render.Width,
		cfg.Render.Height,
		cfg.Report.TechnicianCSV,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func acquireTestLock(storePath string) (*patientstore.Lock, error) {
	return patientstore.AcquireLock(storePath)
}
