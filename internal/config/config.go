package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	StorePath string `toml:"store_path"`
	RenderDir string `toml:"render_dir"`
	ReportDir string `toml:"report_dir"`
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
}

// Annotation contains settings for the interactive labeling session.
type Annotation struct {
	// SaveEvery is the number of completed patients between checkpoints.
	SaveEvery int `toml:"save_every"`
	// LabelSet selects the key mapping: "minimal", "extended" or "custom".
	LabelSet string `toml:"label_set"`
	// Labels maps a single key to a label code. Required for "custom";
	// entries override or extend the built-in sets otherwise.
	Labels map[string]string `toml:"labels"`
}

// Render contains waveform image settings.
type Render struct {
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	LineWidth float64 `toml:"line_width"`
	Force     bool    `toml:"force"`
}

// Report contains PDF report settings.
type Report struct {
	Title         string `toml:"title"`
	LegendText    string `toml:"legend_text"`
	CoverPDF      string `toml:"cover_pdf"`
	CoverPages    int    `toml:"cover_pages"` // 0 reads the count from the cover PDF
	Logo          string `toml:"logo"`
	Board         string `toml:"board"`
	FontPath      string `toml:"font_path"`
	TechnicianCSV string `toml:"technician_csv"`
	// Descriptions overrides the printed wording per label code.
	Descriptions map[string]string `toml:"descriptions"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ecgnote.
//
// Configuration sections by subsystem:
//   - Paths: store document, rendered images, reports, data and logs
//   - Annotation: checkpoint period and key mapping
//   - Render: waveform image geometry
//   - Report: cover, artwork, fonts and technician roster
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Annotation Annotation `toml:"annotation"`
	Render     Render     `toml:"render"`
	Report     Report     `toml:"report"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ecgnote/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ecgnote.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output directories the commands write into.
// The store document's directory is not created; a missing store is an error.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RenderDir, c.Paths.ReportDir, c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the location of the report ledger database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "report_ledger.db")
}

// LogFile returns the location of the application log file, or "" when file
// logging is disabled.
func (c *Config) LogFile() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "ecgnote.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
