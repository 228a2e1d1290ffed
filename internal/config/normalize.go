package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAnnotation()
	c.normalizeRender()
	if err := c.normalizeReport(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("ECGNOTE_STORE"); ok && strings.TrimSpace(value) != "" {
		c.Paths.StorePath = value
	}
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"paths.store_path", &c.Paths.StorePath, defaultStorePath},
		{"paths.render_dir", &c.Paths.RenderDir, defaultRenderDir},
		{"paths.report_dir", &c.Paths.ReportDir, defaultReportDir},
		{"paths.data_dir", &c.Paths.DataDir, defaultDataDir},
		{"paths.log_dir", &c.Paths.LogDir, ""},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.value) == "" {
			*f.value = f.def
		}
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

func (c *Config) normalizeAnnotation() {
	c.Annotation.LabelSet = strings.ToLower(strings.TrimSpace(c.Annotation.LabelSet))
	if c.Annotation.LabelSet == "" {
		c.Annotation.LabelSet = defaultLabelSet
	}
	if c.Annotation.SaveEvery == 0 {
		c.Annotation.SaveEvery = defaultSaveEvery
	}
	if len(c.Annotation.Labels) > 0 {
		trimmed := make(map[string]string, len(c.Annotation.Labels))
		for key, code := range c.Annotation.Labels {
			trimmed[key] = strings.TrimSpace(code)
		}
		c.Annotation.Labels = trimmed
	}
}

func (c *Config) normalizeRender() {
	if c.Render.Width == 0 {
		c.Render.Width = defaultRenderWidth
	}
	if c.Render.Height == 0 {
		c.Render.Height = defaultRenderHeight
	}
	if c.Render.LineWidth == 0 {
		c.Render.LineWidth = defaultLineWidth
	}
}

func (c *Config) normalizeReport() error {
	c.Report.Title = strings.TrimSpace(c.Report.Title)
	c.Report.LegendText = strings.TrimSpace(c.Report.LegendText)
	fields := []struct {
		name  string
		value *string
	}{
		{"report.cover_pdf", &c.Report.CoverPDF},
		{"report.logo", &c.Report.Logo},
		{"report.board", &c.Report.Board},
		{"report.font_path", &c.Report.FontPath},
		{"report.technician_csv", &c.Report.TechnicianCSV},
	}
	for _, f := range fields {
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
