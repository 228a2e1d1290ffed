package config

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAnnotation(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateReport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAnnotation() error {
	if c.Annotation.SaveEvery < 1 {
		return errors.New("annotation.save_every must be at least 1")
	}
	switch c.Annotation.LabelSet {
	case "minimal", "extended":
	case "custom":
		if len(c.Annotation.Labels) == 0 {
			return errors.New("annotation.labels must be set when annotation.label_set is \"custom\"")
		}
	default:
		return fmt.Errorf("annotation.label_set: unsupported value %q (want minimal, extended or custom)", c.Annotation.LabelSet)
	}
	for key, code := range c.Annotation.Labels {
		if utf8.RuneCountInString(key) != 1 {
			return fmt.Errorf("annotation.labels: key %q must be a single character", key)
		}
		if code == "" {
			return fmt.Errorf("annotation.labels: key %q has an empty label", key)
		}
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.Width < 100 || c.Render.Height < 50 {
		return fmt.Errorf("render: image size %dx%d is too small (minimum 100x50)", c.Render.Width, c.Render.Height)
	}
	if c.Render.LineWidth < 0 {
		return errors.New("render.line_width must be positive")
	}
	return nil
}

func (c *Config) validateReport() error {
	if c.Report.CoverPages < 0 {
		return errors.New("report.cover_pages must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
