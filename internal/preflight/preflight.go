package preflight

import (
	"context"

	"ecgnote/internal/config"
	"ecgnote/internal/report"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// PageCounter reads the page count of a PDF.
type PageCounter interface {
	PageCount(path string) (int, error)
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	return RunWith(ctx, cfg, report.PDFCPU{})
}

// RunWith is RunAll with an explicit PDF page counter.
func RunWith(ctx context.Context, cfg *config.Config, pages PageCounter) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckStore("Patient store", cfg.Paths.StorePath),
		CheckStoreLock("Store lock", cfg.Paths.StorePath),
		CheckDirectoryAccess("Render directory", cfg.Paths.RenderDir),
		CheckDirectoryAccess("Report directory", cfg.Paths.ReportDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckRoster("Technician roster", cfg.Report.TechnicianCSV),
	}
	if ctx.Err() != nil {
		return results
	}

	if cfg.Report.CoverPDF != "" {
		results = append(results, CheckCoverPDF("Cover PDF", cfg.Report.CoverPDF, cfg.Report.CoverPages, pages))
	}
	optional := []struct{ name, path string }{
		{"Logo image", cfg.Report.Logo},
		{"Board image", cfg.Report.Board},
		{"Report font", cfg.Report.FontPath},
	}
	for _, f := range optional {
		if f.path != "" {
			results = append(results, CheckFileReadable(f.name, f.path))
		}
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
