package report

import (
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Merger combines the cover and content documents.
type Merger interface {
	Merge(out string, inputs ...string) error
	PageCount(path string) (int, error)
}

var disablePDFCPUConfig sync.Once

// PDFCPU merges with pdfcpu.
type PDFCPU struct{}

func (PDFCPU) Merge(out string, inputs ...string) error {
	disablePDFCPUConfig.Do(api.DisableConfigDir)
	return api.MergeCreateFile(inputs, out, false, nil)
}

func (PDFCPU) PageCount(path string) (int, error) {
	disablePDFCPUConfig.Do(api.DisableConfigDir)
	return api.PageCountFile(path)
}
