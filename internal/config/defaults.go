package config

const (
	defaultStorePath     = "~/ecg/master_ecg.json"
	defaultRenderDir     = "~/ecg/render_vis"
	defaultReportDir     = "~/ecg/pdf_results"
	defaultDataDir       = "~/.local/share/ecgnote"
	defaultLogDir        = "~/.local/share/ecgnote/logs"
	defaultSaveEvery     = 20
	defaultLabelSet      = "minimal"
	defaultRenderWidth   = 1000
	defaultRenderHeight  = 300
	defaultLineWidth     = 1.0
	defaultReportTitle   = "Wearable ECG Study"
	defaultLegendText    = "Arrhythmia reading"
	defaultCoverPDF      = "~/ecg/resource/cover.pdf"
	defaultLogo          = "~/ecg/resource/logo.png"
	defaultBoard         = "~/ecg/resource/board.png"
	defaultTechnicianCSV = "~/ecg/technician.csv"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorePath: defaultStorePath,
			RenderDir: defaultRenderDir,
			ReportDir: defaultReportDir,
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
		},
		Annotation: Annotation{
			SaveEvery: defaultSaveEvery,
			LabelSet:  defaultLabelSet,
		},
		Render: Render{
			Width:     defaultRenderWidth,
			Height:    defaultRenderHeight,
			LineWidth: defaultLineWidth,
		},
		Report: Report{
			Title:         defaultReportTitle,
			LegendText:    defaultLegendText,
			CoverPDF:      defaultCoverPDF,
			Logo:          defaultLogo,
			Board:         defaultBoard,
			TechnicianCSV: defaultTechnicianCSV,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
