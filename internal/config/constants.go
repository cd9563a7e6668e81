package config

import "time"

// Application constants
const (
	AppName = "Assessment Pulse"

	// EnvPrefix namespaces every environment variable.
	EnvPrefix = "ASSESS"

	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultExportsDir = "exports"
	DefaultLogFile    = "logs/app.log"

	DefaultSheetRange = "A1:Z"
	DefaultPerPage    = 10
	DefaultTopN       = 10
	MaxPerPage        = 100

	DefaultRequestTimeout = 60 * time.Second
)

// Data source kinds.
const (
	SourceWorkbook = "workbook"
	SourceSheets   = "sheets"
)
