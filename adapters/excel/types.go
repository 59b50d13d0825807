package excel

// RawRowData represents a row of raw sheet data as header -> cell
type RawRowData map[string]string

// ExcelData represents a complete sheet or CSV file
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Long-format observation columns. Header matching is case-insensitive.
const (
	ColumnBatchID  = "batch_id"
	ColumnArtist   = "artist"
	ColumnMetric   = "metric"
	ColumnRunIndex = "run_index"
	ColumnValue    = "value"
)

// Sheet names written by WorkbookExporter.
const (
	SheetObservations = "observations"
	SheetDescriptive  = "descriptive"
	SheetANOVA        = "anova"
	SheetPairwise     = "pairwise"
)
