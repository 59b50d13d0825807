package excel

// ExcelConfig holds configuration for a file-backed observation source
type ExcelConfig struct {
	FilePath string `json:"file_path"`
	// Sheet to read; empty means "observations" when present, else the first sheet.
	Sheet   string `json:"sheet"`
	Enabled bool   `json:"enabled"`
}

// DefaultExcelConfig returns a disabled configuration reading the default sheet
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{Enabled: false}
}
