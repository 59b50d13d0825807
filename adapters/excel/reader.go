package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"artbench/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		logger:   internal.DefaultLogger.With("excel"),
	}
}

// WithSheet selects the sheet read from workbooks
func (r *DataReader) WithSheet(sheet string) *DataReader {
	r.sheet = sheet
	return r
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

func (r *DataReader) readExcelData() (*ExcelData, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = defaultSheet(f.GetSheetList())
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	r.logger.Debug("sheet %s of %s: %d rows", sheet, r.filePath, len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("sheet %s has no header row", sheet)
	}
	return r.processRows(rows), nil
}

func defaultSheet(sheets []string) string {
	for _, s := range sheets {
		if strings.EqualFold(s, SheetObservations) {
			return s
		}
	}
	if len(sheets) > 0 {
		return sheets[0]
	}
	return "Sheet1"
}

func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	r.logger.Debug("csv %s: %d rows", r.filePath, len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("CSV file has no header row")
	}
	return r.processRows(rows), nil
}

// processRows keys every data row by its lower-cased header. Blank rows stay as
// empty maps so row positions match the file.
func (r *DataReader) processRows(rows [][]string) *ExcelData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData, len(headers))
		blank := true
		for j, cell := range rows[i] {
			if j < len(headers) {
				v := strings.TrimSpace(cell)
				rowData[headers[j]] = v
				if v != "" {
					blank = false
				}
			}
		}
		if blank {
			rowData = RawRowData{}
		}
		dataRows = append(dataRows, rowData)
	}

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}
}
