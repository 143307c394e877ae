package workbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"propdash/server/internal/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("missing required column")
	ErrEmptySheet        = errors.New("sheet has no data rows")
)

// Column header synonyms, matched case-insensitively. Registry exports
// name their columns inconsistently, so each field carries the variants
// seen in the wild.
var (
	descriptionHeaders   = []string{"description", "property description", "other details", "मिळकतीचे वर्णन"}
	considerationHeaders = []string{"consideration value", "consideration", "consideration amt", "agreement value", "मोबदला"}
	projectHeaders       = []string{"project name", "project", "society name", "society", "building name"}
	societyHeaders       = []string{"society name", "society", "building name", "project name"}
	localityHeaders      = []string{"locality", "location", "area", "village"}
)

// ReadRecords parses an uploaded CSV or XLSX into property records.
// The filename only supplies the extension for format dispatch.
func ReadRecords(r io.Reader, filename string) ([]models.PropertyRecord, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(r)
	case ".xlsx", ".xlsm":
		return readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func readCSV(r io.Reader) ([]models.PropertyRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rowsToRecords(rows)
}

func readXLSX(r io.Reader) ([]models.PropertyRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rowsToRecords(rows)
}

func rowsToRecords(rows [][]string) ([]models.PropertyRecord, error) {
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	header := rows[0]
	descCol := findColumn(header, descriptionHeaders)
	valueCol := findColumn(header, considerationHeaders)
	projectCol := findColumn(header, projectHeaders)
	societyCol := findColumn(header, societyHeaders)
	localityCol := findColumn(header, localityHeaders)

	var missing []string
	if descCol < 0 {
		missing = append(missing, "description")
	}
	if valueCol < 0 {
		missing = append(missing, "consideration value")
	}
	if projectCol < 0 {
		missing = append(missing, "project name")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	records := make([]models.PropertyRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record := models.PropertyRecord{
			RowNumber:          i + 1,
			Description:        cell(row, descCol),
			ConsiderationValue: parseAmount(cell(row, valueCol)),
			ProjectName:        cell(row, projectCol),
		}
		record.Society = cell(row, societyCol)
		if record.Society == "" {
			record.Society = record.ProjectName
		}
		record.Locality = cell(row, localityCol)
		records = append(records, record)
	}
	return records, nil
}

// findColumn matches a header against the synonym list, exact fold
// match first, then substring.
func findColumn(header []string, synonyms []string) int {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, syn := range synonyms {
		for i, h := range normalized {
			if h == syn {
				return i
			}
		}
	}
	for _, syn := range synonyms {
		for i, h := range normalized {
			if strings.Contains(h, syn) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// parseAmount reads a monetary cell, tolerating currency markers and
// thousands separators. Unparseable cells degrade to 0.
func parseAmount(s string) float64 {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, junk := range []string{",", "₹", "rs.", "rs", "inr", "/-", " "} {
		s = strings.ReplaceAll(s, junk, "")
	}
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
