package workbook

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"propdash/server/internal/models"
)

func TestReadRecordsCSV(t *testing.T) {
	csvData := strings.Join([]string{
		"Project Name,Locality,DESCRIPTION,Consideration Value",
		`Riverdale,Kharadi,"flat carpet 50 sq.mt","45,00,000"`,
		"Amanora,Hadapsar,flat carpet 72 sq.mt,6200000",
	}, "\n")

	records, err := ReadRecords(strings.NewReader(csvData), "upload.csv")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1, records[0].RowNumber)
	assert.Equal(t, "Riverdale", records[0].ProjectName)
	assert.Equal(t, "Kharadi", records[0].Locality)
	assert.Equal(t, "flat carpet 50 sq.mt", records[0].Description)
	assert.Equal(t, 4500000.0, records[0].ConsiderationValue)

	// Society falls back to the project name when absent.
	assert.Equal(t, "Amanora", records[1].Society)
	assert.Equal(t, 6200000.0, records[1].ConsiderationValue)
}

func TestReadRecordsMissingColumns(t *testing.T) {
	csvData := "Locality,Something\nKharadi,x\n"
	_, err := ReadRecords(strings.NewReader(csvData), "upload.csv")
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "description")
}

func TestReadRecordsUnsupportedFormat(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("x"), "upload.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadRecordsEmptySheet(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("description,consideration value,project\n"), "upload.csv")
	assert.ErrorIs(t, err, ErrEmptySheet)
}

func TestReadRecordsXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Description", "Consideration Amt", "Society Name", "Locality"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"flat carpet 55.74 sq.mt", "Rs. 60,00,000", "Park Street", "Wakad"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	records, err := ReadRecords(bytes.NewReader(buf.Bytes()), "upload.xlsx")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "flat carpet 55.74 sq.mt", records[0].Description)
	assert.Equal(t, 6000000.0, records[0].ConsiderationValue)
	assert.Equal(t, "Park Street", records[0].Society)
	assert.Equal(t, "Wakad", records[0].Locality)
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 4500000.0, parseAmount("45,00,000"))
	assert.Equal(t, 6000000.0, parseAmount("₹ 60,00,000/-"))
	assert.Equal(t, 1234.5, parseAmount("Rs. 1,234.5"))
	assert.Equal(t, 0.0, parseAmount(""))
	assert.Equal(t, 0.0, parseAmount("on request"))
}

func TestWriteWorkbook(t *testing.T) {
	km := 4.2
	results := []models.PropertyResult{
		{
			PropertyRecord: models.PropertyRecord{
				RowNumber: 1, ProjectName: "X", Society: "X", Locality: "Kharadi",
				Description: "flat carpet 50 sq.mt", ConsiderationValue: 4000000,
			},
			CarpetAreaSqm: 50, CarpetAreaSqft: 538.2, SaleableArea: 726.57,
			APR: 5505.32, Configuration: "1 BHK", DistanceKm: &km,
		},
	}
	summary := []models.SummaryRow{
		{ProjectName: "X", Configuration: "1 BHK", CarpetAreaSqft: 538.2, Count: 1,
			MinAPR: 5505.32, MaxAPR: 5505.32, MeanAPR: 5505.32, MedianAPR: 5505.32, ModeAPR: 5505.32},
	}

	f, err := WriteWorkbook(results, summary)
	require.NoError(t, err)

	v, err := f.GetCellValue(propertiesSheet, "G2")
	require.NoError(t, err)
	assert.Equal(t, "50", v)

	v, err = f.GetCellValue(propertiesSheet, "K2")
	require.NoError(t, err)
	assert.Equal(t, "1 BHK", v)

	v, err = f.GetCellValue(propertiesSheet, "L2")
	require.NoError(t, err)
	assert.Equal(t, "4.20 km", v)

	v, err = f.GetCellValue(summarySheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}
