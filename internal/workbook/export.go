package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"propdash/server/internal/models"
)

const (
	propertiesSheet = "Properties"
	summarySheet    = "Summary"
)

var propertyHeaders = []string{
	"Sr No", "Project Name", "Society", "Locality", "Description",
	"Consideration Value", "Carpet Area (SQ.MT)", "Carpet Area (SQ.FT)",
	"Saleable Area", "APR", "Configuration",
	"Distance from Project", "Ticket Size", "Market Configurations",
}

var summaryHeaders = []string{
	"Project Name", "Configuration", "Carpet Area (SQ.FT)", "Count",
	"Min APR", "Max APR", "Mean APR", "Median APR", "Mode APR",
}

// WriteWorkbook builds the export workbook: one sheet per record with
// the derived columns appended, one sheet for the grouped summary.
// Styling is left to the consuming dashboard.
func WriteWorkbook(results []models.PropertyResult, summary []models.SummaryRow) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), propertiesSheet)
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if err := writeRow(f, propertiesSheet, 1, toAny(propertyHeaders)); err != nil {
		return nil, err
	}
	for i, r := range results {
		var distance interface{}
		if r.DistanceKm != nil {
			distance = fmt.Sprintf("%.2f km", *r.DistanceKm)
			if r.OutOfMarket {
				distance = fmt.Sprintf("%.2f km (out of market)", *r.DistanceKm)
			}
		} else {
			distance = ""
		}
		row := []interface{}{
			r.RowNumber, r.ProjectName, r.Society, r.Locality, r.Description,
			r.ConsiderationValue, r.CarpetAreaSqm, r.CarpetAreaSqft,
			r.SaleableArea, r.APR, r.Configuration,
			distance, r.TicketSize, r.MarketConfigurations,
		}
		if err := writeRow(f, propertiesSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, summarySheet, 1, toAny(summaryHeaders)); err != nil {
		return nil, err
	}
	for i, s := range summary {
		row := []interface{}{
			s.ProjectName, s.Configuration, s.CarpetAreaSqft, s.Count,
			s.MinAPR, s.MaxAPR, s.MeanAPR, s.MedianAPR, s.ModeAPR,
		}
		if err := writeRow(f, summarySheet, i+2, row); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
