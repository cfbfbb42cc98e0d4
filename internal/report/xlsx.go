package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/gkobilansky/abkit/internal/stats"
)

// WriteDurationCurveXLSX writes curve as a single-sheet workbook.
func WriteDurationCurveXLSX(w io.Writer, curve stats.DurationCurve) error {
	rows := make([][]any, 0, len(curve))
	for _, p := range curve {
		rows = append(rows, []any{p.MDE, p.TrafficSplit, p.SampleSize, p.DurationDays})
	}
	return writeXLSX(w, "Duration", DurationCurveHeader, rows)
}

// WriteSignificanceXLSX writes r as a single-sheet workbook, control first.
func WriteSignificanceXLSX(w io.Writer, r *stats.SignificanceReport) error {
	rows := make([][]any, 0, len(r.Variants)+1)
	rows = append(rows, []any{
		r.ControlName, string(stats.RoleControl), r.ControlVisitors, r.ControlConversions, r.ControlRate,
	})
	for _, v := range r.Variants {
		rows = append(rows, []any{
			v.Name, string(stats.RoleTreatment), v.Visitors, v.Conversions, v.Rate,
			v.UpliftPercent, v.ZScore, v.PValue, v.Significant, v.CILower, v.CIUpper,
		})
	}
	return writeXLSX(w, "Significance", SignificanceReportHeader, rows)
}

func writeXLSX(w io.Writer, sheet string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
