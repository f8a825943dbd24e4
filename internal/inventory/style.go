package inventory

import (
	"fmt"

	excelize "github.com/xuri/excelize/v2"
)

// Presentation only: the saved workbook gets a right-to-left sheet view, a
// shaded header, and banded data rows. None of this affects what Load reads
// back.

const sheetName = "Sheet1"

func writeWorkbook(t Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := f.SetSheetRow(sheetName, "A1", &columnOrder); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		cells := []interface{}{
			row.ProductName,
			row.Quantity,
			row.AvgBuyPrice,
			row.LastBuyPrice,
			row.SellPrice,
		}
		if row.Alarm != nil {
			cells = append(cells, *row.Alarm)
		} else {
			cells = append(cells, nil)
		}
		if row.Source != nil {
			cells = append(cells, *row.Source)
		} else {
			cells = append(cells, nil)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := applySheetStyle(f, len(t.Rows)); err != nil {
		return fmt.Errorf("style sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func applySheetStyle(f *excelize.File, dataRows int) error {
	rtl := true
	if err := f.SetSheetView(sheetName, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return err
	}
	bandStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F2F2F2"}},
	})
	if err != nil {
		return err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columnOrder))
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	for r := 2; r <= dataRows+1; r++ {
		if r%2 != 0 {
			continue
		}
		if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", r), fmt.Sprintf("%s%d", lastCol, r), bandStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetName, "A", "A", 36); err != nil {
		return err
	}
	return f.SetColWidth(sheetName, "B", lastCol, 16)
}
