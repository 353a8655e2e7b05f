package deadlines

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sambou/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

var workbookHeader = []string{"Department", "Application Open", "Application Deadline"}

// dateLayouts are tried in order when reading workbook cells
var dateLayouts = []string{dateLayout, "2006/01/02", "01-02-06", "1/2/2006", "1/2/06", "Jan 2, 2006", "2 Jan 2006"}

// ReadWindows loads deadline windows from an .xlsx or .csv file with a header row
// followed by Department, Application Open, Application Deadline columns.
func ReadWindows(path string) ([]models.DeadlineWindow, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readExcelRows(path)
	case ".csv":
		rows, err = readCSVRows(path)
	default:
		return nil, fmt.Errorf("unsupported deadlines file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("deadlines file must have at least a header row and one data row")
	}
	return parseRows(rows[1:])
}

func readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := sheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func parseRows(rows [][]string) ([]models.DeadlineWindow, error) {
	out := make([]models.DeadlineWindow, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, got %d", i+2, len(row))
		}
		open, err := parseDate(row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		deadline, err := parseDate(row[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, models.DeadlineWindow{
			DepartmentName:      strings.TrimSpace(row[0]),
			ApplicationOpen:     open,
			ApplicationDeadline: deadline,
		})
	}
	return out, nil
}

func parseDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, nil
		}
	}
	// unformatted date cells come back as Excel serial numbers
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", cell)
}

// WriteWorkbook exports windows as an .xlsx workbook readable by ReadWindows
func WriteWorkbook(w io.Writer, windows []models.DeadlineWindow) error {
	f := excelize.NewFile()
	defer f.Close()

	for col, title := range workbookHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return err
		}
	}
	for i, win := range windows {
		row := i + 2
		values := []string{
			win.DepartmentName,
			win.ApplicationOpen.Format(dateLayout),
			win.ApplicationDeadline.Format(dateLayout),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellStr(sheetName, cell, v); err != nil {
				return err
			}
		}
	}
	_, err := f.WriteTo(w)
	return err
}
