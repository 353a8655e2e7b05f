package deadlines

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sambou/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func date(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Len(t, c.Departments(), 16)
	assert.Equal(t, "Computer Science", c.Departments()[0])

	w, fallback := c.Lookup("physics")
	assert.False(t, fallback)
	assert.Equal(t, date("2024-10-15"), w.ApplicationOpen)
	assert.Equal(t, date("2025-02-10"), w.ApplicationDeadline)

	for _, d := range c.Departments() {
		_, fallback := c.Lookup(d)
		assert.False(t, fallback, "%s should have an explicit window", d)
	}
}

func TestLookupFallsBackToFirstWindow(t *testing.T) {
	c := DefaultCatalog()
	w, fallback := c.Lookup("Underwater Basket Weaving")
	assert.True(t, fallback)
	assert.Equal(t, "Computer Science", w.DepartmentName)
	assert.Equal(t, date("2024-12-01"), w.ApplicationDeadline)
}

func TestParseCatalogValidation(t *testing.T) {
	_, err := ParseCatalog([]byte("deadlines: []"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte(`deadlines: [{department: X, open: "2025-02-01", deadline: "2025-01-01"}]`))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte(`deadlines: [{department: X, open: "soon", deadline: "2025-01-01"}]`))
	assert.Error(t, err)

	c, err := ParseCatalog([]byte(`deadlines: [{department: X, open: "2025-01-01", deadline: "2025-02-01"}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, c.Departments())
}

func TestBuildTimeline(t *testing.T) {
	c := DefaultCatalog()
	tl := BuildTimeline(c, []models.RankedDepartment{
		{UniversityName: "MIT", DepartmentName: "Music"},
		{UniversityName: "Stanford", DepartmentName: "Computer Science"},
		{UniversityName: "Yale", DepartmentName: "Astrobiology"},
	})

	require.Len(t, tl.Rows, 3)
	assert.Equal(t, "MIT - Music", tl.Rows[0].Name)
	assert.True(t, tl.Rows[2].Fallback)
	assert.Equal(t, date("2024-08-15"), tl.DomainStart)
	assert.Equal(t, date("2025-05-15"), tl.DomainEnd)

	empty := BuildTimeline(c, nil)
	assert.Empty(t, empty.Rows)
	assert.True(t, empty.DomainStart.IsZero())
}

func TestWorkbookRoundTripOverridesCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deadlines.xlsx")

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, []models.DeadlineWindow{
		{DepartmentName: "Physics", ApplicationOpen: date("2025-09-01"), ApplicationDeadline: date("2025-12-01")},
		{DepartmentName: "Astrobiology", ApplicationOpen: date("2025-10-01"), ApplicationDeadline: date("2026-01-10")},
	}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	windows, err := ReadWindows(path)
	require.NoError(t, err)
	require.Len(t, windows, 2)

	c, err := DefaultCatalog().WithWindows(windows)
	require.NoError(t, err)

	w, fallback := c.Lookup("Physics")
	assert.False(t, fallback)
	assert.Equal(t, date("2025-12-01"), w.ApplicationDeadline)

	_, fallback = c.Lookup("astrobiology")
	assert.False(t, fallback)
	assert.Len(t, c.Departments(), 16, "workbook windows do not change the candidate list")
}

func TestReadWindowsHandlesSerialDatesAndCSV(t *testing.T) {
	dir := t.TempDir()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Department", "Open", "Deadline"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Biology", 45658, "2025-03-01"}))
	xlsx := filepath.Join(dir, "serial.xlsx")
	require.NoError(t, f.SaveAs(xlsx))
	require.NoError(t, f.Close())

	windows, err := ReadWindows(xlsx)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, date("2025-01-01"), windows[0].ApplicationOpen)

	csvPath := filepath.Join(dir, "d.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Department,Open,Deadline\nHistory,2024/12/10,2025-04-10\n"), 0o644))
	windows, err = ReadWindows(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "History", windows[0].DepartmentName)
	assert.Equal(t, date("2024-12-10"), windows[0].ApplicationOpen)

	_, err = ReadWindows(filepath.Join(dir, "d.json"))
	assert.Error(t, err)
}
