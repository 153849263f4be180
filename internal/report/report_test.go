package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dcheck/dcheck/internal/executor"
	"github.com/dcheck/dcheck/internal/types"
)

func TestWriteXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	summary := &executor.Summary{
		RunID:    "run-42",
		Total:    10,
		Planned:  10,
		Counts:   types.Counts{Available: 2, Registered: 7, Errors: 1, Completed: 10},
		Duration: 1500 * time.Millisecond,
	}

	require.NoError(t, WriteXLSX(path, []string{"zed.com", "abc.com"}, summary))

	domains, err := ReadDomains(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc.com", "zed.com"}, domains)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	label, err := f.GetCellValue(SheetAvailable, "B2")
	require.NoError(t, err)
	assert.Equal(t, "abc", label)

	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	found := map[string]string{}
	for _, r := range rows {
		if len(r) == 2 {
			found[r[0]] = r[1]
		}
	}
	assert.Equal(t, "run-42", found["Run ID"])
	assert.Equal(t, "2", found["Available"])
	assert.Equal(t, "1.5s", found["Duration"])
}

func TestWriteXLSXWithoutSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, nil, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetAvailable}, f.GetSheetList())

	domains, err := ReadDomains(path)
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestReadLines(t *testing.T) {
	got, err := readLines(strings.NewReader("a.com\n\n  b.com  \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.com"}, got)

	path := filepath.Join(t.TempDir(), "sink.txt")
	require.NoError(t, os.WriteFile(path, []byte("x.net\n"), 0644))
	got, err = ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x.net"}, got)

	_, err = ReadLines(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
