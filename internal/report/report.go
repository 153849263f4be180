// Package report writes run results as an XLSX workbook.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dcheck/dcheck/internal/executor"
)

// Sheet names in the generated workbook
const (
	SheetAvailable = "Available"
	SheetSummary   = "Summary"
)

// WriteXLSX writes the available domains and, when summary is non-nil, the
// run summary to a workbook at path. Domains are sorted.
func WriteXLSX(path string, available []string, summary *executor.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAvailable); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	sorted := append([]string(nil), available...)
	sort.Strings(sorted)

	if err := f.SetCellValue(SheetAvailable, "A1", "Domain"); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetAvailable, "B1", "Label"); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetAvailable, "A1", "B1", bold); err != nil {
		return err
	}
	for i, fqn := range sorted {
		row := i + 2
		label, _, _ := strings.Cut(fqn, ".")
		if err := setRow(f, SheetAvailable, row, fqn, label); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetAvailable, "A", "A", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetAvailable, "B", "B", 24); err != nil {
		return err
	}

	if summary != nil {
		if err := writeSummary(f, *summary, bold); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, s executor.Summary, bold int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	rows := [][2]any{
		{"Field", "Value"},
		{"Run ID", s.RunID},
		{"Candidates", s.Total},
		{"Skipped (resumed)", s.Skipped},
		{"Planned", s.Planned},
		{"Completed", s.Counts.Completed},
		{"Available", s.Counts.Available},
		{"Registered", s.Counts.Registered},
		{"Errors", s.Counts.Errors},
		{"Interrupted", s.Interrupted},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}
	for i, r := range rows {
		if err := setRow(f, SheetSummary, i+1, r[0], r[1]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "B1", bold); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "A", 20)
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// ReadDomains reads the domain column of a workbook written by WriteXLSX
func ReadDomains(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetAvailable)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", SheetAvailable, err)
	}
	var out []string
	for i, row := range rows {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		out = append(out, row[0])
	}
	return out, nil
}

// ReadLines reads a sink file of available domains, one per line, skipping
// blanks.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return readLines(f)
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			out = append(out, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
