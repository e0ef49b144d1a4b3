package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phuslu/log"
	"github.com/xuri/excelize/v2"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

const defaultSheet = "Jobs"

// XLSXSink writes jobs as a spreadsheet, one header row then one row per job
type XLSXSink struct {
	path  string
	sheet string
}

// NewXLSXSink creates a spreadsheet sink writing to path
func NewXLSXSink(path string) *XLSXSink {
	return &XLSXSink{path: path, sheet: defaultSheet}
}

// Name returns the sink name
func (s *XLSXSink) Name() string { return "xlsx" }

// Write replaces the file with the given jobs
func (s *XLSXSink) Write(ctx context.Context, jobs []*domain.Job) error {
	if len(jobs) == 0 {
		log.Warn().Str("path", s.path).Msg("[XLSX] No jobs to export, skipping")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", s.sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := append([]string(nil), domain.Columns...)
	if err := f.SetSheetRow(s.sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, job := range jobs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		row := job.Row()
		if err := f.SetSheetRow(s.sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}

	log.Info().Str("path", s.path).Int("rows", len(jobs)).Msg("[XLSX] Exported jobs")
	return nil
}
