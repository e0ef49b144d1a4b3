package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phuslu/log"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// JSONSink writes jobs as an indented JSON array, lists kept as arrays
type JSONSink struct {
	path string
}

// NewJSONSink creates a JSON sink writing to path
func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

// Name returns the sink name
func (s *JSONSink) Name() string { return "json" }

// Write replaces the file with the given jobs
func (s *JSONSink) Write(ctx context.Context, jobs []*domain.Job) error {
	if len(jobs) == 0 {
		log.Warn().Str("path", s.path).Msg("[JSON] No jobs to export, skipping")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeJSON(s.path, jobs); err != nil {
		return err
	}
	log.Info().Str("path", s.path).Int("jobs", len(jobs)).Msg("[JSON] Exported jobs")
	return nil
}

// SaveRaw checkpoints the raw collection so the reconciliation pass can be re-run from disk
func SaveRaw(path string, raws []*domain.RawJob) error {
	if raws == nil {
		raws = []*domain.RawJob{}
	}
	return writeJSON(path, raws)
}

// LoadRaw reads a raw collection written by SaveRaw or an older dump
func LoadRaw(path string) ([]*domain.RawJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read raw dump: %w", err)
	}
	var raws []*domain.RawJob
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse raw dump: %w", err)
	}
	return raws, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode json: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
