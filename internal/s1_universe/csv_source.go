package s1_universe

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// CSVSource reads the universe from a CSV with a Symbol or Ticker column
type CSVSource struct {
	path    string
	builder *Builder
}

// NewCSVSource creates a CSV universe source
func NewCSVSource(path string, builder *Builder) *CSVSource {
	return &CSVSource{path: path, builder: builder}
}

// Load reads the file; a header without a symbol column is ErrUnrecognizedLayout
func (s *CSVSource) Load(ctx context.Context) (*contracts.Universe, error) {
	file, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("universe %s: %w", s.path, contracts.ErrMissingInputData)
	}
	if err != nil {
		return nil, fmt.Errorf("open universe: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read universe: %w: %v", contracts.ErrDataQuality, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("universe %s is empty: %w", s.path, contracts.ErrMissingInputData)
	}

	col := symbolColumn(records[0])
	if col < 0 {
		return nil, fmt.Errorf("universe header %v: %w", records[0], contracts.ErrUnrecognizedLayout)
	}

	raw := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if col < len(rec) {
			raw = append(raw, rec[col])
		}
	}
	return s.builder.Build(s.path, raw), nil
}
