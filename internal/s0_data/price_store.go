package s0_data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

var priceHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// PriceStore keeps one CSV of daily bars per symbol
// ⭐ SSOT: data/historical/<SYMBOL>.csv 읽기/쓰기는 여기서만
type PriceStore struct {
	dir string
}

// NewPriceStore creates a store rooted at dir
func NewPriceStore(dir string) *PriceStore {
	return &PriceStore{dir: dir}
}

// Path returns the file path for symbol
func (s *PriceStore) Path(symbol string) string {
	return filepath.Join(s.dir, symbol+".csv")
}

// Load reads a symbol's history ordered by date.
// Absent or empty files are ErrMissingInputData; bad headers are ErrUnrecognizedLayout.
func (s *PriceStore) Load(symbol string) (*contracts.PriceSeries, error) {
	file, err := os.Open(s.Path(symbol))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", symbol, contracts.ErrMissingInputData)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", symbol, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", symbol, contracts.ErrDataQuality, err)
	}

	header, start := normalizeRecords(records)
	if start >= len(records) {
		return nil, fmt.Errorf("%s has no rows: %w", symbol, contracts.ErrMissingInputData)
	}

	schema, err := MapPriceHeader(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	series := &contracts.PriceSeries{
		Symbol: symbol,
		Bars:   make([]contracts.PriceBar, 0, len(records)-start),
	}
	for _, record := range records[start:] {
		bar, ok := schema.ParseBar(record)
		if !ok {
			continue
		}
		series.Bars = append(series.Bars, bar)
	}

	if len(series.Bars) == 0 {
		return nil, fmt.Errorf("%s has no dated rows: %w", symbol, contracts.ErrMissingInputData)
	}

	sort.SliceStable(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})
	return series, nil
}

// Save overwrites a symbol's history file
func (s *PriceStore) Save(series *contracts.PriceSeries) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.dir, err)
	}

	records := make([][]string, 0, len(series.Bars)+1)
	records = append(records, priceHeader)
	for _, bar := range series.Bars {
		records = append(records, []string{
			bar.Date.Format("2006-01-02"),
			FormatFloat(bar.Open),
			FormatFloat(bar.High),
			FormatFloat(bar.Low),
			FormatFloat(bar.Close),
			FormatFloat(bar.Volume),
		})
	}
	return WriteCSVAtomic(s.Path(series.Symbol), records)
}

// List returns the symbols that have a stored file, sorted
func (s *PriceStore) List() ([]string, error) {
	return ListCSV(s.dir)
}

// WriteCSVAtomic writes records to a temp file and renames it over path
func WriteCSVAtomic(path string, records [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}

// ListCSV returns the base names of visible .csv files in dir, sorted
func ListCSV(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".csv") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(name, ".csv"))
	}
	sort.Strings(symbols)
	return symbols, nil
}
