package s2_features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/s0_data"
)

const dateLayout = "2006-01-02"

// TableStore keeps one feature CSV per symbol
// ⭐ SSOT: data/features/<SYMBOL>.csv 읽기/쓰기는 여기서만
type TableStore struct {
	dir string
}

// NewTableStore creates a store rooted at dir
func NewTableStore(dir string) *TableStore {
	return &TableStore{dir: dir}
}

// Path returns the file path for symbol
func (s *TableStore) Path(symbol string) string {
	return filepath.Join(s.dir, symbol+".csv")
}

// Save writes [Date, 21 features, 3 targets], replacing any previous table
func (s *TableStore) Save(table *contracts.FeatureTable) error {
	header := contracts.FeatureTableHeader()
	records := make([][]string, 0, table.Len()+1)
	records = append(records, header)

	for _, row := range table.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, row.Date.Format(dateLayout))
		for _, v := range row.Features {
			rec = append(rec, s0_data.FormatFloat(v))
		}
		for _, v := range row.Targets {
			rec = append(rec, s0_data.FormatFloat(v))
		}
		records = append(records, rec)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create features dir: %w", err)
	}
	return s0_data.WriteCSVAtomic(s.Path(table.Symbol), records)
}

// Load reads a symbol's table as stored. Values are not filtered, so an
// externally edited file may carry NaN or ±Inf cells.
// Missing target columns read as NaN and are absent from table.Columns.
func (s *TableStore) Load(symbol string) (*contracts.FeatureTable, error) {
	file, err := os.Open(s.Path(symbol))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s features: %w", symbol, contracts.ErrMissingInputData)
	}
	if err != nil {
		return nil, fmt.Errorf("open features %s: %w", symbol, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read features %s: %w: %v", symbol, contracts.ErrDataQuality, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s features empty: %w", symbol, contracts.ErrMissingInputData)
	}

	layout, err := mapTableHeader(records[0])
	if err != nil {
		return nil, fmt.Errorf("%s features: %w", symbol, err)
	}

	table := &contracts.FeatureTable{
		Symbol:  symbol,
		Rows:    make([]contracts.FeatureRow, 0, len(records)-1),
		Columns: records[0],
	}
	for _, rec := range records[1:] {
		row, ok := layout.parse(rec)
		if ok {
			table.Rows = append(table.Rows, row)
		}
	}

	sort.SliceStable(table.Rows, func(i, j int) bool {
		return table.Rows[i].Date.Before(table.Rows[j].Date)
	})
	return table, nil
}

// Delete removes a symbol's table if one exists
func (s *TableStore) Delete(symbol string) error {
	err := os.Remove(s.Path(symbol))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove features %s: %w", symbol, err)
}

// List returns the symbols with a stored table
func (s *TableStore) List() ([]string, error) {
	return s0_data.ListCSV(s.dir)
}

// tableLayout maps column positions; -1 marks an absent target
type tableLayout struct {
	date     int
	features [contracts.NumFeatures]int
	targets  [contracts.NumTargets]int
}

func mapTableHeader(header []string) (tableLayout, error) {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}

	var layout tableLayout
	var ok bool
	if layout.date, ok = index[contracts.DateColumn]; !ok {
		return layout, fmt.Errorf("no %s column: %w", contracts.DateColumn, contracts.ErrUnrecognizedLayout)
	}
	for f, name := range contracts.FeatureNames() {
		if layout.features[f], ok = index[name]; !ok {
			return layout, fmt.Errorf("no %s column: %w", name, contracts.ErrUnrecognizedLayout)
		}
	}
	for t, name := range contracts.TargetNames() {
		if layout.targets[t], ok = index[name]; !ok {
			layout.targets[t] = -1
		}
	}
	return layout, nil
}

func (l tableLayout) parse(rec []string) (contracts.FeatureRow, bool) {
	var row contracts.FeatureRow
	if l.date >= len(rec) {
		return row, false
	}
	date, err := s0_data.ParseDate(rec[l.date])
	if err != nil {
		return row, false
	}
	row.Date = date

	cell := func(i int) float64 {
		if i < 0 || i >= len(rec) {
			return math.NaN()
		}
		return s0_data.CoerceFloat(rec[i])
	}
	for f, i := range l.features {
		row.Features[f] = cell(i)
	}
	for t, i := range l.targets {
		row.Targets[t] = cell(i)
	}
	return row, true
}
