package s3_training

import (
	"fmt"
	"math"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// Dataset is the pooled training matrix across all symbols
type Dataset struct {
	X       [][]float64
	Y       []float64
	Symbols []string // source symbol per row
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.Y)
}

// Rows returns the subset of d at the given indices
func (d *Dataset) Rows(idx []int) *Dataset {
	out := &Dataset{
		X:       make([][]float64, len(idx)),
		Y:       make([]float64, len(idx)),
		Symbols: make([]string, len(idx)),
	}
	for k, i := range idx {
		out.X[k] = d.X[i]
		out.Y[k] = d.Y[i]
		out.Symbols[k] = d.Symbols[i]
	}
	return out
}

// LoadDataset concatenates every readable table that has the weekly target.
// Infinite values are treated as missing; rows with any missing feature or
// target are dropped. Tables that cannot be used are recorded in report.
func LoadDataset(reader contracts.FeatureReader, report *contracts.RunReport) (*Dataset, error) {
	symbols, err := reader.List()
	if err != nil {
		return nil, fmt.Errorf("list feature tables: %w", err)
	}

	ds := &Dataset{}
	for _, sym := range symbols {
		table, err := reader.Load(sym)
		if err != nil {
			report.Skip(sym, err)
			continue
		}
		if !table.HasColumn(contracts.WeeklyTarget) {
			report.Skip(sym, fmt.Errorf("%s: %w", sym, contracts.ErrMissingWeeklyTarget))
			continue
		}

		kept := ds.appendTable(table)
		report.OK(sym, kept)
	}

	if ds.Len() == 0 {
		return nil, fmt.Errorf("%d tables, 0 usable rows: %w", len(symbols), contracts.ErrNoTrainableData)
	}
	return ds, nil
}

func (d *Dataset) appendTable(table *contracts.FeatureTable) int {
	kept := 0
	for i := range table.Rows {
		row := &table.Rows[i]
		y := row.Target1W()
		if !usable(y) {
			continue
		}

		x := make([]float64, contracts.NumFeatures)
		ok := true
		for f, v := range row.Features {
			if !usable(v) {
				ok = false
				break
			}
			x[f] = v
		}
		if !ok {
			continue
		}

		d.X = append(d.X, x)
		d.Y = append(d.Y, y)
		d.Symbols = append(d.Symbols, table.Symbol)
		kept++
	}
	return kept
}

// usable is false for NaN and for ±Inf, which are handled as missing
func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
