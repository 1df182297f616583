package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/s0_data"
)

const (
	colStock          = "Stock"
	colLastClose      = "Last_Close"
	colPred1W         = "Pred_1W"
	colPredictedPrice = "Predicted_Price_1W"
	colActual1W       = "Actual_1W"
	colDiff           = "Diff"
)

// the prediction table columns followed by the realized return and its error
var evaluationHeader = []string{colStock, colLastClose, colPred1W, colPredictedPrice, colActual1W, colDiff}

// WriteEvaluation writes one row per matched prediction, in prediction order.
// Unknown prices are written as empty cells.
func WriteEvaluation(path string, eval *contracts.Evaluation) error {
	records := make([][]string, 0, len(eval.Rows)+1)
	records = append(records, evaluationHeader)
	for _, r := range eval.Rows {
		records = append(records, []string{
			r.Symbol,
			s0_data.FormatFloat(r.LastClose),
			s0_data.FormatFloat(r.Pred1W),
			s0_data.FormatFloat(r.PredictedPrice),
			s0_data.FormatFloat(r.Actual1W),
			s0_data.FormatFloat(r.Diff),
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return s0_data.WriteCSVAtomic(path, records)
}

// ReadEvaluation loads an evaluation table and recomputes its summary.
// The file carries no dates, so PredictionDate and WindowEnd stay zero.
func ReadEvaluation(path string, reportN int) (*contracts.Evaluation, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, contracts.ErrMissingInputData)
	}
	if err != nil {
		return nil, fmt.Errorf("open evaluation: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read evaluation: %w: %v", contracts.ErrDataQuality, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty: %w", path, contracts.ErrMissingInputData)
	}
	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, required := range []string{colStock, colPred1W, colActual1W, colDiff} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("evaluation header %v has no %s: %w", records[0], required, contracts.ErrUnrecognizedLayout)
		}
	}
	value := func(rec []string, name string) float64 {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return math.NaN()
		}
		return s0_data.CoerceFloat(rec[i])
	}

	eval := newEvaluation()
	for _, rec := range records[1:] {
		if cols[colStock] >= len(rec) {
			continue
		}
		eval.Rows = append(eval.Rows, contracts.EvaluationRow{
			Symbol:         rec[cols[colStock]],
			LastClose:      value(rec, colLastClose),
			Pred1W:         value(rec, colPred1W),
			PredictedPrice: value(rec, colPredictedPrice),
			Actual1W:       value(rec, colActual1W),
			Diff:           value(rec, colDiff),
		})
	}
	if len(eval.Rows) > 0 {
		summarize(eval, reportN)
	}
	return eval, nil
}
