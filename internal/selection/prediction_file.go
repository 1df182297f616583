package selection

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/s0_data"
)

const (
	dateLayout = "2006-01-02"

	colStock          = "Stock"
	colLastClose      = "Last_Close"
	colPred1W         = "Pred_1W"
	colPredictedPrice = "Predicted_Price_1W"
)

var predictionHeader = []string{colStock, colLastClose, colPred1W, colPredictedPrice}

var predictionFilePattern = regexp.MustCompile(`^predictions_(\d{4}-\d{2}-\d{2})_week\.csv$`)

// PredictionPath returns data/predictions_<date>_week.csv under dir
func PredictionPath(dir string, runDate time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("predictions_%s_week.csv", runDate.Format(dateLayout)))
}

// WritePredictions persists the full ranked table and returns its path
// ⭐ SSOT: 예측 결과 파일 포맷은 여기서만
func WritePredictions(dir string, list *contracts.RankedList) (string, error) {
	records := make([][]string, 0, list.Len()+1)
	records = append(records, predictionHeader)
	for _, rec := range list.Records {
		records = append(records, []string{
			rec.Symbol,
			s0_data.FormatFloat(rec.LastClose),
			s0_data.FormatFloat(rec.Pred1W),
			s0_data.FormatFloat(rec.PredictedPrice),
		})
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create predictions dir: %w", err)
	}
	path := PredictionPath(dir, list.RunDate)
	if err := s0_data.WriteCSVAtomic(path, records); err != nil {
		return "", err
	}
	return path, nil
}

// ReadPredictions loads a predictions file; rows keep their stored (ranked) order.
// Stock and Pred_1W are required columns, the others read as NaN when absent.
func ReadPredictions(path string) (*contracts.RankedList, error) {
	runDate, ok := PredictionDate(filepath.Base(path))
	if !ok {
		return nil, fmt.Errorf("%s is not a weekly predictions file: %w", path, contracts.ErrUnrecognizedLayout)
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, contracts.ErrMissingInputData)
	}
	if err != nil {
		return nil, fmt.Errorf("open predictions: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w: %v", contracts.ErrDataQuality, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty: %w", path, contracts.ErrMissingInputData)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, required := range []string{colStock, colPred1W} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("predictions file has no %s column: %w", required, contracts.ErrUnrecognizedLayout)
		}
	}

	cell := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	list := &contracts.RankedList{RunDate: runDate}
	for _, rec := range records[1:] {
		sym := cell(rec, colStock)
		if sym == "" {
			continue
		}
		list.Records = append(list.Records, contracts.PredictionRecord{
			Symbol:         sym,
			AsOf:           runDate,
			LastClose:      s0_data.CoerceFloat(cell(rec, colLastClose)),
			RawPrediction:  math.NaN(),
			Pred1W:         s0_data.CoerceFloat(cell(rec, colPred1W)),
			PredictedPrice: s0_data.CoerceFloat(cell(rec, colPredictedPrice)),
		})
	}
	return list, nil
}

// PredictionDate extracts the run date embedded in a predictions file name
func PredictionDate(name string) (time.Time, bool) {
	m := predictionFilePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// PredictionFile is one weekly predictions table on disk
type PredictionFile struct {
	Path string    `json:"path"`
	Date time.Time `json:"date"`
}

// ListPredictions returns the predictions tables in dir, oldest first
func ListPredictions(dir string) ([]PredictionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []PredictionFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if d, ok := PredictionDate(e.Name()); ok {
			files = append(files, PredictionFile{Path: filepath.Join(dir, e.Name()), Date: d})
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Date.Before(files[j].Date)
	})
	return files, nil
}

// LatestPredictions returns the predictions file with the newest embedded date
func LatestPredictions(dir string) (string, error) {
	files, err := ListPredictions(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no weekly predictions in %s: %w", dir, contracts.ErrMissingInputData)
	}
	return files[len(files)-1].Path, nil
}
