package model

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// minScale guards constant columns; their scale becomes 1
const minScale = 1e-12

// Scaler standardizes each feature to zero mean and unit variance
type Scaler struct {
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

// FitScaler computes per-column mean and population std of x
func FitScaler(x [][]float64) (*Scaler, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("fit scaler: %w", contracts.ErrNoTrainableData)
	}

	width := len(x[0])
	s := &Scaler{
		Means:  make([]float64, width),
		Scales: make([]float64, width),
	}

	column := make([]float64, len(x))
	for j := 0; j < width; j++ {
		for i, row := range x {
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if std < minScale {
			std = 1
		}
		s.Means[j] = mean
		s.Scales[j] = std
	}
	return s, nil
}

// Width returns the number of features the scaler was fit on
func (s *Scaler) Width() int {
	return len(s.Means)
}

// Transform scales one row
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Means) {
		return nil, fmt.Errorf("scaler expects %d features, got %d: %w", len(s.Means), len(row), contracts.ErrArtifactMismatch)
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Means[j]) / s.Scales[j]
	}
	return out, nil
}

// TransformAll scales every row of x
func (s *Scaler) TransformAll(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
