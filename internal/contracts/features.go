package contracts

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Feature and target column names.
// ⭐ SSOT: 피처 순서는 여기서만 정의 (학습 행렬, 추론 벡터, 테이블 헤더 공통)
var featureNames = [NumFeatures]string{
	"Return", "LogReturn", "MA_10", "MA_50", "MA_Ratio",
	"Volatility_10", "Volatility_50", "Vol_Ratio",
	"Volume_Change", "Volume_Surge", "GapUp", "IntraVol",
	"Momentum_5", "RSI_14", "MACD", "MACD_Signal",
	"EMA_10", "EMA_50", "ATR_14", "OBV", "BB_Position",
}

var targetNames = [NumTargets]string{"Target_1D", "Target_1W", "Target_1M"}

const (
	NumFeatures = 21
	NumTargets  = 3

	// DateColumn is the first column of every feature table
	DateColumn = "Date"

	// WeeklyTarget is the training label
	WeeklyTarget = "Target_1W"

	// FeatureSchemaVersion changes whenever the feature set or its semantics change
	FeatureSchemaVersion = 1
)

// FeatureNames returns the 21 feature names in their fixed order
func FeatureNames() []string {
	out := make([]string, NumFeatures)
	copy(out, featureNames[:])
	return out
}

// TargetNames returns the forward target names
func TargetNames() []string {
	out := make([]string, NumTargets)
	copy(out, targetNames[:])
	return out
}

// FeatureTableHeader returns [Date, features..., targets...]
func FeatureTableHeader() []string {
	header := make([]string, 0, 1+NumFeatures+NumTargets)
	header = append(header, DateColumn)
	header = append(header, featureNames[:]...)
	header = append(header, targetNames[:]...)
	return header
}

// FeatureFingerprint is the hex sha256 of the comma-joined feature order
func FeatureFingerprint() string {
	return FingerprintOf(featureNames[:])
}

// FingerprintOf hashes an arbitrary feature ordering
func FingerprintOf(names []string) string {
	sum := sha256.Sum256([]byte(strings.Join(names, ",")))
	return hex.EncodeToString(sum[:])
}

// FeatureRow is one dated observation of features and forward targets
type FeatureRow struct {
	Date     time.Time
	Features [NumFeatures]float64
	Targets  [NumTargets]float64
}

// Target1W returns the (scaled) weekly target
func (r *FeatureRow) Target1W() float64 {
	return r.Targets[1]
}

// IsFinite reports whether every feature and target value is finite
func (r *FeatureRow) IsFinite() bool {
	for _, v := range r.Features {
		if !isFinite(v) {
			return false
		}
	}
	for _, v := range r.Targets {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

// FeatureTable is one symbol's persisted feature history
// ⭐ SSOT: S2 → S3/S4 피처 테이블 전달
type FeatureTable struct {
	Symbol string       `json:"symbol"`
	Rows   []FeatureRow `json:"rows"`

	// Columns is the header the table was read with; nil means the full layout
	Columns []string `json:"-"`
}

// HasColumn reports whether the table was stored with the named column
func (t *FeatureTable) HasColumn(name string) bool {
	if t.Columns == nil {
		return true
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows
func (t *FeatureTable) Len() int {
	return len(t.Rows)
}

// Last returns the most recent row
func (t *FeatureTable) Last() (FeatureRow, bool) {
	if len(t.Rows) == 0 {
		return FeatureRow{}, false
	}
	return t.Rows[len(t.Rows)-1], true
}
