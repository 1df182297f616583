package modelconfig

import "time"

// Config는 피처/학습/예측 파이프라인의 전체 설정
// ⭐ SSOT: 매직 상수(2.0, 1.8 등)는 여기서만 정의
type Config struct {
	Features   Features   `yaml:"features" json:"features"`
	Training   Training   `yaml:"training" json:"training"`
	Prediction Prediction `yaml:"prediction" json:"prediction"`
	Universe   Universe   `yaml:"universe" json:"universe"`
	Fetch      Fetch      `yaml:"fetch" json:"fetch"`
	Evaluation Evaluation `yaml:"evaluation" json:"evaluation"`
}

// Features S2: 피처 테이블 생성
type Features struct {
	// TargetWeekScale multiplies the 5-day forward log return.
	// Calibration unconfirmed; it changes sample weights and loss scale.
	TargetWeekScale float64 `yaml:"target_week_scale" json:"target_week_scale" default:"2.0" validate:"gt=0"`
	MinRows         int     `yaml:"min_rows" json:"min_rows" default:"100" validate:"gte=1"`
}

// Training S3: 회귀 모델 학습
type Training struct {
	TestFraction    float64 `yaml:"test_fraction" json:"test_fraction" default:"0.2" validate:"gt=0,lt=1"`
	Seed            int64   `yaml:"seed" json:"seed" default:"42"`
	WeightScale     float64 `yaml:"weight_scale" json:"weight_scale" default:"10" validate:"gt=0"`
	WeightMin       float64 `yaml:"weight_min" json:"weight_min" default:"1" validate:"gt=0"`
	WeightMax       float64 `yaml:"weight_max" json:"weight_max" default:"10" validate:"gtefield=WeightMin"`
	NEstimators     int     `yaml:"n_estimators" json:"n_estimators" default:"600" validate:"gte=1"`
	LearningRate    float64 `yaml:"learning_rate" json:"learning_rate" default:"0.03" validate:"gt=0,lte=1"`
	MaxDepth        int     `yaml:"max_depth" json:"max_depth" default:"10" validate:"gte=1,lte=16"`
	Subsample       float64 `yaml:"subsample" json:"subsample" default:"0.8" validate:"gt=0,lte=1"`
	ColsampleByTree float64 `yaml:"colsample_bytree" json:"colsample_bytree" default:"0.8" validate:"gt=0,lte=1"`
	HuberSlope      float64 `yaml:"huber_slope" json:"huber_slope" default:"1.0" validate:"gt=0"`
	Lambda          float64 `yaml:"lambda" json:"lambda" default:"1.0" validate:"gte=0"`
	MinChildWeight  float64 `yaml:"min_child_weight" json:"min_child_weight" default:"1.0" validate:"gte=0"`
	MaxBins         int     `yaml:"max_bins" json:"max_bins" default:"256" validate:"gte=2,lte=65535"`
	EvalEvery       int     `yaml:"eval_every" json:"eval_every" default:"50" validate:"gte=1"`
}

// Prediction S4: 추론 및 순위
type Prediction struct {
	MinRows int `yaml:"min_rows" json:"min_rows" default:"30" validate:"gte=1"`
	// Stretch is applied before tanh; calibration unconfirmed.
	Stretch      float64 `yaml:"stretch" json:"stretch" default:"1.8" validate:"gt=0"`
	PriceDivisor float64 `yaml:"price_divisor" json:"price_divisor" default:"2.0" validate:"gt=0"`
	TopN         int     `yaml:"top_n" json:"top_n" default:"10" validate:"gte=1"`
}

// Universe S1: 대상 종목
type Universe struct {
	File   string `yaml:"file" json:"file" default:"data/universe.csv" validate:"required"`
	URL    string `yaml:"url" json:"url" validate:"omitempty,url"` // HTML constituents page, overrides File
	Suffix string `yaml:"suffix" json:"suffix" default:".NS"`
}

// Fetch S0: 가격 수집 기간
type Fetch struct {
	Start string `yaml:"start" json:"start" default:"2020-01-01" validate:"datetime=2006-01-02"`
	End   string `yaml:"end" json:"end" default:"2025-01-01" validate:"datetime=2006-01-02"`
}

// Evaluation S5: 정확도 평가
type Evaluation struct {
	HorizonDays int `yaml:"horizon_days" json:"horizon_days" default:"7" validate:"gte=1"`
	ReportN     int `yaml:"report_n" json:"report_n" default:"5" validate:"gte=1"`
}

// StartDate parses Fetch.Start (validated on load)
func (f Fetch) StartDate() time.Time {
	t, _ := time.Parse("2006-01-02", f.Start)
	return t
}

// EndDate parses Fetch.End (validated on load)
func (f Fetch) EndDate() time.Time {
	t, _ := time.Parse("2006-01-02", f.End)
	return t
}
