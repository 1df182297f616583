package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 리포트, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → S5
//   Data  Universe  Features  Training  Ranking  Evaluation

// Stage represents a pipeline stage
type Stage string

const (
	// StageData S0: 가격 데이터 수집 및 저장
	// 위치: internal/s0_data/
	StageData Stage = "S0_DATA"

	// StageUniverse S1: 대상 종목 목록
	// 위치: internal/s1_universe/
	StageUniverse Stage = "S1_UNIVERSE"

	// StageFeatures S2: 피처/타깃 테이블 생성
	// 위치: internal/s2_features/
	StageFeatures Stage = "S2_FEATURES"

	// StageTraining S3: 회귀 모델 학습
	// 위치: internal/s3_training/
	StageTraining Stage = "S3_TRAINING"

	// StageRanking S4: 예측 및 순위
	// 위치: internal/selection/
	StageRanking Stage = "S4_RANKING"

	// StageEvaluation S5: 지난 예측 정확도 평가
	// 위치: internal/audit/
	StageEvaluation Stage = "S5_EVALUATION"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageData:
		return "S0"
	case StageUniverse:
		return "S1"
	case StageFeatures:
		return "S2"
	case StageTraining:
		return "S3"
	case StageRanking:
		return "S4"
	case StageEvaluation:
		return "S5"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageData:
		return "price collection"
	case StageUniverse:
		return "symbol universe"
	case StageFeatures:
		return "feature tables"
	case StageTraining:
		return "model training"
	case StageRanking:
		return "prediction & ranking"
	case StageEvaluation:
		return "accuracy evaluation"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageData,
		StageUniverse,
		StageFeatures,
		StageTraining,
		StageRanking,
		StageEvaluation,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Report      *RunReport             `json:"report,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
