package contracts

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every stage.
// Per-symbol classes are skips; ErrArtifactNotFound, ErrArtifactMismatch and
// ErrNoTrainableData abort the run that hit them.
var (
	ErrMissingInputData    = errors.New("missing input data")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrDataQuality         = errors.New("data quality error")
	ErrArtifactNotFound    = errors.New("model artifact not found")
	ErrArtifactMismatch    = errors.New("model artifact mismatch")
	ErrNoTrainableData     = errors.New("no trainable data")
	ErrPerSymbolProcessing = errors.New("symbol processing error")
	ErrUnrecognizedLayout  = fmt.Errorf("%w: unrecognized column layout", ErrDataQuality)
	ErrMissingWeeklyTarget = fmt.Errorf("%w: no %s column", ErrDataQuality, WeeklyTarget)
)

// SymbolError ties a failure to one symbol
type SymbolError struct {
	Symbol string
	Reason SkipReason
	Err    error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Symbol, e.Reason, e.Err)
}

func (e *SymbolError) Unwrap() error {
	return e.Err
}

// NewSymbolError classifies err for symbol
func NewSymbolError(symbol string, err error) *SymbolError {
	return &SymbolError{Symbol: symbol, Reason: ClassifySkip(err), Err: err}
}

// ClassifySkip maps an error to the skip reason recorded in run reports
func ClassifySkip(err error) SkipReason {
	var symErr *SymbolError
	switch {
	case err == nil:
		return SkipNone
	case errors.As(err, &symErr):
		return symErr.Reason
	case errors.Is(err, ErrMissingInputData):
		return SkipMissingInput
	case errors.Is(err, ErrInsufficientHistory):
		return SkipInsufficientHistory
	case errors.Is(err, ErrMissingWeeklyTarget):
		return SkipMissingTarget
	case errors.Is(err, ErrDataQuality):
		return SkipDataQuality
	default:
		return SkipProcessingError
	}
}

// IsFatal reports whether err must abort the current run
func IsFatal(err error) bool {
	return errors.Is(err, ErrArtifactNotFound) ||
		errors.Is(err, ErrArtifactMismatch) ||
		errors.Is(err, ErrNoTrainableData)
}
