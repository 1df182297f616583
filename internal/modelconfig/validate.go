package modelconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks field constraints and cross-field rules
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return ValidationError{
				Field:   strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config.")),
				Message: fmt.Sprintf("failed %q (value %v)", fe.Tag(), fe.Value()),
			}
		}
		return err
	}

	if !cfg.Fetch.StartDate().Before(cfg.Fetch.EndDate()) {
		return ValidationError{"fetch", "start must be before end"}
	}

	if cfg.Universe.Suffix != "" && !strings.HasPrefix(cfg.Universe.Suffix, ".") {
		return ValidationError{"universe.suffix", "must start with '.'"}
	}

	return nil
}
