// Package services defines the error taxonomy shared by pipeline stages.
// Errors are tagged with sentinel markers so callers can classify a failure
// without string matching.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrerequisite marks a stage run attempted before its input artifacts
	// exist. Fatal to the requested action only; session state is unchanged.
	ErrPrerequisite = errors.New("prerequisite missing")
	// ErrExternalService marks a generator API failure. Non-fatal per unit.
	ErrExternalService = errors.New("external service error")
	// ErrValidation marks malformed artifacts or arguments.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration, such as a missing API key.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing session or entity.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker. The marker should be one of the exported sentinel
// errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalService
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// AbortsAction reports whether the error should stop the requested action
// outright rather than being recorded per unit and skipped.
func AbortsAction(err error) bool {
	return errors.Is(err, ErrPrerequisite) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrNotFound)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
