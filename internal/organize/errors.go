package organize

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClassification marks failures reading the metadata a classifier needs.
	ErrClassification = errors.New("classification error")
	// ErrCollision marks a move whose collision suffix probing was exhausted.
	ErrCollision = errors.New("collision unresolved")
	// ErrFilesystem marks move failures surfaced by the operating system.
	ErrFilesystem = errors.New("filesystem error")
)

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrFilesystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "organize failure"
	}
	return strings.Join(parts, ": ")
}
