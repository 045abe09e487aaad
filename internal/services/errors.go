package services

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden: the requesting developer does not own the target game.
	ErrForbidden = errors.New("forbidden")
	// ErrGameNotFound / ErrAssetNotFound: no such row.
	ErrGameNotFound  = errors.New("game not found")
	ErrAssetNotFound = errors.New("asset not found")
	// ErrAssetMissing: the asset row exists but its backing blob is gone
	// from the store.
	ErrAssetMissing = errors.New("asset file missing from storage")
	// ErrExtractionFailed: the build archive could not be unpacked.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrFileNotFound: requested file absent under the extraction root.
	ErrFileNotFound = errors.New("file not found")
)

// ValidationError carries the specific ingest rule that was violated.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(rule, format string, args ...any) error {
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}
