package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vconv/internal/backend"
	"vconv/internal/services"
)

// inputError rejects a request before any backend runs. Its message is shown
// to the user verbatim; the marker classifies it for errors.Is.
type inputError struct {
	message string
	marker  error
}

func (e *inputError) Error() string { return e.message }

func (e *inputError) Unwrap() error { return e.marker }

// ValidateRequest checks the source, format and output path of req. A
// returned error is wrapped around services.ErrNotFound or
// services.ErrValidation.
func ValidateRequest(req backend.Request) error {
	if req.SourcePath == "" {
		return &inputError{message: "No source file selected", marker: services.ErrValidation}
	}
	info, err := os.Stat(req.SourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &inputError{message: fmt.Sprintf("Source file does not exist: %s", req.SourcePath), marker: services.ErrNotFound}
		}
		return &inputError{message: fmt.Sprintf("Cannot read source file: %v", err), marker: services.ErrValidation}
	}
	if !info.Mode().IsRegular() {
		return &inputError{message: fmt.Sprintf("Source is not a regular file: %s", req.SourcePath), marker: services.ErrValidation}
	}
	if !req.Format.Valid() {
		return &inputError{message: "Unsupported output format", marker: services.ErrValidation}
	}
	if req.OutputPath == "" {
		return &inputError{message: "No output path", marker: services.ErrValidation}
	}
	if samePath(req.SourcePath, req.OutputPath) {
		return &inputError{message: fmt.Sprintf("Output would overwrite the source file: %s", req.OutputPath), marker: services.ErrValidation}
	}
	return nil
}

// samePath reports whether a and b resolve to the same file, either by
// cleaned absolute path or, when both exist, by device and inode.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}
