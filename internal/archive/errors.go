package archive

import (
	"fmt"

	"toolup/internal/release"
)

// ExtractionError means the archive could not be read or unpacked.
type ExtractionError struct {
	Path   string
	Format release.Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// MissingDependencyError means a format needs a system tool that is not on PATH.
type MissingDependencyError struct {
	Tool   string
	Format release.Format
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s is required to extract .%s assets but was not found on PATH", e.Tool, e.Format)
}
