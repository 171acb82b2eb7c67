package release

import "fmt"

// Kind classifies resolution failures.
type Kind int

const (
	// ApiUnavailable: the release API could not be reached or answered with an error.
	ApiUnavailable Kind = iota
	// NoMatchingAsset: the release has no asset for this architecture and pattern.
	NoMatchingAsset
	// UnsupportedArchitecture: the host CPU has no architecture token. Fatal for the run.
	UnsupportedArchitecture
	// BadPattern: the tool's asset pattern is not a valid regular expression.
	BadPattern
)

func (k Kind) String() string {
	switch k {
	case ApiUnavailable:
		return "api unavailable"
	case NoMatchingAsset:
		return "no matching asset"
	case UnsupportedArchitecture:
		return "unsupported architecture"
	case BadPattern:
		return "bad asset pattern"
	default:
		return "unknown"
	}
}

// ResolutionError is returned by Resolver and ArchToken.
type ResolutionError struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
