// Package failure defines the error kinds a figure run can end with.
//
// Every error surfaced by climap wraps exactly one of the sentinels below, so
// callers classify with errors.Is and log with Kind.
package failure

import "errors"

var (
	// ErrIO is a missing or unreadable input file or remote dataset.
	ErrIO = errors.New("io error")
	// ErrDomain means the requested region lies outside the dataset extent.
	ErrDomain = errors.New("domain error")
	// ErrEmptySelection means the region intersects the extent but selects no grid points.
	ErrEmptySelection = errors.New("empty selection")
	// ErrConfig is a malformed figure definition or color table.
	ErrConfig = errors.New("config error")
)

// Kind returns a short label for the sentinel wrapped by err, or "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrDomain):
		return "domain"
	case errors.Is(err, ErrEmptySelection):
		return "empty_selection"
	case errors.Is(err, ErrConfig):
		return "config"
	}
	return "internal"
}

// ExitCode maps err to a process exit status: 0 on success, 2 for
// configuration problems, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfig):
		return 2
	}
	return 1
}
