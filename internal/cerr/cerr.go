// Package cerr defines the fatal error kinds raised by the compositor core,
// per the failure taxonomy it is built against. None of these are retried;
// they propagate to the caller, which owns the decision to abort the run.
package cerr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Use errors.Is(err, cerr.ErrInvalidRegion) etc. to classify
// an error returned from this module.
var (
	// ErrInvalidRegion means a region violated 0 <= begin <= end <= width*height.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrIncompatibleImages means two images differ in dimensions or encoding.
	ErrIncompatibleImages = errors.New("incompatible images")
	// ErrNonPartitioningRegions means gather's callers did not partition [0, width*height).
	ErrNonPartitioningRegions = errors.New("regions do not partition the frame")
	// ErrCollectiveFailure means a transport error, size mismatch, or missing peer.
	ErrCollectiveFailure = errors.New("collective failure")
	// ErrUnsupportedGroupSize means a non-power-of-two group size was rejected
	// because the caller disabled the direct-send fallback.
	ErrUnsupportedGroupSize = errors.New("unsupported group size")
)

// Error wraps a sentinel Kind with operation-specific context. Callers that
// only care about the kind should use errors.Is; callers that want the
// detail should print the error or inspect its fields directly.
type Error struct {
	Kind error
	Op   string // e.g. "imagebuf.New", "compositor.Compose", "gather.Gather"
	Rank int    // -1 if not applicable
	Msg  string
}

func (e *Error) Error() string {
	if e.Rank >= 0 {
		return fmt.Sprintf("%s: rank %d: %s: %s", e.Op, e.Rank, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// New builds an *Error with no rank context.
func New(op string, kind error, msg string) *Error {
	return &Error{Op: op, Kind: kind, Rank: -1, Msg: msg}
}

// NewRank builds an *Error tied to a specific rank, for collective failures.
func NewRank(op string, kind error, rank int, msg string) *Error {
	return &Error{Op: op, Kind: kind, Rank: rank, Msg: msg}
}
