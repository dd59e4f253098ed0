package pointgrid

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBlobStore is returned by snapshot operations when no blob store
	// is configured.
	ErrNoBlobStore = errors.New("no blob store configured")

	// ErrSnapshotNotFound is returned when loading a snapshot that does not
	// exist in the configured blob store.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// ErrRegionCompaction indicates that compacting a single region failed. The
// whole deletion aborts; no region is ever left half-swapped.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrRegionCompaction struct {
	Origin string
	cause  error
}

func (e *ErrRegionCompaction) Error() string {
	return fmt.Sprintf("region %s: compaction failed: %v", e.Origin, e.cause)
}

func (e *ErrRegionCompaction) Unwrap() error { return e.cause }
