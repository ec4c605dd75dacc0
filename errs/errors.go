// Package errs defines the sentinel errors shared by the cellreport packages.
//
// Callers should match errors with errors.Is, since most errors returned by the
// library are wrapped with additional context.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidIdentifier is returned when one or more requested gids are not present in a report.
	ErrInvalidIdentifier = errors.New("invalid cell identifier")
	// ErrInvalidRange is returned for a malformed frame or time range.
	ErrInvalidRange = errors.New("invalid frame range")
	// ErrCapacityExceeded is returned by the writer when a single cell does not fit in a block.
	ErrCapacityExceeded = errors.New("block size too small for a single cell")
	// ErrStorageFault marks failures of the underlying block store.
	ErrStorageFault = errors.New("storage fault")

	// ErrInvalidHeaderSize is returned when the container header is truncated.
	ErrInvalidHeaderSize = errors.New("invalid header size")
	// ErrInvalidHeaderFlags is returned when the header magic, layout or codec is unknown.
	ErrInvalidHeaderFlags = errors.New("invalid header flags")
	// ErrInvalidMapping is returned when the mapping section violates its invariants.
	ErrInvalidMapping = errors.New("invalid mapping")
	// ErrChecksumMismatch is returned when a stored block does not match its index checksum.
	ErrChecksumMismatch = errors.New("block checksum mismatch")
	// ErrBlockOutOfOrder is returned when blocks are not written in ascending id order.
	ErrBlockOutOfOrder = errors.New("block written out of order")
	// ErrInvalidBlockSize is returned when a block does not have the declared width.
	ErrInvalidBlockSize = errors.New("invalid block size")
	// ErrWriterClosed is returned when writing to a closed container writer.
	ErrWriterClosed = errors.New("container writer closed")
)

// InvalidIdentifierError lists every requested gid that could not be resolved.
type InvalidIdentifierError struct {
	GIDs []uint64
}

// Error implements error.
func (e *InvalidIdentifierError) Error() string {
	ids := make([]string, len(e.GIDs))
	for i, gid := range e.GIDs {
		ids[i] = fmt.Sprint(gid)
	}

	return fmt.Sprintf("%s: %s", ErrInvalidIdentifier, strings.Join(ids, ", "))
}

// Unwrap allows errors.Is(err, ErrInvalidIdentifier).
func (e *InvalidIdentifierError) Unwrap() error {
	return ErrInvalidIdentifier
}

// StorageFault wraps err so that it matches both ErrStorageFault and err.
func StorageFault(op string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %s: %w", ErrStorageFault, op, err)
}
