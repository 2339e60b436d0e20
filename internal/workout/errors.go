package workout

import "github.com/myrjola/lifelog/internal/errors"

var (
	// ErrConfiguration reports a malformed or inconsistent workout configuration.
	ErrConfiguration = errors.NewSentinel("workout configuration error")
	// ErrInvalidTarget reports a slot whose set or rep targets are impossible.
	ErrInvalidTarget = errors.NewSentinel("invalid slot target")
	// ErrHistoryInconsistency reports a history entry that doesn't match the configuration. The entry is ignored
	// for scheduling but kept in storage.
	ErrHistoryInconsistency = errors.NewSentinel("history inconsistency")
	ErrInvalidRecord        = errors.NewSentinel("invalid session record")
	ErrNotFound             = errors.NewSentinel("not found")
	ErrNoPendingOffer       = errors.NewSentinel("no pending bonus offer")
)
