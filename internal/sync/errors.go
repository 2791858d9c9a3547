// ABOUTME: Propagation outcomes and sync-level error sentinels.
// ABOUTME: Offline is a Skipped outcome, never an error.
package sync

import (
	"errors"
)

// Outcome is the result of propagating one entity.
type Outcome int

const (
	// Skipped means no remote call was needed or possible: offline, or already synced.
	Skipped Outcome = iota
	// Linked means the remote now reflects the entity's current state.
	Linked
	// Failed means the attempt was abandoned; the entity stays a sweep candidate.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Linked:
		return "linked"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

var (
	// ErrParentUnsynced means a child was not sent because its parent has no remote identity.
	ErrParentUnsynced = errors.New("parent unsynced")
	// ErrOffline is returned by explicit user-requested remote operations such as pull.
	ErrOffline = errors.New("offline")
)
