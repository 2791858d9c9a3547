// ABOUTME: Kind and Ref form a tagged variant over the three synced entity kinds.
// ABOUTME: Parent relationships are expressed once here for the sync orchestrator.
package models

import (
	"fmt"
)

// Kind identifies one of the synced entity kinds.
type Kind string

const (
	KindWorkout  Kind = "workout"
	KindExercise Kind = "exercise"
	KindSet      Kind = "set"
)

// AllKinds lists kinds root-first.
var AllKinds = []Kind{KindWorkout, KindExercise, KindSet}

// Parent returns the kind owning this kind, if any.
func (k Kind) Parent() (Kind, bool) {
	switch k {
	case KindExercise:
		return KindWorkout, true
	case KindSet:
		return KindExercise, true
	default:
		return "", false
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindWorkout, KindExercise, KindSet:
		return true
	}
	return false
}

// Ref points at a single local entity.
type Ref struct {
	Kind Kind
	ID   int64
}

// WorkoutRef is shorthand for a workout reference.
func WorkoutRef(id int64) Ref { return Ref{Kind: KindWorkout, ID: id} }

// ExerciseRef is shorthand for an exercise reference.
func ExerciseRef(id int64) Ref { return Ref{Kind: KindExercise, ID: id} }

// SetRef is shorthand for a set reference.
func SetRef(id int64) Ref { return Ref{Kind: KindSet, ID: id} }

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}
