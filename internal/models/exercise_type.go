// ABOUTME: ExerciseType is the static reference catalog entry for an exercise.
// ABOUTME: Seeded once from an embedded catalog and never synchronized.
package models

// ExerciseType describes how an exercise is performed.
type ExerciseType struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Instructions     []string `json:"instructions" yaml:"instructions"`
	PrimaryMuscles   []string `json:"primaryMuscles" yaml:"primary_muscles"`
	SecondaryMuscles []string `json:"secondaryMuscles" yaml:"secondary_muscles"`
	Level            string   `json:"level" yaml:"level"`
}
