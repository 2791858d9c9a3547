// ABOUTME: Read-only exercise catalog backed by an embedded JSON dataset.
// ABOUTME: The catalog is seeded into exercise_types on first open and never synced.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harperreed/lift/internal/models"
)

//go:embed catalog/exercises.json
var catalogJSON []byte

// Catalog returns the embedded exercise catalog.
func Catalog() ([]models.ExerciseType, error) {
	var types []models.ExerciseType
	if err := json.Unmarshal(catalogJSON, &types); err != nil {
		return nil, fmt.Errorf("parse exercise catalog: %w", err)
	}
	return types, nil
}

// SeedExerciseTypes loads the catalog when the table is empty.
func (d *DB) SeedExerciseTypes(ctx context.Context) error {
	return d.RunInTransaction(ctx, func(tx *Tx) error {
		var n int
		if err := tx.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM exercise_types`).Scan(&n); err != nil {
			return wrapErr("count exercise types", err)
		}
		if n > 0 {
			return nil
		}
		types, err := Catalog()
		if err != nil {
			return err
		}
		for _, et := range types {
			if err := tx.putExerciseType(ctx, et); err != nil {
				return err
			}
		}
		return nil
	})
}

func (o ops) putExerciseType(ctx context.Context, et models.ExerciseType) error {
	instructions, err := json.Marshal(nonNil(et.Instructions))
	if err != nil {
		return fmt.Errorf("encode instructions: %w", err)
	}
	primary, err := json.Marshal(nonNil(et.PrimaryMuscles))
	if err != nil {
		return fmt.Errorf("encode primary muscles: %w", err)
	}
	secondary, err := json.Marshal(nonNil(et.SecondaryMuscles))
	if err != nil {
		return fmt.Errorf("encode secondary muscles: %w", err)
	}
	_, err = o.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO exercise_types (id, name, instructions, primary_muscles, secondary_muscles, level)
		VALUES (?, ?, ?, ?, ?, ?)`,
		et.ID, et.Name, string(instructions), string(primary), string(secondary), et.Level)
	return wrapErr("store exercise type", err)
}

// GetExerciseType looks up a catalog entry by id.
func (o ops) GetExerciseType(ctx context.Context, id string) (*models.ExerciseType, error) {
	et, err := scanExerciseType(o.q.QueryRowContext(ctx, `
		SELECT id, name, instructions, primary_muscles, secondary_muscles, level
		FROM exercise_types WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exercise type %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("get exercise type", err)
	}
	return et, nil
}

// ListExerciseTypes lists catalog entries by name, optionally filtered by a
// case-insensitive substring of the name or a muscle.
func (o ops) ListExerciseTypes(ctx context.Context, search string) ([]*models.ExerciseType, error) {
	query := `SELECT id, name, instructions, primary_muscles, secondary_muscles, level FROM exercise_types`
	var args []any
	if search != "" {
		query += ` WHERE name LIKE ? OR primary_muscles LIKE ? OR secondary_muscles LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY name`

	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list exercise types", err)
	}
	defer rows.Close()

	var out []*models.ExerciseType
	for rows.Next() {
		et, err := scanExerciseType(rows)
		if err != nil {
			return nil, wrapErr("scan exercise type", err)
		}
		out = append(out, et)
	}
	return out, wrapErr("list exercise types", rows.Err())
}

func scanExerciseType(row scanner) (*models.ExerciseType, error) {
	var (
		et                          models.ExerciseType
		instructions, prim, seconds string
	)
	if err := row.Scan(&et.ID, &et.Name, &instructions, &prim, &seconds, &et.Level); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(instructions), &et.Instructions); err != nil {
		return nil, fmt.Errorf("decode instructions: %w", err)
	}
	if err := json.Unmarshal([]byte(prim), &et.PrimaryMuscles); err != nil {
		return nil, fmt.Errorf("decode primary muscles: %w", err)
	}
	if err := json.Unmarshal([]byte(seconds), &et.SecondaryMuscles); err != nil {
		return nil, fmt.Errorf("decode secondary muscles: %w", err)
	}
	return &et, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
