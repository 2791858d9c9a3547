// ABOUTME: Export and import of the training log.
// ABOUTME: Supports JSON, YAML, and Markdown export formats; imports JSON as local-only rows.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for the training log.
type ExportData struct {
	Version    string                  `json:"version" yaml:"version"`
	ExportedAt time.Time               `json:"exported_at" yaml:"exported_at"`
	Tool       string                  `json:"tool" yaml:"tool"`
	Workouts   []*models.WorkoutDetail `json:"workouts" yaml:"workouts"`
	Templates  []*models.WorkoutDetail `json:"templates" yaml:"templates"`
}

// GetAllData retrieves every workout and template with its full subtree.
func (d *DB) GetAllData(ctx context.Context) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().UTC(),
		Tool:       "lift",
		Workouts:   []*models.WorkoutDetail{},
		Templates:  []*models.WorkoutDetail{},
	}
	for _, templates := range []bool{false, true} {
		workouts, err := d.ListWorkouts(ctx, WorkoutFilter{Templates: templates})
		if err != nil {
			return nil, fmt.Errorf("list workouts: %w", err)
		}
		for _, w := range workouts {
			detail, err := d.GetWorkoutDetail(ctx, w.ID)
			if err != nil {
				return nil, fmt.Errorf("load workout %d: %w", w.ID, err)
			}
			if templates {
				data.Templates = append(data.Templates, detail)
			} else {
				data.Workouts = append(data.Workouts, detail)
			}
		}
	}
	return data, nil
}

// ImportData inserts every exported tree as new, inactive, never-synced rows.
// Remote links are dropped so imported rows are pushed as fresh records.
func (d *DB) ImportData(ctx context.Context, data *ExportData) error {
	return d.RunInTransaction(ctx, func(tx *Tx) error {
		all := append(append([]*models.WorkoutDetail{}, data.Workouts...), data.Templates...)
		for _, detail := range all {
			resetForImport(detail)
			if err := tx.ImportWorkout(ctx, detail); err != nil {
				return fmt.Errorf("import workout %q: %w", detail.Name, err)
			}
		}
		return nil
	})
}

func resetForImport(detail *models.WorkoutDetail) {
	fresh := models.SyncState{Revision: 1}
	detail.Active = false
	detail.SyncState = fresh
	for i := range detail.Exercises {
		detail.Exercises[i].SyncState = fresh
		for j := range detail.Exercises[i].Sets {
			detail.Exercises[i].Sets[j].SyncState = fresh
		}
	}
}

// ImportJSON imports data from JSON bytes.
func (d *DB) ImportJSON(ctx context.Context, data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return d.ImportData(ctx, &exportData)
}

// ExportJSON exports all data as JSON.
func (d *DB) ExportJSON(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as YAML.
func (d *DB) ExportYAML(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(data)
}

// ExportMarkdown renders performed workouts as a readable training log.
// When since is set, older workouts are omitted.
func (d *DB) ExportMarkdown(ctx context.Context, since *time.Time) (string, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	now := time.Now()
	sb.WriteString(fmt.Sprintf("# Lift Log - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	for _, w := range data.Workouts {
		if since != nil && w.StartTime.Before(*since) {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s - %s\n\n", w.StartTime.Local().Format("2006-01-02 15:04"), w.Name))
		if len(w.Exercises) == 0 {
			sb.WriteString("_No exercises._\n\n")
			continue
		}
		for _, e := range w.Exercises {
			name := e.TypeName
			if name == "" {
				name = e.Type
			}
			sb.WriteString(fmt.Sprintf("### %s\n\n", name))
			sb.WriteString("| Set | Weight | Reps | Done |\n")
			sb.WriteString("|-----|--------|------|------|\n")
			for i, s := range e.Sets {
				sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
					i+1, formatWeight(s.Weight), formatReps(s.Reps), checkmark(s.Completed)))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func formatWeight(w *float64) string {
	if w == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *w)
}

func formatReps(r *int) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *r)
}

func checkmark(done bool) string {
	if done {
		return "x"
	}
	return ""
}
