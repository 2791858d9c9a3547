// ABOUTME: Tests for export and import functionality.
// ABOUTME: Verifies JSON, YAML, and Markdown export formats and JSON import.
package storage

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestExportJSON(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seedWorkout(t, db, "Push", 1, 2)
	if _, err := db.DuplicateWorkout(ctx, 1, CopyOptions{Name: "Push Template", AsTemplate: true}); err != nil {
		t.Fatalf("DuplicateWorkout failed: %v", err)
	}

	data, err := db.ExportJSON(ctx)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var export ExportData
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if export.Tool != "lift" {
		t.Errorf("Expected tool lift, got %s", export.Tool)
	}
	if len(export.Workouts) != 1 || len(export.Templates) != 1 {
		t.Fatalf("Expected 1 workout and 1 template, got %d and %d", len(export.Workouts), len(export.Templates))
	}
	if len(export.Workouts[0].Exercises[0].Sets) != 2 {
		t.Errorf("Expected 2 sets in export")
	}
}

func TestExportYAML(t *testing.T) {
	db := setupTestDB(t)
	seedWorkout(t, db, "Pull", 1, 1)

	data, err := db.ExportYAML(context.Background())
	if err != nil {
		t.Fatalf("ExportYAML failed: %v", err)
	}

	var yamlData map[string]interface{}
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}
	if yamlData["tool"] != "lift" {
		t.Errorf("Expected tool lift, got %v", yamlData["tool"])
	}
	workouts, ok := yamlData["workouts"].([]interface{})
	if !ok || len(workouts) != 1 {
		t.Fatalf("Expected one workout, got %v", yamlData["workouts"])
	}
	w := workouts[0].(map[string]interface{})
	if w["name"] != "Pull" {
		t.Errorf("Expected inline workout name, got %v", w["name"])
	}
}

func TestExportMarkdown(t *testing.T) {
	db := setupTestDB(t)
	seedWorkout(t, db, "Legs", 1, 1)

	md, err := db.ExportMarkdown(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExportMarkdown failed: %v", err)
	}
	if !strings.Contains(md, "# Lift Log") {
		t.Error("Expected markdown header")
	}
	if !strings.Contains(md, "Legs") || !strings.Contains(md, "### Barbell Squat") {
		t.Error("Expected workout and exercise headings")
	}
	if !strings.Contains(md, "| 1 | 100.00 | 5 |") {
		t.Error("Expected set row")
	}

	future := time.Now().Add(time.Hour)
	md, _ = db.ExportMarkdown(context.Background(), &future)
	if strings.Contains(md, "Legs") {
		t.Error("Expected since filter to drop older workouts")
	}
}

func TestImportJSONRoundTripStartsUnsynced(t *testing.T) {
	src := setupTestDB(t)
	ctx := context.Background()

	detail := seedWorkout(t, src, "Imported", 2, 1)
	_ = src.MarkSynced(ctx, detail.Ref(), "remote-1", detail.Revision)

	data, err := src.ExportJSON(ctx)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	dst := setupTestDB(t)
	if err := dst.ImportJSON(ctx, data); err != nil {
		t.Fatalf("ImportJSON failed: %v", err)
	}

	workouts, _ := dst.ListWorkouts(ctx, WorkoutFilter{})
	if len(workouts) != 1 {
		t.Fatalf("Expected 1 workout, got %d", len(workouts))
	}
	got, _ := dst.GetWorkoutDetail(ctx, workouts[0].ID)
	if got.Linked() || got.Active {
		t.Error("Expected imported workout to be unlinked and inactive")
	}
	if len(got.Exercises) != 2 || len(got.Exercises[1].Sets) != 1 {
		t.Errorf("Unexpected imported shape: %+v", got)
	}
}
