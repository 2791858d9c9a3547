// ABOUTME: Tests for CLI helper functions and command execution.
// ABOUTME: Runs commands against a temporary data directory with sync disabled.
package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/lift/internal/storage"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "date and time with space", input: "2026-01-31 08:30"},
		{name: "date and time with T", input: "2026-01-31T08:30"},
		{name: "date only", input: "2026-01-31"},
		{name: "RFC3339", input: "2026-01-31T08:30:00Z"},
		{name: "invalid format", input: "31-01-2026", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTime(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTime(%q) unexpected error: %v", tt.input, err)
			}
			if result.IsZero() {
				t.Errorf("parseTime(%q) returned zero time", tt.input)
			}
		})
	}
}

func TestParseTimeValues(t *testing.T) {
	result, err := parseTime("2026-06-15")
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if result.Year() != 2026 || result.Month() != time.June || result.Day() != 15 {
		t.Errorf("parseTime returned wrong date: got %v", result)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world this is long", 10, "hello w..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight = %q, want %q", got, "ab  ")
	}
	if got := padRight("abcdef", 4); got != "abcdef" {
		t.Errorf("padRight should not truncate, got %q", got)
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"0", "-3", "abc", ""} {
		if _, err := parseID(bad); err == nil {
			t.Errorf("parseID(%q) expected error", bad)
		}
	}
}

func TestParseSetValues(t *testing.T) {
	weight, reps, err := parseSetValues("82.5", "8")
	if err != nil {
		t.Fatalf("parseSetValues failed: %v", err)
	}
	if weight == nil || *weight != 82.5 || reps == nil || *reps != 8 {
		t.Errorf("unexpected values: %v %v", weight, reps)
	}

	weight, reps, err = parseSetValues("", "")
	if err != nil || weight != nil || reps != nil {
		t.Errorf("empty flags should leave both unset, got %v %v %v", weight, reps, err)
	}

	if _, _, err := parseSetValues("-5", ""); err == nil {
		t.Error("negative weight should be rejected")
	}
	if _, _, err := parseSetValues("", "lots"); err == nil {
		t.Error("non-numeric reps should be rejected")
	}
}

func TestRootCmd(t *testing.T) {
	if rootCmd.Use != "lift" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "lift")
	}
	if rootCmd.PersistentFlags().Lookup("verbose") == nil {
		t.Error("expected --verbose persistent flag")
	}
}

func TestCommandTree(t *testing.T) {
	want := map[string][]string{
		"workout":  {"start", "from-template", "list", "show", "rename", "end", "delete"},
		"template": {"list", "save"},
		"exercise": {"add", "reorder", "move", "delete"},
		"set":      {"add", "update", "done", "undo", "delete"},
		"types":    {"list", "show"},
		"sync":     {"login", "link", "logout", "status", "now", "pull", "repair"},
	}
	for parent, children := range want {
		cmd, _, err := rootCmd.Find([]string{parent})
		if err != nil || cmd.Name() != parent {
			t.Errorf("command %q not registered", parent)
			continue
		}
		for _, child := range children {
			sub, _, err := cmd.Find([]string{child})
			if err != nil || sub.Name() != child {
				t.Errorf("command %q %q not registered", parent, child)
			}
		}
	}
	for _, name := range []string{"export", "import", "mcp", "install-skill"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestExportCmdValidArgs(t *testing.T) {
	want := map[string]bool{"json": true, "yaml": true, "markdown": true}
	for _, arg := range exportCmd.ValidArgs {
		delete(want, arg)
	}
	if len(want) != 0 {
		t.Errorf("missing export formats: %v", want)
	}
}

// setupTestCLI points data and config at a temp dir, leaving sync unconfigured.
func setupTestCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))

	workoutLimit = 20
	workoutEndTemplate = false
	workoutTemplateName = ""
	exerciseWorkout = 0
	setWeight, setReps, setDone = "", "", false
	exportOutput, exportSince = "", ""

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	return dir
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func openTestDB(t *testing.T, dir string) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(dir, "data", "lift", "lift.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestWorkoutSessionCommands(t *testing.T) {
	dir := setupTestCLI(t)
	ctx := context.Background()

	if err := run(t, "workout", "start", "Leg Day"); err != nil {
		t.Fatalf("workout start failed: %v", err)
	}
	if err := run(t, "exercise", "add", "Barbell_Squat"); err != nil {
		t.Fatalf("exercise add failed: %v", err)
	}

	db := openTestDB(t, dir)
	active, err := db.GetActiveWorkout(ctx)
	if err != nil {
		t.Fatalf("no active workout: %v", err)
	}
	if active.Name != "Leg Day" {
		t.Errorf("active workout = %q, want Leg Day", active.Name)
	}
	exercises, err := db.ListExercises(ctx, active.ID)
	if err != nil || len(exercises) != 1 {
		t.Fatalf("expected 1 exercise, got %d (%v)", len(exercises), err)
	}
	exerciseID := exercises[0].ID

	if err := run(t, "set", "add", itoa(exerciseID), "--weight", "100", "--reps", "5"); err != nil {
		t.Fatalf("set add failed: %v", err)
	}
	sets, err := db.ListSets(ctx, exerciseID)
	if err != nil || len(sets) != 1 {
		t.Fatalf("expected 1 set, got %d (%v)", len(sets), err)
	}
	if sets[0].Weight == nil || *sets[0].Weight != 100 || sets[0].Completed {
		t.Errorf("unexpected set: %+v", sets[0])
	}

	setWeight, setReps = "", ""
	if err := run(t, "set", "done", itoa(sets[0].ID)); err != nil {
		t.Fatalf("set done failed: %v", err)
	}
	sets, _ = db.ListSets(ctx, exerciseID)
	if !sets[0].Completed {
		t.Error("set should be completed")
	}

	if err := run(t, "workout", "end", "--template", "--name", "Legs A"); err != nil {
		t.Fatalf("workout end failed: %v", err)
	}
	if _, err := db.GetActiveWorkout(ctx); err == nil {
		t.Error("workout should no longer be active")
	}
	templates, err := db.ListWorkouts(ctx, storage.WorkoutFilter{Templates: true})
	if err != nil || len(templates) != 1 || templates[0].Name != "Legs A" {
		t.Fatalf("expected template Legs A, got %v (%v)", templates, err)
	}

	workoutEndTemplate, workoutTemplateName = false, ""
	if err := run(t, "workout", "from-template", itoa(templates[0].ID)); err != nil {
		t.Fatalf("from-template failed: %v", err)
	}
	active, err = db.GetActiveWorkout(ctx)
	if err != nil {
		t.Fatalf("no active workout after from-template: %v", err)
	}
	detail, err := db.GetWorkoutDetail(ctx, active.ID)
	if err != nil || len(detail.Exercises) != 1 || len(detail.Exercises[0].Sets) != 1 {
		t.Fatalf("template copy incomplete: %+v (%v)", detail, err)
	}
	if detail.Exercises[0].Sets[0].Completed {
		t.Error("sets copied from a template start not completed")
	}
}

func TestCommandsRejectBadInput(t *testing.T) {
	setupTestCLI(t)

	if err := run(t, "exercise", "add", "Not_A_Real_Exercise"); err == nil {
		t.Error("adding without an active workout should fail")
	}
	if err := run(t, "workout", "start"); err != nil {
		t.Fatalf("workout start failed: %v", err)
	}
	if err := run(t, "exercise", "add", "Not_A_Real_Exercise"); err == nil {
		t.Error("unknown exercise type should fail")
	}
	if err := run(t, "set", "done", "999"); err == nil {
		t.Error("completing a missing set should fail")
	}
	if err := run(t, "workout", "rename", "abc", "x"); err == nil {
		t.Error("non-numeric id should fail")
	}
	if err := run(t, "export", "csv"); err == nil {
		t.Error("unknown export format should fail")
	}
}

func TestDeleteWorkoutCommand(t *testing.T) {
	dir := setupTestCLI(t)
	ctx := context.Background()

	if err := run(t, "workout", "start", "Throwaway"); err != nil {
		t.Fatalf("workout start failed: %v", err)
	}
	db := openTestDB(t, dir)
	w, err := db.GetActiveWorkout(ctx)
	if err != nil {
		t.Fatalf("no active workout: %v", err)
	}

	if err := run(t, "workout", "delete", itoa(w.ID)); err != nil {
		t.Fatalf("workout delete failed: %v", err)
	}
	if _, err := db.GetWorkout(ctx, w.ID); err == nil {
		t.Error("workout should be gone")
	}
}

func TestSyncNowWithoutMirror(t *testing.T) {
	setupTestCLI(t)
	if err := run(t, "sync", "now"); err != nil {
		t.Errorf("sync now without a mirror should not fail: %v", err)
	}
	if err := run(t, "sync", "status"); err != nil {
		t.Errorf("sync status failed: %v", err)
	}
}

func TestExportRoundTrip(t *testing.T) {
	dir := setupTestCLI(t)

	if err := run(t, "workout", "start", "Exported"); err != nil {
		t.Fatalf("workout start failed: %v", err)
	}
	out := filepath.Join(dir, "backup.json")
	if err := run(t, "export", "json", "-o", out); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	exportOutput = ""
	if err := run(t, "import", out); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	db := openTestDB(t, dir)
	n, err := db.CountWorkouts(context.Background(), false)
	if err != nil || n != 2 {
		t.Errorf("expected 2 workouts after import, got %d (%v)", n, err)
	}
}

func itoa(id int64) string {
	return fmt.Sprint(id)
}
