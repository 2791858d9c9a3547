// ABOUTME: Tests for the install-skill command.
// ABOUTME: Validates skill installation, directory creation, and file content.

package main

import (
	"os"
	"strings"
	"testing"
)

func TestEmbeddedSkillContent(t *testing.T) {
	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		t.Fatalf("Failed to read embedded skill: %v", err)
	}
	text := string(content)
	for _, marker := range []string{"name: lift", "lift workout start", "lift sync now"} {
		if !strings.Contains(text, marker) {
			t.Errorf("embedded skill missing %q", marker)
		}
	}
}

func TestInstallSkillWritesFile(t *testing.T) {
	home := t.TempDir()

	if err := installSkill(home, true); err != nil {
		t.Fatalf("installSkill failed: %v", err)
	}

	got, err := os.ReadFile(skillPath(home))
	if err != nil {
		t.Fatalf("Skill file not created: %v", err)
	}
	want, _ := skillFS.ReadFile("skill/SKILL.md")
	if string(got) != string(want) {
		t.Error("installed skill differs from embedded copy")
	}

	info, err := os.Stat(skillPath(home))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("skill file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestInstallSkillOverwrites(t *testing.T) {
	home := t.TempDir()
	if err := installSkill(home, true); err != nil {
		t.Fatalf("first install failed: %v", err)
	}
	if err := os.WriteFile(skillPath(home), []byte("stale"), 0600); err != nil {
		t.Fatalf("write stale: %v", err)
	}
	if err := installSkill(home, true); err != nil {
		t.Fatalf("second install failed: %v", err)
	}
	got, _ := os.ReadFile(skillPath(home))
	if string(got) == "stale" {
		t.Error("existing skill file should be overwritten")
	}
}
