package skills

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleManifest = `---
name: code-review
description: Reviews a diff for correctness issues.
allowed-tools:
  - read_file
  - exec
requires-container: false
---

# Code Review

Reads the diff and summarizes issues.
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest("code-review.md", []byte(sampleManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "code-review" {
		t.Fatalf("got name %q", m.Name)
	}
	if len(m.AllowedTools) != 2 {
		t.Fatalf("expected 2 allowed tools, got %v", m.AllowedTools)
	}
	if m.RequiresContainer {
		t.Fatal("expected requires-container: false")
	}
}

func TestParseManifestRejectsMissingFrontmatter(t *testing.T) {
	if _, err := ParseManifest("bad.md", []byte("# no frontmatter\n")); err == nil {
		t.Fatal("expected error for missing frontmatter")
	}
}

func TestParseManifestRejectsMissingName(t *testing.T) {
	bad := "---\ndescription: x\n---\nbody\n"
	if _, err := ParseManifest("bad.md", []byte(bad)); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestLoaderThreeTierPrecedence(t *testing.T) {
	project := t.TempDir()
	workspace := t.TempDir()

	writeManifest(t, workspace, "shared.md", "shared", "from workspace")
	writeManifest(t, project, "shared.md", "shared", "from project")

	l, err := NewLoader(SearchPath{ProjectDir: project, WorkspaceDir: workspace})
	if err != nil {
		t.Fatal(err)
	}
	m, ok := l.Get("shared")
	if !ok {
		t.Fatal("expected shared skill to be discovered")
	}
	if m.Description != "from project" {
		t.Fatalf("expected project tier to win, got %q", m.Description)
	}
}

func writeManifest(t *testing.T, dir, filename, name, description string) {
	t.Helper()
	content := "---\nname: " + name + "\ndescription: " + description + "\n---\nbody\n"
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
