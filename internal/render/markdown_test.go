package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/chatsift/internal/pipeline"
)

func sample() []pipeline.Conversation {
	return []pipeline.Conversation{
		{
			ID:    "c1",
			Model: "gpt-4",
			Messages: []pipeline.CanonicalMessage{
				{Role: pipeline.RoleUser, Content: "how do I reverse a list"},
				{Role: pipeline.RoleAssistant, Content: "use slices.Reverse from the standard library"},
			},
		},
		{
			ID: "c2",
			Messages: []pipeline.CanonicalMessage{
				{Role: pipeline.RoleUser, Content: "explain binary search trees"},
				{Role: pipeline.RoleUnknown, Content: "noise that must not render"},
				{Role: pipeline.RoleAssistant, Content: "a BST keeps smaller keys on the left subtree"},
			},
		},
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(sample())

	if !strings.HasPrefix(out, "# Reconstructed Chat History\n") {
		t.Error("missing document title")
	}
	for _, want := range []string{
		"## Conversation 1",
		"## Conversation 2",
		"_Model: gpt-4_",
		"### User",
		"### Assistant",
		"use slices.Reverse",
		"smaller keys on the left",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "noise that must not render") {
		t.Error("unknown-role message leaked into transcript")
	}
	if strings.Count(out, "\n---\n") != 1 {
		t.Errorf("expected one separator between two conversations, got %d", strings.Count(out, "\n---\n"))
	}
}

func TestMarkdown_Empty(t *testing.T) {
	out := Markdown(nil)
	if out != "# Reconstructed Chat History\n" {
		t.Errorf("empty input must render bare title, got %q", out)
	}
}

func TestWriteFile_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "out.md")
	if err := WriteFile(path, "# hello\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "# hello\n" {
		t.Errorf("content mismatch: %q", data)
	}
}
