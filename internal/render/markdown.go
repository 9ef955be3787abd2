// Package render writes reconstructed conversations as a markdown
// transcript.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nextlevelbuilder/chatsift/internal/pipeline"
)

// Markdown renders the conversations as a single transcript document.
// Messages with an unknown role are skipped.
func Markdown(convos []pipeline.Conversation) string {
	var b strings.Builder
	b.WriteString("# Reconstructed Chat History\n")

	for i, c := range convos {
		b.WriteString(fmt.Sprintf("\n## Conversation %d\n", i+1))
		if c.Model != "" {
			b.WriteString(fmt.Sprintf("\n_Model: %s_\n", c.Model))
		}
		for _, m := range c.Messages {
			var heading string
			switch m.Role {
			case pipeline.RoleUser:
				heading = "### User"
			case pipeline.RoleAssistant:
				heading = "### Assistant"
			default:
				continue
			}
			b.WriteString("\n" + heading + "\n\n")
			b.WriteString(strings.TrimRight(m.Content, "\n"))
			b.WriteString("\n")
		}
		if i < len(convos)-1 {
			b.WriteString("\n---\n")
		}
	}
	return b.String()
}

// WriteFile writes the rendered transcript, creating parent directories
// as needed.
func WriteFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
