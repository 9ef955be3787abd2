package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/nextlevelbuilder/chatsift/internal/extract"
	"github.com/nextlevelbuilder/chatsift/internal/locate"
)

var (
	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleInfo = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
)

// truncatePreview trims a message to a single display line of at most
// width cells, counting wide runes properly.
func truncatePreview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// fillFromDiscovery fills empty storage paths from the per-OS defaults,
// preferring a workspace database when one exists.
func fillFromDiscovery(opts *extract.Options, workspace string) {
	if opts.DBPath != "" && opts.LogsDir != "" {
		return
	}

	paths, err := locate.DefaultPaths()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styleWarn.Render("discovery unavailable:"), err)
		return
	}
	if workspace == "" {
		workspace = paths.WorkspaceStorage
	}

	if opts.DBPath == "" {
		if db, ok := locate.FindWorkspaceDB(workspace); ok {
			opts.DBPath = db
		}
	}
	if opts.LogsDir == "" {
		if info, err := os.Stat(paths.LogsDir); err == nil && info.IsDir() {
			opts.LogsDir = paths.LogsDir
		}
	}
}
