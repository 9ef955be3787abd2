package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/chatsift/internal/config"
	"github.com/nextlevelbuilder/chatsift/internal/locate"
	"github.com/nextlevelbuilder/chatsift/internal/store"
)

func analyzeCmd() *cobra.Command {
	var dbPath, workspace string
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Inspect the state database schema and chat-bearing keys",
		Run: func(cmd *cobra.Command, args []string) {
			runAnalyze(dbPath, workspace, jsonOutput)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db-path", "", "state database to inspect (default: auto-discover)")
	cmd.Flags().StringVar(&workspace, "workspace", "", "workspace storage directory to search")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runAnalyze(dbPath, workspace string, jsonOutput bool) {
	cfg := loadConfig()
	if dbPath == "" {
		dbPath = config.ExpandHome(cfg.Storage.DBPath)
	}
	if dbPath == "" {
		dbPath = discoverDB(firstNonEmpty(workspace, config.ExpandHome(cfg.Storage.Workspace)))
	}
	if dbPath == "" {
		fmt.Fprintln(os.Stderr, styleErr.Render("no state database found"))
		os.Exit(1)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styleErr.Render("open failed:"), err)
		os.Exit(1)
	}
	defer db.Close()

	infos, err := db.Analyze()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styleErr.Render("analyze failed:"), err)
		os.Exit(1)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(infos)
		return
	}

	fmt.Printf("%s %s\n\n", styleInfo.Render("database:"), dbPath)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS\tJSON COLUMNS\tCHAT KEYS")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			info.Name, info.RowCount,
			strings.Join(info.JSONColumns, ","),
			strings.Join(info.ChatKeys, ","))
	}
	w.Flush()
}

func discoverDB(workspace string) string {
	if workspace == "" {
		paths, err := locate.DefaultPaths()
		if err != nil {
			return ""
		}
		workspace = paths.WorkspaceStorage
	}
	if db, ok := locate.FindWorkspaceDB(workspace); ok {
		return db
	}
	return ""
}
