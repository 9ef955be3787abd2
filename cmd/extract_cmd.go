package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/chatsift/internal/config"
	"github.com/nextlevelbuilder/chatsift/internal/extract"
	"github.com/nextlevelbuilder/chatsift/internal/render"
)

type extractFlags struct {
	dbPath      string
	logsDir     string
	workspace   string
	output      string
	queries     int
	maxFiles    int
	byTimestamp bool
	debug       bool
	jsonOutput  bool
}

func extractCmd() *cobra.Command {
	var flags extractFlags
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Reconstruct conversations and write the transcript",
		Run: func(cmd *cobra.Command, args []string) {
			runExtract(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.dbPath, "db-path", "", "state database to read (default: auto-discover)")
	cmd.Flags().StringVar(&flags.logsDir, "logs-dir", "", "log directory to scan (default: auto-discover)")
	cmd.Flags().StringVar(&flags.workspace, "workspace", "", "workspace storage directory to search for a state database")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default from config)")
	cmd.Flags().IntVarP(&flags.queries, "queries", "q", 0, "cap on selected conversations (0 = all)")
	cmd.Flags().IntVar(&flags.maxFiles, "max-files", 0, "cap on scanned log files (0 = all)")
	cmd.Flags().BoolVar(&flags.byTimestamp, "by-timestamp", false, "pair messages by timestamp instead of storage format")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "print run stats as JSON")
	return cmd
}

func runExtract(ctx context.Context, flags extractFlags) {
	if flags.debug {
		setupLogging(true)
	}
	cfg := loadConfig()
	opts := extractOptions(cfg, flags)

	res, err := extract.Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styleErr.Render("extract failed:"), err)
		os.Exit(1)
	}

	output := flags.output
	if output == "" {
		output = cfg.Output.File
	}
	if err := render.WriteFile(output, render.Markdown(res.Conversations)); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styleErr.Render("write failed:"), err)
		os.Exit(1)
	}

	if flags.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res.Stats)
		return
	}
	printSummary(res, output)
}

// extractOptions merges config, flags, and per-OS discovery. Flags win
// over config; discovery fills whatever is still empty.
func extractOptions(cfg *config.Config, flags extractFlags) extract.Options {
	opts := extract.Options{
		DBPath:      firstNonEmpty(flags.dbPath, config.ExpandHome(cfg.Storage.DBPath)),
		LogsDir:     firstNonEmpty(flags.logsDir, config.ExpandHome(cfg.Storage.LogsDir)),
		Queries:     cfg.Selection.Queries,
		MaxFiles:    cfg.Scan.MaxFiles,
		Workers:     cfg.Scan.Workers,
		ByTimestamp: flags.byTimestamp,
		Markers:     cfg.Selection.Markers,
		Categories:  cfg.Selection.Categories,
		ForcedIDs:   cfg.Selection.ForcedIDs,
	}
	if flags.queries > 0 {
		opts.Queries = flags.queries
	}
	if flags.maxFiles > 0 {
		opts.MaxFiles = flags.maxFiles
	}

	workspace := firstNonEmpty(flags.workspace, config.ExpandHome(cfg.Storage.Workspace))
	fillFromDiscovery(&opts, workspace)
	return opts
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func printSummary(res *extract.Result, output string) {
	s := res.Stats
	fmt.Println(styleOK.Render("✓") + " transcript written to " + output)
	fmt.Printf("  conversations: %d  (store %d, log fragments %d)\n", s.Conversations, s.FromStore, s.FromLogs)
	fmt.Printf("  messages:      %d  (%d user, %d assistant)\n", s.Messages, s.UserMessages, s.AssistantMessages)
	for i, c := range res.Conversations {
		if i >= 5 {
			fmt.Printf("  ... and %d more\n", len(res.Conversations)-i)
			break
		}
		preview := ""
		if len(c.Messages) > 0 {
			preview = truncatePreview(c.Messages[0].Content, 60)
		}
		fmt.Printf("  %s %s\n", styleInfo.Render(fmt.Sprintf("[%d]", i+1)), preview)
	}
}
