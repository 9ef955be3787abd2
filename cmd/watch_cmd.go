package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/chatsift/internal/extract"
	"github.com/nextlevelbuilder/chatsift/internal/render"
	"github.com/nextlevelbuilder/chatsift/internal/watch"
)

func watchCmd() *cobra.Command {
	var flags extractFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-extract and rewrite the transcript whenever storage changes",
		Run: func(cmd *cobra.Command, args []string) {
			runWatch(flags)
		},
	}
	cmd.Flags().StringVar(&flags.dbPath, "db-path", "", "state database to read (default: auto-discover)")
	cmd.Flags().StringVar(&flags.logsDir, "logs-dir", "", "log directory to scan (default: auto-discover)")
	cmd.Flags().StringVar(&flags.workspace, "workspace", "", "workspace storage directory to search for a state database")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default from config)")
	cmd.Flags().IntVarP(&flags.queries, "queries", "q", 0, "cap on selected conversations (0 = all)")
	return cmd
}

func runWatch(flags extractFlags) {
	cfg := loadConfig()
	opts := extractOptions(cfg, flags)
	if opts.DBPath == "" && opts.LogsDir == "" {
		fmt.Fprintln(os.Stderr, styleErr.Render("nothing to watch: no database or logs directory found"))
		os.Exit(1)
	}

	output := flags.output
	if output == "" {
		output = cfg.Output.File
	}

	rerun := func(ctx context.Context) {
		res, err := extract.Run(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", styleWarn.Render("extract failed:"), err)
			return
		}
		if err := render.WriteFile(output, render.Markdown(res.Conversations)); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", styleWarn.Render("write failed:"), err)
			return
		}
		fmt.Printf("%s transcript updated (%d conversations)\n", styleOK.Render("✓"), res.Stats.Conversations)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(opts.DBPath, opts.LogsDir, rerun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styleErr.Render("watcher setup failed:"), err)
		os.Exit(1)
	}
	if err := w.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styleErr.Render("watcher start failed:"), err)
		os.Exit(1)
	}
	defer w.Stop()

	// Initial extraction before waiting on changes.
	rerun(ctx)

	fmt.Println(styleInfo.Render("watching for changes, Ctrl-C to stop"))
	<-ctx.Done()
}
