package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/chatsift/internal/config"
	"github.com/nextlevelbuilder/chatsift/internal/locate"
	"github.com/nextlevelbuilder/chatsift/internal/store"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check storage locations and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("chatsift doctor")
	fmt.Printf("  Version:  0.1.0\n")
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	// Config
	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	// Storage discovery
	fmt.Println()
	fmt.Println("  Storage:")
	paths, err := locate.DefaultPaths()
	if err != nil {
		fmt.Printf("    discovery: %s\n", err)
	} else {
		for name, ok := range locate.Validate(paths) {
			checkPath(name, ok)
		}
	}

	// Workspace database
	fmt.Println()
	dbPath := config.ExpandHome(cfg.Storage.DBPath)
	if dbPath == "" && err == nil {
		dbPath, _ = locate.FindWorkspaceDB(paths.WorkspaceStorage)
	}
	fmt.Printf("  Database: ")
	if dbPath == "" {
		fmt.Println("(none found)")
	} else {
		fmt.Println(dbPath)
		checkDatabase(dbPath)
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkPath(name string, ok bool) {
	status := styleErr.Render("MISSING")
	if ok {
		status = styleOK.Render("OK")
	}
	fmt.Printf("    %-20s %s\n", name+":", status)
}

func checkDatabase(path string) {
	db, err := store.Open(path)
	if err != nil {
		fmt.Printf("    open:       %s\n", styleErr.Render(err.Error()))
		return
	}
	defer db.Close()

	has, err := db.HasTable(store.KVTable)
	switch {
	case err != nil:
		fmt.Printf("    kv table:   %s\n", styleErr.Render(err.Error()))
	case has:
		fmt.Printf("    kv table:   %s\n", styleOK.Render("OK"))
	default:
		fmt.Printf("    kv table:   %s\n", styleWarn.Render("MISSING"))
	}
}
