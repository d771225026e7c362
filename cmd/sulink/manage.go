package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/mattjoyce/sulink/internal/config"
	"github.com/mattjoyce/sulink/internal/journal"
	"github.com/mattjoyce/sulink/internal/storage"
)

func (a *app) runConfigNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		fmt.Println("Usage: sulink config <check|lock> [flags]")
		if len(args) < 1 {
			return 1
		}
		return 0
	}
	switch args[0] {
	case "check":
		return a.runConfigCheck(args[1:])
	case "lock":
		return a.runConfigLock(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", args[0])
		return 1
	}
}

func (a *app) runConfigCheck(args []string) int {
	fs := pflag.NewFlagSet("config check", pflag.ContinueOnError)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		fmt.Printf("Config: %s\n", a.configPath)
		fmt.Printf("✗ %v\n", err)
		return 1
	}
	fmt.Printf("Config: %s\n", a.configPath)
	fmt.Printf("Manager: %s\n", cfg.Manager.Package)
	fmt.Printf("Launcher: %s\n", cfg.Launcher.Path)
	fmt.Printf("Multiuser mode: %s\n", cfg.MultiuserMode())
	if cfg.Journal.Path != "" {
		fmt.Printf("Journal: %s\n", cfg.Journal.Path)
		jfs, err := storage.InspectFilesystem(cfg.Journal.Path)
		if err == nil {
			fmt.Printf("Journal filesystem: %s (%s)\n", jfs.Type, jfs.Class)
			err = jfs.CheckJournal()
		}
		if err != nil {
			fmt.Printf("✗ %v\n", err)
			return 1
		}
	}
	fmt.Println("✓ Valid")
	return 0
}

func (a *app) runConfigLock(args []string) int {
	fs := pflag.NewFlagSet("config lock", pflag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "Show the hash without writing .checksums")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	report, err := config.Lock(a.configPath, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Config: %s\n", report.ConfigPath)
	fmt.Printf("Hash: %s\n", report.Hash)
	if report.Written {
		fmt.Printf("Updated: %s\n", report.ChecksumPath)
	} else {
		fmt.Printf("Dry run: %s not written\n", report.ChecksumPath)
	}
	return 0
}

func (a *app) runJournalNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		fmt.Println("Usage: sulink journal list [--limit N] [--json]")
		if len(args) < 1 {
			return 1
		}
		return 0
	}
	if args[0] != "list" {
		fmt.Fprintf(os.Stderr, "Unknown journal action: %s\n", args[0])
		return 1
	}

	fs := pflag.NewFlagSet("journal list", pflag.ContinueOnError)
	limit := fs.Int("limit", 20, "Maximum number of deliveries to show")
	jsonOut := fs.Bool("json", false, "Output entries as JSON")
	if code, ok := parseFlags(fs, args[1:]); !ok {
		return code
	}

	if err := a.load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	j := a.journal()
	if j == nil {
		fmt.Fprintln(os.Stderr, "Error: journal is disabled or unavailable (set journal.path)")
		return 1
	}
	entries, err := j.Recent(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *jsonOut {
		if entries == nil {
			entries = []journal.Entry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render journal JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	if len(entries) == 0 {
		fmt.Println("(no deliveries)")
		return 0
	}
	for _, e := range entries {
		fmt.Printf("%s  %-8s %-9s %-16s user=%d %s\n",
			e.StartedAt.Local().Format(time.DateTime), e.Action, e.Tier, e.Ceiling, e.User, e.ID)
	}
	return 0
}
