package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mattjoyce/sulink/internal/config"
	"github.com/mattjoyce/sulink/internal/dispatch"
	"github.com/mattjoyce/sulink/internal/journal"
	"github.com/mattjoyce/sulink/internal/log"
	"github.com/mattjoyce/sulink/internal/notify"
	"github.com/mattjoyce/sulink/internal/spawn"
	"github.com/mattjoyce/sulink/internal/storage"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

// runCLI parses the global --config flag, then dispatches on the command.
func runCLI(cliArgs []string) int {
	fs := pflag.NewFlagSet("sulink", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	configPath := fs.String("config", "", "Path to config file (default $SULINK_CONFIG or "+config.DefaultPath+")")
	if err := fs.Parse(cliArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	rest := fs.Args()
	if len(rest) < 1 {
		printUsage()
		return 1
	}

	a := &app{configPath: config.Resolve(*configPath)}
	cmd := rest[0]
	args := rest[1:]

	switch cmd {
	case "log":
		return a.runLog(args)
	case "notify":
		return a.runNotify(args)
	case "request":
		return a.runRequest(args)
	case "send-request":
		return a.runSendRequest(args)
	case notify.DeliverCommand:
		return a.runDeliver(args)
	case "config":
		return a.runConfigNoun(args)
	case "journal":
		return a.runJournalNoun(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Print(`sulink - deliver access broker events to the manager application

Usage:
  sulink [--config <path>] <command> [flags]

Broker Commands:
  log           Record an access decision in the manager's log (detached)
  notify        Show an access notification in the manager (detached)
  request       Ask the manager to connect to a request socket
  send-request  Write the request record onto a socket or inherited fd

Config Commands:
  config check  Validate the config file and its checksum
  config lock   Record the config file's BLAKE3 hash in .checksums

Journal Commands:
  journal list  Show recent deliveries

General:
  version       Show version information
  help          Show this help message

Use 'sulink <command> --help' for command flags.
`)
}

// app carries what every command needs after flag parsing.
type app struct {
	configPath string
	cfg        *config.Config
	db         *sql.DB
}

// load reads the config and configures logging.
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	return nil
}

// journal opens the delivery journal, or returns nil when it is disabled.
func (a *app) journal() *journal.Journal {
	if a.cfg.Journal.Path == "" {
		return nil
	}
	db, err := storage.OpenSQLite(context.Background(), a.cfg.Journal.Path)
	if err != nil {
		log.Warn("journal unavailable", "path", a.cfg.Journal.Path, "error", err)
		return nil
	}
	a.db = db
	return journal.New(db)
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// deliverer builds the in-process dispatcher, journaled when enabled.
func (a *app) deliverer() notify.Deliverer {
	d := dispatch.New(spawn.Exec{}, a.cfg.DispatchLauncher(),
		dispatch.WithIgnoreExitStatus(a.cfg.Delivery.IgnoreExitStatus))
	if j := a.journal(); j != nil {
		return journal.NewRecorder(d, j)
	}
	return d
}

func (a *app) notifier() (*notify.Notifier, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	det := notify.ExecDetacher{
		Spawner:    spawn.Exec{},
		Executable: exe,
		Args:       []string{"--config", a.configPath},
	}
	return notify.New(det, &lazyDeliverer{build: a.deliverer}, a.cfg.Access.DefaultShell), nil
}

// lazyDeliverer defers building the dispatcher, and opening the journal,
// until an inline dispatch happens. Log and Notify only detach.
type lazyDeliverer struct {
	build func() notify.Deliverer
	d     notify.Deliverer
}

func (l *lazyDeliverer) Dispatch(req dispatch.Request) dispatch.Tier {
	if l.d == nil {
		l.d = l.build()
	}
	return l.d.Dispatch(req)
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func currentVersionInfo() versionInfo {
	info := versionInfo{Version: version, Commit: gitCommit, BuildTime: buildDate}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "unknown" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "unknown" {
					info.BuildTime = s.Value
				}
			}
		}
	}
	return info
}

func runVersion(args []string) int {
	fs := pflag.NewFlagSet("version", pflag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: sulink version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("sulink %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

// parseFlags parses args into fs. ok is false when the caller should return
// code immediately (help was printed or the flags were bad).
func parseFlags(fs *pflag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, false
		}
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1, false
	}
	return 0, true
}

func isHelpToken(s string) bool {
	switch strings.ToLower(s) {
	case "help", "-h", "--help":
		return true
	}
	return false
}
