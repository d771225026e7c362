package dispatch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mattjoyce/sulink/internal/access"
	"github.com/mattjoyce/sulink/internal/extra"
	"github.com/mattjoyce/sulink/internal/log"
	"github.com/mattjoyce/sulink/internal/spawn"
)

const (
	// errorPrefix marks a failed invocation in the launcher tools' output.
	errorPrefix = "Error"

	viewAction = "android.intent.action.VIEW"

	// intentFlags = FLAG_ACTIVITY_NEW_TASK | FLAG_ACTIVITY_MULTIPLE_TASK | FLAG_INCLUDE_STOPPED_PACKAGES
	intentFlags = "0x18000020"
)

var (
	// ErrApplication means the tool printed an "Error" line.
	ErrApplication = errors.New("launcher reported error")
	// ErrExitStatus means the tool exited non-zero.
	ErrExitStatus = errors.New("launcher exited with failure")
)

// Mode is the highest tier a dispatch may start from.
type Mode int

const (
	NamedActivity Mode = iota
	PkgActivity
	ContentProvider
)

func (m Mode) String() string {
	switch m {
	case NamedActivity:
		return "named_activity"
	case PkgActivity:
		return "pkg_activity"
	case ContentProvider:
		return "content_provider"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Tier identifies the attempt that took a delivery.
type Tier int

const (
	TierProvider Tier = iota + 1
	TierPackage
	TierComponent
)

func (t Tier) String() string {
	switch t {
	case TierProvider:
		return "provider"
	case TierPackage:
		return "package"
	case TierComponent:
		return "component"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Launcher locates the platform tools.
type Launcher struct {
	Path              string
	BinDir            string
	ContentClass      string
	ContentClasspath  string
	ActivityClass     string
	ActivityClasspath string
	// ComponentClass is the activity named in the tier 3 component target.
	ComponentClass string
}

// DefaultLauncher returns the stock Android tool locations.
func DefaultLauncher() Launcher {
	return Launcher{
		Path:              "/system/bin/app_process",
		BinDir:            "/system/bin",
		ContentClass:      "com.android.commands.content.Content",
		ContentClasspath:  "/system/framework/content.jar",
		ActivityClass:     "com.android.commands.am.Am",
		ActivityClasspath: "/system/framework/am.jar",
		ComponentClass:    "a.m",
	}
}

// Request is one delivery.
type Request struct {
	// ID correlates log lines; it is not sent to the manager.
	ID      string
	Action  string
	Params  []extra.Param
	Manager access.Manager
	// User is the OS user selector passed as --user.
	User    int
	Ceiling Mode
}

// Dispatcher runs the tiered delivery protocol.
type Dispatcher struct {
	spawner          spawn.Spawner
	launcher         Launcher
	ignoreExitStatus bool
	logger           *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithIgnoreExitStatus makes the output scan the only success test for
// synchronous tiers.
func WithIgnoreExitStatus(ignore bool) Option {
	return func(d *Dispatcher) { d.ignoreExitStatus = ignore }
}

// New creates a new Dispatcher.
func New(sp spawn.Spawner, l Launcher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		spawner:  sp,
		launcher: l,
		logger:   log.WithComponent("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers req and returns the tier that took it. TierComponent
// only means the final attempt was handed off; its outcome is never known.
func (d *Dispatcher) Dispatch(req Request) Tier {
	logger := d.logger.With("delivery_id", req.ID, "action", req.Action, "ceiling", req.Ceiling.String())

	if req.Ceiling >= ContentProvider {
		if err := d.attempt(d.providerCommand(req)); err != nil {
			logger.Warn("provider call failed, falling back", "error", err)
		} else {
			logger.Debug("delivered", "tier", TierProvider.String())
			return TierProvider
		}
	}

	if req.Ceiling >= PkgActivity {
		if err := d.attempt(d.activityCommand(req, "-p", req.Manager.Package)); err != nil {
			logger.Warn("package activity start failed, falling back", "error", err)
		} else {
			logger.Debug("delivered", "tier", TierPackage.String())
			return TierPackage
		}
	}

	target := req.Manager.Component(d.launcher.ComponentClass)
	if _, err := d.spawner.Spawn(d.activityCommand(req, "-n", target), spawn.Detached); err != nil {
		logger.Warn("component activity start could not be spawned", "error", err)
	} else {
		logger.Info("handed off to component activity start", "target", target)
	}
	return TierComponent
}

// attempt runs one synchronous tier. Any error means the tier failed.
func (d *Dispatcher) attempt(cmd spawn.Command) error {
	proc, err := d.spawner.Spawn(cmd, spawn.Sync)
	if err != nil {
		return err
	}
	scanErr := scanOutput(proc)
	waitErr := proc.Close()

	if scanErr != nil {
		return scanErr
	}
	if waitErr != nil && !d.ignoreExitStatus {
		return fmt.Errorf("%w: %v", ErrExitStatus, waitErr)
	}
	return nil
}

// scanOutput reads r until EOF and fails at the first line beginning with
// "Error". Read errors end the scan without failing it.
func scanOutput(r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if strings.HasPrefix(line, errorPrefix) {
			return fmt.Errorf("%w: %s", ErrApplication, strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			return nil
		}
	}
}

func (d *Dispatcher) providerCommand(req Request) spawn.Command {
	args := []string{
		d.launcher.BinDir, d.launcher.ContentClass,
		"call",
		"--uri", req.Manager.ContentURI(),
		"--user", strconv.Itoa(req.User),
		"--method", req.Action,
	}
	return spawn.Command{
		Path: d.launcher.Path,
		Args: extra.AppendContentBindings(args, req.Params),
		Env:  []string{"CLASSPATH=" + d.launcher.ContentClasspath},
	}
}

// activityCommand builds an "am start"; flag is -p for a package target and
// -n for a component target.
func (d *Dispatcher) activityCommand(req Request, flag, target string) spawn.Command {
	args := []string{
		d.launcher.BinDir, d.launcher.ActivityClass,
		"start",
		flag, target,
		"--user", strconv.Itoa(req.User),
		"-a", viewAction,
		"-f", intentFlags,
		"--es", "action", req.Action,
	}
	return spawn.Command{
		Path: d.launcher.Path,
		Args: extra.AppendIntentArgs(args, req.Params),
		Env:  []string{"CLASSPATH=" + d.launcher.ActivityClasspath},
	}
}
