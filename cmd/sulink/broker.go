package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/pflag"

	"github.com/mattjoyce/sulink/internal/access"
	"github.com/mattjoyce/sulink/internal/log"
	"github.com/mattjoyce/sulink/internal/notify"
	"github.com/mattjoyce/sulink/internal/protocol"
	"github.com/mattjoyce/sulink/internal/wire"
)

// recordFlags are the decision fields shared by the broker commands.
type recordFlags struct {
	uid       int
	policy    string
	notify    bool
	multiuser string
}

func (r *recordFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&r.uid, "uid", -1, "Requester uid (required)")
	fs.StringVar(&r.policy, "policy", "query", "Policy decided for the request: query, deny, allow or restrict")
	fs.BoolVar(&r.notify, "notify", false, "Whether the user asked to be notified")
	fs.StringVar(&r.multiuser, "multiuser", "", "Override access.multiuser_mode")
}

func (a *app) record(r recordFlags) (access.Record, error) {
	if r.uid < 0 {
		return access.Record{}, fmt.Errorf("--uid is required")
	}
	policy, err := access.ParsePolicy(r.policy)
	if err != nil {
		return access.Record{}, err
	}
	mode := a.cfg.MultiuserMode()
	if r.multiuser != "" {
		if mode, err = access.ParseMultiuserMode(r.multiuser); err != nil {
			return access.Record{}, err
		}
	}
	return access.Record{
		UID:       r.uid,
		Policy:    policy,
		Notify:    r.notify,
		Multiuser: mode,
		Manager:   a.cfg.ManagerIdentity(),
	}, nil
}

func (a *app) runLog(args []string) int {
	fs := pflag.NewFlagSet("log", pflag.ContinueOnError)
	var rf recordFlags
	rf.register(fs)
	toUID := fs.Int("to-uid", 0, "Target uid the requester asked for")
	pid := fs.Int("pid", 0, "Requesting process id")
	command := fs.String("command", "", "Command the requester asked to run")
	shell := fs.String("shell", "", "Shell the requester asked for")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	return a.withNotifier(rf, func(n *notify.Notifier, rec access.Record) {
		n.Log(access.Context{
			Info: rec,
			Req:  access.Request{UID: *toUID, Command: *command, Shell: *shell},
			PID:  *pid,
		})
	})
}

func (a *app) runNotify(args []string) int {
	fs := pflag.NewFlagSet("notify", pflag.ContinueOnError)
	var rf recordFlags
	rf.register(fs)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	return a.withNotifier(rf, func(n *notify.Notifier, rec access.Record) {
		n.Notify(access.Context{Info: rec})
	})
}

func (a *app) runRequest(args []string) int {
	fs := pflag.NewFlagSet("request", pflag.ContinueOnError)
	var rf recordFlags
	rf.register(fs)
	socket := fs.String("socket", "", "Socket the manager should connect to (required)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if *socket == "" {
		fmt.Fprintln(os.Stderr, "Error: --socket is required")
		return 1
	}
	return a.withNotifier(rf, func(n *notify.Notifier, rec access.Record) {
		tier := n.RequestSocket(*socket, rec)
		fmt.Printf("delivered: %s\n", tier)
	})
}

func (a *app) withNotifier(rf recordFlags, run func(n *notify.Notifier, rec access.Record)) int {
	if err := a.load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	rec, err := a.record(rf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	n, err := a.notifier()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	run(n, rec)
	return 0
}

func (a *app) runSendRequest(args []string) int {
	fs := pflag.NewFlagSet("send-request", pflag.ContinueOnError)
	socket := fs.String("socket", "", "Unix socket path to connect to")
	fd := fs.Int("fd", -1, "Already-open file descriptor to write to")
	uid := fs.Int("uid", -1, "Requester uid (required)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if *uid < 0 {
		fmt.Fprintln(os.Stderr, "Error: --uid is required")
		return 1
	}
	if (*socket == "") == (*fd < 0) {
		fmt.Fprintln(os.Stderr, "Error: exactly one of --socket or --fd is required")
		return 1
	}

	var (
		ch  *os.File
		err error
	)
	if *fd >= 0 {
		ch = os.NewFile(uintptr(*fd), "channel")
		if ch == nil {
			fmt.Fprintf(os.Stderr, "Error: invalid fd %d\n", *fd)
			return 1
		}
		err = wire.WriteRequest(wire.NewFramer(ch), *uid)
		_ = ch.Close()
	} else {
		var conn net.Conn
		conn, err = net.Dial("unix", *socket)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: connect %s: %v\n", *socket, err)
			return 1
		}
		err = wire.WriteRequest(wire.NewFramer(conn), *uid)
		_ = conn.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runDeliver is the entrypoint of a detached delivery child.
func (a *app) runDeliver(args []string) int {
	fs := pflag.NewFlagSet("deliver", pflag.ContinueOnError)
	jobArg := fs.String("job", "", "Encoded delivery job")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := a.load(); err != nil {
		log.Error("delivery child could not load config", "error", err)
		return 1
	}
	defer a.close()

	job, err := protocol.DecodeJob(*jobArg)
	if err != nil {
		log.Error("delivery child got a bad job", "error", err)
		return 1
	}
	req, err := job.Request()
	if err != nil {
		log.Error("delivery child got a bad job", "error", err)
		return 1
	}

	tier := a.deliverer().Dispatch(req)
	log.WithDelivery(req.ID).Debug("delivery child finished", "action", req.Action, "tier", tier.String())
	return 0
}
