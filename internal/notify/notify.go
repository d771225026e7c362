// Package notify builds the parameter sets for each kind of event the broker
// reports to the manager and hands them to the dispatcher.
//
// Log and Notify never run a dispatch in the calling process: they start a
// detached delivery child and return at once. RequestSocket dispatches in
// the caller, skipping the provider tier.
package notify

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/mattjoyce/sulink/internal/access"
	"github.com/mattjoyce/sulink/internal/dispatch"
	"github.com/mattjoyce/sulink/internal/extra"
	"github.com/mattjoyce/sulink/internal/log"
)

//go:generate mockgen -destination=mocks/mock_notify.go -package=mocks github.com/mattjoyce/sulink/internal/notify Detacher,Deliverer

const (
	ActionLog     = "log"
	ActionNotify  = "notify"
	ActionRequest = "request"
)

// Detacher runs a dispatch in a new process that the caller never waits for.
type Detacher interface {
	Detach(req dispatch.Request) error
}

// Deliverer runs a dispatch in the calling process.
type Deliverer interface {
	Dispatch(req dispatch.Request) dispatch.Tier
}

// Notifier is the broker-facing entry point.
type Notifier struct {
	detacher     Detacher
	deliverer    Deliverer
	defaultShell string
	logger       *slog.Logger
}

// New creates a Notifier. An empty defaultShell selects access.DefaultShell.
func New(detacher Detacher, deliverer Deliverer, defaultShell string) *Notifier {
	if defaultShell == "" {
		defaultShell = access.DefaultShell
	}
	return &Notifier{
		detacher:     detacher,
		deliverer:    deliverer,
		defaultShell: defaultShell,
		logger:       log.WithComponent("notify"),
	}
}

// Log reports an access decision to the manager's log.
func (n *Notifier) Log(ctx access.Context) {
	params := []extra.Param{
		extra.NewInt("from.uid", ctx.Info.NormalizedUID()),
		extra.NewInt("to.uid", ctx.Req.UID),
		extra.NewInt("pid", ctx.PID),
		extra.NewInt("policy", int(ctx.Info.Policy)),
		extra.NewString("command", access.ResolveCommand(ctx.Req.Command, ctx.Req.Shell, n.defaultShell)),
		extra.NewBool("notify", ctx.Info.Notify),
	}
	n.detach(newRequest(ActionLog, params, ctx.Info, dispatch.ContentProvider))
}

// Notify asks the manager to show an access toast.
func (n *Notifier) Notify(ctx access.Context) {
	params := []extra.Param{
		extra.NewInt("from.uid", ctx.Info.NormalizedUID()),
		extra.NewInt("policy", int(ctx.Info.Policy)),
	}
	n.detach(newRequest(ActionNotify, params, ctx.Info, dispatch.ContentProvider))
}

// RequestSocket asks the manager to connect to socket and prompt the user.
// The provider tier is skipped.
func (n *Notifier) RequestSocket(socket string, info access.Record) dispatch.Tier {
	params := []extra.Param{
		extra.NewString("socket", socket),
	}
	return n.deliverer.Dispatch(newRequest(ActionRequest, params, info, dispatch.PkgActivity))
}

func (n *Notifier) detach(req dispatch.Request) {
	if err := n.detacher.Detach(req); err != nil {
		n.logger.Error("failed to start delivery child", "delivery_id", req.ID, "action", req.Action, "error", err)
		return
	}
	n.logger.Debug("delivery detached", "delivery_id", req.ID, "action", req.Action)
}

func newRequest(action string, params []extra.Param, info access.Record, ceiling dispatch.Mode) dispatch.Request {
	return dispatch.Request{
		ID:      uuid.NewString(),
		Action:  action,
		Params:  params,
		Manager: info.Manager,
		User:    info.OSUser(),
		Ceiling: ceiling,
	}
}
