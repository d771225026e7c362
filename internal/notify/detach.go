package notify

import (
	"fmt"

	"github.com/mattjoyce/sulink/internal/dispatch"
	"github.com/mattjoyce/sulink/internal/protocol"
	"github.com/mattjoyce/sulink/internal/spawn"
)

// DeliverCommand is the subcommand a delivery child is started with.
const DeliverCommand = "deliver"

// ExecDetacher re-executes a binary as a detached delivery child:
//
//	<Executable> <Args...> deliver --job <envelope>
type ExecDetacher struct {
	Spawner    spawn.Spawner
	Executable string
	// Args precede the deliver command, e.g. a --config flag.
	Args []string
}

// Detach implements Detacher.
func (d ExecDetacher) Detach(req dispatch.Request) error {
	job, err := protocol.NewJob(req)
	if err != nil {
		return fmt.Errorf("build job: %w", err)
	}
	arg, err := protocol.EncodeJob(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	args := make([]string, 0, len(d.Args)+3)
	args = append(args, d.Args...)
	args = append(args, DeliverCommand, "--job", arg)

	if _, err := d.Spawner.Spawn(spawn.Command{Path: d.Executable, Args: args}, spawn.Detached); err != nil {
		return fmt.Errorf("spawn delivery child: %w", err)
	}
	return nil
}
