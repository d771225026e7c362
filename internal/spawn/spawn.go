package spawn

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

//go:generate mockgen -destination=mocks/mock_spawner.go -package=mocks github.com/mattjoyce/sulink/internal/spawn Spawner

// Completion selects how a spawned command is waited for.
type Completion int

const (
	// Sync returns the child's combined output for the caller to consume.
	Sync Completion = iota
	// Detached starts the child and forgets it.
	Detached
)

func (c Completion) String() string {
	switch c {
	case Sync:
		return "sync"
	case Detached:
		return "detached"
	default:
		return fmt.Sprintf("completion(%d)", int(c))
	}
}

// Command is a program invocation.
type Command struct {
	// Path is the executable, also used as argv[0].
	Path string
	// Args are argv[1:].
	Args []string
	// Env holds KEY=VALUE entries set in the child before exec.
	Env []string
}

// Process is the combined output stream of a Sync child.
type Process interface {
	io.Reader
	// Close releases the stream and waits for the child. A non-nil error
	// is either the child's *exec.ExitError or a wait failure.
	Close() error
}

// Spawner starts commands. For Detached the returned Process is always nil.
type Spawner interface {
	Spawn(cmd Command, mode Completion) (Process, error)
}

// Exec is the os/exec backed Spawner.
type Exec struct{}

// Spawn implements Spawner.
func (Exec) Spawn(c Command, mode Completion) (Process, error) {
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)

	switch mode {
	case Sync:
		return startSync(cmd)
	case Detached:
		return nil, startDetached(cmd)
	default:
		return nil, fmt.Errorf("unsupported completion mode %v", mode)
	}
}

func startSync(cmd *exec.Cmd) (Process, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	// The child holds its own copy; ours must go so the reader sees EOF.
	_ = pw.Close()

	return &process{out: pr, cmd: cmd}, nil
}

func startDetached(cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

type process struct {
	out *os.File
	cmd *exec.Cmd
}

func (p *process) Read(b []byte) (int, error) {
	return p.out.Read(b)
}

func (p *process) Close() error {
	_ = p.out.Close()
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("wait %s: %w", p.cmd.Path, err)
	}
	return nil
}
