package main

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/sulink/internal/access"
	"github.com/mattjoyce/sulink/internal/dispatch"
	"github.com/mattjoyce/sulink/internal/extra"
	"github.com/mattjoyce/sulink/internal/journal"
	"github.com/mattjoyce/sulink/internal/protocol"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func captureCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	return captureOutputWithExitCode(t, func() int {
		return runCLI(args)
	})
}

// writeTestConfig writes a config whose launcher is a shell script that
// exits 0 without output, so every synchronous tier succeeds.
func writeTestConfig(t *testing.T, journalPath string) string {
	t.Helper()
	dir := t.TempDir()

	launcher := filepath.Join(dir, "launcher.sh")
	require.NoError(t, os.WriteFile(launcher, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	body := "service:\n  log_level: error\nlauncher:\n  path: " + launcher + "\n"
	if journalPath != "" {
		body += "journal:\n  path: " + journalPath + "\n"
	}
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRunCLIVersion(t *testing.T) {
	code, stdout, _ := captureCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "sulink "+version)

	code, stdout, _ = captureCLI(t, "version", "--json")
	require.Equal(t, 0, code)
	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, version, info.Version)
}

func TestRunCLIUnknownCommand(t *testing.T) {
	code, stdout, stderr := captureCLI(t, "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown command: frobnicate")
	assert.Contains(t, stdout, "Broker Commands:")
}

func TestRunCLINoCommand(t *testing.T) {
	code, stdout, _ := captureCLI(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Usage:")
}

func TestConfigCheckAndLock(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	code, stdout, _ := captureCLI(t, "--config", cfgPath, "config", "check")
	require.Equal(t, 0, code, stdout)
	assert.Contains(t, stdout, "Manager: com.topjohnwu.magisk")
	assert.Contains(t, stdout, "✓ Valid")

	code, stdout, _ = captureCLI(t, "--config", cfgPath, "config", "lock", "--dry-run")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Dry run:")
	_, err := os.Stat(filepath.Join(filepath.Dir(cfgPath), ".checksums"))
	assert.True(t, os.IsNotExist(err))

	code, stdout, _ = captureCLI(t, "--config", cfgPath, "config", "lock")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Updated:")

	// Tampering after lock must fail the check.
	f, err := os.OpenFile(cfgPath, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("# edited\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	code, stdout, _ = captureCLI(t, "--config", cfgPath, "config", "check")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "✗")
}

func TestConfigCheckReportsJournalFilesystem(t *testing.T) {
	cfgPath := writeTestConfig(t, filepath.Join(t.TempDir(), "journal.db"))

	code, stdout, _ := captureCLI(t, "--config", cfgPath, "config", "check")
	require.Equal(t, 0, code, stdout)
	assert.Contains(t, stdout, "Journal filesystem:")
	assert.Contains(t, stdout, "(local)")
}

func TestConfigCheckInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("access:\n  multiuser_mode: everyone\n"), 0o600))

	code, stdout, _ := captureCLI(t, "--config", path, "config", "check")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "multiuser_mode")
}

func TestSendRequestOverUnixSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "sl")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	sock := filepath.Join(dir, "s")

	ln, err := net.Listen("unix", sock)
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			received <- nil
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	code, _, stderr := captureCLI(t, "send-request", "--socket", sock, "--uid", "10123")
	require.Equal(t, 0, code, stderr)

	data := <-received
	var tokens []string
	for len(data) >= 4 {
		n := binary.BigEndian.Uint32(data)
		require.GreaterOrEqual(t, len(data)-4, int(n))
		tokens = append(tokens, string(data[4:4+n]))
		data = data[4+n:]
	}
	assert.Empty(t, data)
	assert.Equal(t, []string{"uid", "10123", "eof"}, tokens)
}

func TestSendRequestFlagValidation(t *testing.T) {
	code, _, stderr := captureCLI(t, "send-request", "--uid", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "exactly one of --socket or --fd")

	code, _, stderr = captureCLI(t, "send-request", "--socket", "/nonexistent")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--uid is required")
}

func TestRequestReportsPackageTier(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	code, stdout, stderr := captureCLI(t, "--config", cfgPath, "request", "--uid", "10123", "--socket", "/dev/socket/x")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "delivered: package\n", stdout)
}

func TestNotifierLeavesJournalClosedUntilDispatch(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "journal.db")
	a := &app{configPath: writeTestConfig(t, journalPath)}
	require.NoError(t, a.load())
	defer a.close()

	_, err := a.notifier()
	require.NoError(t, err)
	assert.Nil(t, a.db)
	_, err = os.Stat(journalPath)
	assert.True(t, os.IsNotExist(err), "journal opened by a detach-only notifier")
}

func TestRequestIsJournaled(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "journal.db")
	cfgPath := writeTestConfig(t, journalPath)

	code, stdout, stderr := captureCLI(t, "--config", cfgPath, "request", "--uid", "10123", "--socket", "s")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "delivered: package\n", stdout)

	code, stdout, _ = captureCLI(t, "--config", cfgPath, "journal", "list", "--json")
	require.Equal(t, 0, code)
	var entries []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "request", entries[0].Action)
	assert.Equal(t, "package", entries[0].Tier)
}

func TestRequestRejectsBadPolicy(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	code, _, stderr := captureCLI(t, "--config", cfgPath, "request", "--uid", "1", "--socket", "s", "--policy", "maybe")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "maybe")
}

func TestDeliverRejectsBadJob(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	code, _, _ := captureCLI(t, "--config", cfgPath, "deliver", "--job", "!!not-a-job!!")
	assert.Equal(t, 1, code)
}

func TestDeliverIsJournaled(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "journal.db")
	cfgPath := writeTestConfig(t, journalPath)

	code, stdout, _ := captureCLI(t, "--config", cfgPath, "journal", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "(no deliveries)")

	req := dispatch.Request{
		ID:      "job-1",
		Action:  "log",
		Params:  []extra.Param{extra.NewInt("from.uid", 10123), extra.NewBool("notify", true)},
		Manager: access.Manager{Package: "com.topjohnwu.magisk"},
		Ceiling: dispatch.ContentProvider,
	}
	job, err := protocol.NewJob(req)
	require.NoError(t, err)
	arg, err := protocol.EncodeJob(job)
	require.NoError(t, err)

	code, _, stderr := captureCLI(t, "--config", cfgPath, "deliver", "--job", arg)
	require.Equal(t, 0, code, stderr)

	code, stdout, _ = captureCLI(t, "--config", cfgPath, "journal", "list", "--json")
	require.Equal(t, 0, code)
	var entries []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "job-1", entries[0].ID)
	assert.Equal(t, "log", entries[0].Action)
	assert.Equal(t, "provider", entries[0].Tier)
}

func TestJournalListDisabled(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	code, _, stderr := captureCLI(t, "--config", cfgPath, "journal", "list")
	assert.Equal(t, 1, code)
	assert.True(t, strings.Contains(stderr, "journal is disabled"))
}
