// Package spawn starts the external launcher tools used for delivery.
//
// A Spawner runs a Command in one of two completion modes:
//
//   - Sync: the child's stdout and stderr are merged into a single stream
//     returned as a Process. The caller reads it to EOF (or stops early) and
//     must Close it on every path; Close releases the stream and reaps the
//     child, reporting its exit status.
//   - Detached: the child is started in its own session with stdio on
//     /dev/null and is reaped in the background. The caller gets no Process
//     and observes nothing after a successful start.
//
// Command.Env entries are applied on top of the parent's environment in the
// child only; the parent environment is never modified.
//
// There is no timeout: a Sync child that never closes its output blocks the
// reader indefinitely.
package spawn
