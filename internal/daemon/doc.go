// Package daemon runs the long-lived cuecast process.
//
// It wires configuration, the job registry, optional SQLite history, the
// render service and the HTTP API into one lifecycle. A flock on the state
// directory prevents two daemons from sharing the same work tree. Start runs
// preflight checks before opening the listener; Stop shuts the server down
// and waits for in-flight renders to finish.
package daemon
