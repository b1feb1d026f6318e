// Package preflight provides readiness checks for the filesystem paths and
// external binaries cuecast depends on.
//
// The daemon runs RunAll before it starts accepting jobs and refuses to start
// when a required check fails; the CLI "deps" command and the status endpoint
// show the same results.
package preflight
