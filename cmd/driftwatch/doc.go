// Package main hosts the driftwatch CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into
// reconciliation checks, history queries, watch-loop supervision, and
// configuration scaffolding. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
// The exit code contract (0 in sync, 1 drift, 2 unknown) lives in main.go
// and check_command.go; everything else defers to it.
package main
