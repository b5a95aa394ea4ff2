// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package version carries build metadata set through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag; "dev" for local builds.
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the build metadata on one line.
func String() string {
	return fmt.Sprintf("naucse %s (commit %s, built %s, %s)", Version, Commit, Date, runtime.Version())
}
