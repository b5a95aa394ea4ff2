// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"

	"github.com/dejvthedrummer/naucse.python.cz/internal/catalog"
	"github.com/dejvthedrummer/naucse.python.cz/internal/watch"
)

// FileChecker checks that a file exists and is non-empty.
type FileChecker struct {
	name string
	path string
}

func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{name: name, path: path}
}

func (c *FileChecker) Name() string { return c.name }

func (c *FileChecker) Check(_ context.Context) CheckResult {
	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Status: StatusUnhealthy, Error: "file not found", Message: c.path}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "expected file, got directory"}
	}
	if info.Size() == 0 {
		return CheckResult{Status: StatusDegraded, Message: "file is empty"}
	}
	return CheckResult{Status: StatusHealthy, Message: "file exists and readable"}
}

// StateSource provides the current document state.
type StateSource interface {
	Get() watch.State
}

// DocumentChecker reports on the served document: unhealthy before the
// first successful load, degraded while the latest version is broken or
// has validation errors.
type DocumentChecker struct {
	src StateSource
}

func NewDocumentChecker(src StateSource) *DocumentChecker {
	return &DocumentChecker{src: src}
}

func (c *DocumentChecker) Name() string { return "document" }

func (c *DocumentChecker) Check(_ context.Context) CheckResult {
	st := c.src.Get()
	switch {
	case st.Event == nil:
		return CheckResult{Status: StatusUnhealthy, Message: "document not loaded"}
	case st.Stale:
		return CheckResult{Status: StatusDegraded, Message: "latest version does not parse; serving previous version"}
	case !st.Report.Valid():
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("%d validation error(s)", len(st.Report.Errors()))}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("version %d valid", st.Version)}
}

// CatalogChecker lists the catalog to prove it is reachable.
type CatalogChecker struct {
	c catalog.Catalog
}

func NewCatalogChecker(c catalog.Catalog) *CatalogChecker {
	return &CatalogChecker{c: c}
}

func (c *CatalogChecker) Name() string { return "catalog" }

func (c *CatalogChecker) Check(ctx context.Context) CheckResult {
	lessons, err := c.c.List(ctx)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if len(lessons) == 0 {
		return CheckResult{Status: StatusDegraded, Message: "catalog is empty"}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d lessons", len(lessons))}
}

// PingChecker wraps a ping function. Failures degrade rather than fail
// readiness because optional backends have fallbacks.
type PingChecker struct {
	name string
	ping func(context.Context) error
}

func NewPingChecker(name string, ping func(context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: StatusDegraded, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}
