// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsutil holds small filesystem helpers shared by the CLI and exports.
package fsutil

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/renameio/v2"

	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
)

// WriteFileAtomic writes path through a pending temp file that is fsynced
// and renamed over the target only when write succeeds. The target never
// holds partial content. Existing files keep their permissions.
func WriteFileAtomic(ctx context.Context, path string, write func(io.Writer) error) error {
	logger := log.FromContext(ctx)

	opts := []renameio.Option{renameio.WithPermissions(0o644)}
	if fi, err := os.Stat(path); err == nil {
		opts = []renameio.Option{renameio.WithPermissions(fi.Mode().Perm())}
	}

	pendingFile, err := renameio.NewPendingFile(path, opts...)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		// No-op once committed.
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Str(log.FieldPath, path).Msg("cleanup pending file")
		}
	}()

	if err := write(pendingFile); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}

// WriteBytesAtomic is WriteFileAtomic for an in-memory buffer.
func WriteBytesAtomic(ctx context.Context, path string, data []byte) error {
	return WriteFileAtomic(ctx, path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
