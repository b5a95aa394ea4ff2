// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package archive keeps immutable published snapshots of course documents.
// A document is edited freely until it is published; after that the
// snapshot never changes and later edits become new snapshots.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/dejvthedrummer/naucse.python.cz/internal/lint"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/metrics"
	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
)

var (
	// ErrInvalidDocument is returned when a document with validation errors
	// is published. The concrete error is a *RejectedError.
	ErrInvalidDocument = errors.New("document has validation errors")
	// ErrNotFound is returned for unknown slugs and snapshot IDs.
	ErrNotFound = errors.New("snapshot not found")
	// ErrInvalidSlug is returned for slugs that cannot be used as keys.
	ErrInvalidSlug = errors.New("invalid event slug")
)

var slugRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// RejectedError carries the report of a document that failed to publish.
type RejectedError struct {
	Report validate.Report
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %d error(s)", ErrInvalidDocument, len(e.Report.Errors()))
}

func (e *RejectedError) Unwrap() error { return ErrInvalidDocument }

// Snapshot is one published version of an event.
type Snapshot struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	SHA256      string    `json:"sha256"`
	PublishedAt time.Time `json:"published_at"`
	Title       string    `json:"title"`
	Sessions    int       `json:"sessions"`
	Warnings    int       `json:"warnings"`
	YAML        []byte    `json:"yaml,omitempty"`
}

// Store is a badger-backed snapshot archive.
//
// Keys:
//
//	snap:<slug>:<unix-nanos>:<id>  snapshot JSON
//	id:<id>                        snapshot key
type Store struct {
	db   *badger.DB
	lint lint.Options
	now  func() time.Time
}

// Open opens (creating if needed) an archive in dir. opts apply to the
// validation run that gates every publish.
func Open(dir string, opts lint.Options) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", dir, err)
	}
	return newStore(db, opts), nil
}

// OpenInMemory returns an archive that lives until Close.
func OpenInMemory(opts lint.Options) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("archive: open in-memory: %w", err)
	}
	return newStore(db, opts), nil
}

func newStore(db *badger.DB, opts lint.Options) *Store {
	opts.Source = "publish"
	return &Store{db: db, lint: opts, now: time.Now}
}

func (s *Store) Close() error { return s.db.Close() }

// SlugFromPath derives an event slug from a document path: the parent
// directory for info.yml files, the file stem otherwise.
func SlugFromPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "info" {
		return filepath.Base(filepath.Dir(filepath.Clean(path)))
	}
	return stem
}

// Publish lints data and stores it as a new snapshot of slug. Publishing
// content identical to the latest snapshot of the same slug returns that
// snapshot with created=false. Content matching only an older snapshot is
// published again, so Latest always reflects the last publish.
func (s *Store) Publish(ctx context.Context, slug string, data []byte) (Snapshot, bool, error) {
	if !slugRe.MatchString(slug) {
		return Snapshot{}, false, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	logger := log.WithComponent("archive").With().Str(log.FieldSlug, slug).Str(log.FieldSHA256, digest).Logger()

	if latest, err := s.Latest(ctx, slug); err == nil && latest.SHA256 == digest {
		metrics.IncSnapshotPublish("unchanged")
		logger.Info().Str(log.FieldEvent, "archive.unchanged").Str(log.FieldSnapshotID, latest.ID).Msg("content already published")
		return latest, false, nil
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.IncSnapshotPublish("error")
		return Snapshot{}, false, err
	}

	report, ev, err := lint.Lint(ctx, data, s.lint)
	if err != nil {
		metrics.IncSnapshotPublish("error")
		return Snapshot{}, false, err
	}
	if ev == nil || !report.Valid() {
		metrics.IncSnapshotPublish("rejected")
		logger.Warn().Str(log.FieldEvent, "archive.rejected").Int(log.FieldErrors, len(report.Errors())).Msg("refusing to publish invalid document")
		return Snapshot{}, false, &RejectedError{Report: report}
	}

	snap := Snapshot{
		ID:          uuid.NewString(),
		Slug:        slug,
		SHA256:      digest,
		PublishedAt: s.now().UTC(),
		Title:       ev.Title,
		Sessions:    len(ev.Plan),
		Warnings:    len(report.Warnings()),
		YAML:        append([]byte(nil), data...),
	}
	buf, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, false, err
	}
	key := snapKey(slug, snap.PublishedAt, snap.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		// Re-check under the write transaction; concurrent publishers race here.
		latest, found, err := latestIn(txn, slug)
		if err != nil {
			return err
		}
		if found && latest.SHA256 == digest {
			return errDuplicate
		}
		if err := txn.Set(key, buf); err != nil {
			return err
		}
		return txn.Set(idKey(snap.ID), key)
	})
	if errors.Is(err, errDuplicate) || errors.Is(err, badger.ErrConflict) {
		latest, lookupErr := s.Latest(ctx, slug)
		if lookupErr == nil && latest.SHA256 == digest {
			metrics.IncSnapshotPublish("unchanged")
			return latest, false, nil
		}
		err = errors.Join(err, lookupErr)
	}
	if err != nil {
		metrics.IncSnapshotPublish("error")
		return Snapshot{}, false, fmt.Errorf("archive: store snapshot: %w", err)
	}

	metrics.IncSnapshotPublish("created")
	logger.Info().
		Str(log.FieldEvent, "archive.published").
		Str(log.FieldSnapshotID, snap.ID).
		Int(log.FieldSessions, snap.Sessions).
		Msg("snapshot published")
	return snap, true, nil
}

var errDuplicate = errors.New("duplicate content")

// Get returns the snapshot with the given ID.
func (s *Store) Get(_ context.Context, id string) (Snapshot, error) {
	var out Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := value(txn, idKey(id))
		if err != nil {
			return err
		}
		return decode(txn, key, &out)
	})
	return out, notFound(err)
}

// Latest returns the most recently published snapshot of slug.
func (s *Store) Latest(_ context.Context, slug string) (Snapshot, error) {
	var (
		out   Snapshot
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, found, err = latestIn(txn, slug)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	if !found {
		return Snapshot{}, ErrNotFound
	}
	return out, nil
}

func latestIn(txn *badger.Txn, slug string) (Snapshot, bool, error) {
	prefix := []byte("snap:" + slug + ":")
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	it := txn.NewIterator(opts)
	defer it.Close()

	// Reverse iteration must seek past the end of the prefix range.
	seek := append(append([]byte(nil), prefix...), 0xff)
	it.Seek(seek)
	if !it.ValidForPrefix(prefix) {
		return Snapshot{}, false, nil
	}
	var out Snapshot
	err := it.Item().Value(func(val []byte) error {
		return json.Unmarshal(val, &out)
	})
	return out, err == nil, err
}

// List returns snapshots of slug, newest first, without their YAML bodies.
// An empty slug lists every event.
func (s *Store) List(ctx context.Context, slug string) ([]Snapshot, error) {
	prefix := []byte("snap:")
	if slug != "" {
		prefix = []byte("snap:" + slug + ":")
	}

	var out []Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var snap Snapshot
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &snap)
			}); err != nil {
				return err
			}
			snap.YAML = nil
			out = append(out, snap)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out, nil
}

func snapKey(slug string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("snap:%s:%020d:%s", slug, at.UnixNano(), id))
}

func idKey(id string) []byte { return []byte("id:" + id) }

func value(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func decode(txn *badger.Txn, key []byte, out *Snapshot) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func notFound(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}
