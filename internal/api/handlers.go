// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dejvthedrummer/naucse.python.cz/internal/archive"
	"github.com/dejvthedrummer/naucse.python.cz/internal/cache"
	"github.com/dejvthedrummer/naucse.python.cz/internal/course"
	"github.com/dejvthedrummer/naucse.python.cz/internal/ical"
	"github.com/dejvthedrummer/naucse.python.cz/internal/lint"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/metrics"
	"github.com/dejvthedrummer/naucse.python.cz/internal/schema"
	"github.com/dejvthedrummer/naucse.python.cz/internal/watch"
)

const headerDocumentVersion = "X-Document-Version"

type sessionView struct {
	Slug  string     `json:"slug"`
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
	Prev  string     `json:"prev,omitempty"`
	Next  string     `json:"next,omitempty"`
}

type eventView struct {
	Event     *course.Event `json:"event"`
	StartDate string        `json:"start_date,omitempty"`
	EndDate   string        `json:"end_date,omitempty"`
	Schedule  []sessionView `json:"schedule"`
	Version   uint64        `json:"version"`
	Stale     bool          `json:"stale"`
	LoadedAt  time.Time     `json:"loaded_at"`
}

func (s *Server) location() *time.Location {
	if s.cfg.Location != nil {
		return s.cfg.Location
	}
	loc, err := time.LoadLocation(course.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s *Server) slug() string {
	if s.cfg.Slug != "" {
		return s.cfg.Slug
	}
	return archive.SlugFromPath(s.source.Path())
}

// loaded returns the current state, or writes a 503 problem and false when
// no version of the document has parsed yet.
func (s *Server) loaded(w http.ResponseWriter, r *http.Request) (watch.State, bool) {
	st := s.source.Get()
	if st.Event == nil {
		writeProblem(w, r, http.StatusServiceUnavailable, problemNotLoaded, "Document Not Loaded",
			"the course document has not been loaded successfully yet", nil)
		return st, false
	}
	w.Header().Set(headerDocumentVersion, strconv.FormatUint(st.Version, 10))
	return st, true
}

// handleEvent serves the parsed event with derived dates and session times.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loaded(w, r)
	if !ok {
		return
	}
	ev := st.Event
	loc := s.location()

	view := eventView{
		Event:    ev,
		Schedule: make([]sessionView, 0, len(ev.Plan)),
		Version:  st.Version,
		Stale:    st.Stale,
		LoadedAt: st.LoadedAt,
	}
	if d, ok := ev.StartDate(); ok {
		view.StartDate = d.Format(time.DateOnly)
	}
	if d, ok := ev.EndDate(); ok {
		view.EndDate = d.Format(time.DateOnly)
	}
	for i, sess := range ev.Plan {
		sv := sessionView{Slug: sess.Slug}
		if t, ok := sess.StartTime(loc, ev.DefaultTime); ok {
			sv.Start = &t
		}
		if t, ok := sess.EndTime(loc, ev.DefaultTime); ok {
			sv.End = &t
		}
		prev, next := ev.Neighbours(i)
		if prev != nil {
			sv.Prev = prev.Slug
		}
		if next != nil {
			sv.Next = next.Slug
		}
		view.Schedule = append(view.Schedule, sv)
	}
	writeJSON(w, r, http.StatusOK, view)
}

// handleReport serves the report of the most recent read, which may
// describe a version newer than the served event.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	st := s.source.Get()
	if st.Version == 0 {
		writeProblem(w, r, http.StatusServiceUnavailable, problemNotLoaded, "Document Not Loaded",
			"the course document has not been read yet", nil)
		return
	}
	w.Header().Set(headerDocumentVersion, strconv.FormatUint(st.Version, 10))
	writeJSON(w, r, http.StatusOK, newPush(st))
}

// handleValidate lints the YAML request body. Reports are cached by the
// hash of the body and the options that affect the outcome.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxDocumentBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeProblem(w, r, http.StatusRequestEntityTooLarge, problemTooLarge, "Document Too Large", "",
				map[string]any{"limit": MaxDocumentBytes})
			return
		}
		writeProblem(w, r, http.StatusBadRequest, problemEmptyBody, "Unreadable Body", err.Error(), nil)
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		writeProblem(w, r, http.StatusBadRequest, problemEmptyBody, "Empty Document",
			"send the course YAML as the request body", nil)
		return
	}

	opts := s.lint
	if r.URL.Query().Get("lenient") == "true" {
		opts.LenientMaterials = true
	}
	key := cache.ReportKey(data, "lenient="+strconv.FormatBool(opts.LenientMaterials))

	if cached, ok := s.cache.Get(ctx, key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	report, _, err := lint.Lint(ctx, data, opts)
	if err != nil {
		writeProblem(w, r, http.StatusServiceUnavailable, problemLintFailed, "Validation Failed", err.Error(), nil)
		return
	}
	out, err := json.Marshal(report)
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, problemLintFailed, "Validation Failed", err.Error(), nil)
		return
	}
	out = append(out, '\n')
	s.cache.Set(ctx, key, out, s.cfg.ReportTTL)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	data, err := schema.MarshalSchema()
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, problemSchema, "Schema Unavailable", err.Error(), nil)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loaded(w, r)
	if !ok {
		return
	}
	slug := s.slug()

	var buf bytes.Buffer
	n, err := ical.Write(&buf, st.Event, ical.Options{
		Slug:     slug,
		Location: s.location(),
		BaseURL:  s.cfg.BaseURL,
	})
	metrics.RecordCalendarExport(n, err)
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, problemExport, "Calendar Export Failed", err.Error(), nil)
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Debug().Str(log.FieldEvent, "ical.served").Str(log.FieldSlug, slug).Int("events", n).Msg("calendar served")

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+slug+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
