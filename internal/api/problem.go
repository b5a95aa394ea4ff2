// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/dejvthedrummer/naucse.python.cz/internal/api/middleware"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
)

// Problem types. Each is a stable machine identifier.
const (
	problemNotLoaded  = "document/not_loaded"
	problemEmptyBody  = "validate/empty_body"
	problemTooLarge   = "validate/too_large"
	problemLintFailed = "validate/failed"
	problemExport     = "calendar/export_failed"
	problemSchema     = "schema/unavailable"
	problemNotFound   = "system/not_found"
	problemNotAllowed = "system/method_not_allowed"
	problemEncode     = "system/encode_failed"
)

// writeProblem writes an RFC 7807 problem details response.
// Reserved keys in extra are ignored.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, detail string, extra map[string]any) {
	reqID := log.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = w.Header().Get(middleware.HeaderRequestID)
	}

	res := map[string]any{
		"type":     problemType,
		"title":    title,
		"status":   status,
		"instance": r.URL.EscapedPath(),
	}
	if reqID != "" {
		res["requestId"] = reqID
	}
	if detail != "" {
		res["detail"] = detail
	}
	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "requestId":
			continue
		}
		res[k] = v
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str("type", problemType).Int("status", status).Msg("failed to encode problem response")
	}
}

// writeJSON writes a JSON response with the given status code. The body is
// encoded before any header is sent so an encoding failure becomes a 500
// problem instead of an empty success.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldEvent, "api.encode_error").Msg("failed to encode response")
		writeProblem(w, r, http.StatusInternalServerError, problemEncode, "Response Encoding Failed", err.Error(), nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
