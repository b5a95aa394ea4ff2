// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package lint runs the full validation pipeline over a raw course document:
// parsing, the structural schema and the content rules.
package lint

import (
	"context"
	"errors"
	"time"

	"github.com/dejvthedrummer/naucse.python.cz/internal/course"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/metrics"
	"github.com/dejvthedrummer/naucse.python.cz/internal/schema"
	"github.com/dejvthedrummer/naucse.python.cz/internal/telemetry"
	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
)

// Result labels used in metrics.
const (
	ResultValid     = "valid"
	ResultInvalid   = "invalid"
	ResultMalformed = "malformed"
)

// Options configure a lint run.
type Options struct {
	validate.Options

	// Path is reported as the document's source. Optional.
	Path string
	// Source labels metrics: "cli", "api" or "watch".
	Source string
}

// Lint parses and validates data. Fatal parse failures produce a report with a
// single error issue and a nil event. The error is non-nil only when the
// catalog lookup fails or ctx is done.
func Lint(ctx context.Context, data []byte, opts Options) (validate.Report, *course.Event, error) {
	start := time.Now()
	ctx, span := telemetry.Start(ctx, "lint.document")

	report, ev, err := run(ctx, data, opts)

	sessions := 0
	if ev != nil {
		sessions = len(ev.Plan)
	}
	span.SetAttributes(telemetry.DocumentAttributes(opts.Path, len(data), sessions)...)
	span.SetAttributes(telemetry.ValidationAttributes(report.Valid(), len(report.Errors()), len(report.Warnings()))...)
	telemetry.End(span, err)

	if err != nil {
		return report, ev, err
	}

	result := ResultValid
	switch {
	case ev == nil:
		result = ResultMalformed
	case !report.Valid():
		result = ResultInvalid
	}
	source := opts.Source
	if source == "" {
		source = "cli"
	}
	metrics.RecordValidation(source, result, time.Since(start).Seconds())
	for _, is := range report.Issues {
		metrics.IncValidationIssue(is.Code, string(is.Severity))
	}

	logger := log.WithTraceContext(log.ContextWithDocument(ctx, opts.Path))
	logger.Debug().
		Str(log.FieldEvent, "lint.done").
		Bool(log.FieldValid, report.Valid()).
		Int(log.FieldErrors, len(report.Errors())).
		Int(log.FieldWarnings, len(report.Warnings())).
		Dur("duration", time.Since(start)).
		Msg("document linted")

	return report, ev, nil
}

func run(ctx context.Context, data []byte, opts Options) (validate.Report, *course.Event, error) {
	var (
		ev  *course.Event
		err error
	)
	if opts.Path != "" {
		ev, err = course.ParseFile(opts.Path, data)
	} else {
		ev, err = course.Parse(data)
	}
	if err != nil {
		return FatalReport(opts.Path, err), nil, nil
	}

	report, err := validate.Check(ctx, ev, opts.Options)
	if err != nil {
		return report, ev, err
	}

	// Schema findings go first so type errors read before content rules.
	if structural := schema.ValidateDocument(data); len(structural) > 0 {
		report.Issues = append(structural, report.Issues...)
	}
	return report, ev, nil
}

// LintFile reads path and lints it.
func LintFile(ctx context.Context, path string, opts Options) (validate.Report, *course.Event, error) {
	data, err := course.ReadFile(path)
	if err != nil {
		return validate.Report{}, nil, err
	}
	opts.Path = path
	return Lint(ctx, data, opts)
}

// FatalReport converts a parse error into a single-issue report.
func FatalReport(path string, err error) validate.Report {
	issue := validate.Issue{
		Severity: validate.SeverityError,
		Code:     validate.CodeMalformed,
		Message:  err.Error(),
	}

	var fe *course.FieldError
	switch {
	case errors.As(err, &fe):
		issue.Code = validate.CodeMissingField
		issue.Field = fe.Field
		issue.Message = "required field is missing or blank"
	case errors.Is(err, course.ErrEmptyPlan):
		issue.Code = validate.CodeEmptyPlan
		issue.Field = "plan"
		issue.Message = err.Error()
	}

	return validate.Report{Path: path, Issues: []validate.Issue{issue}}
}
