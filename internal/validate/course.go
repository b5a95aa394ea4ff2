// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dejvthedrummer/naucse.python.cz/internal/course"
)

// LessonResolver answers whether a lesson reference exists in a catalog.
type LessonResolver interface {
	HasLesson(ctx context.Context, ref string) (bool, error)
}

// Options tune the content rules.
type Options struct {
	// LenientMaterials downgrades ambiguous and empty materials to warnings.
	LenientMaterials bool
	// Resolver, when set, is consulted for every well-formed lesson reference.
	Resolver LessonResolver
}

var lessonRefPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*/[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ValidLessonRef reports whether ref has the "area/name" shape.
func ValidLessonRef(ref string) bool {
	return lessonRefPattern.MatchString(ref)
}

// Check applies the content rules to a parsed event. The returned error is
// non-nil only when the resolver fails or ctx is done; the report is still
// filled with every finding made before that.
func Check(ctx context.Context, ev *course.Event, opts Options) (Report, error) {
	v := New()
	path := ev.Source()

	checkSlugs(v, ev.Plan)
	checkTimeRange(v, "default_time", ev.DefaultTime)
	checkHTML(v, "description", ev.Description)
	checkHTML(v, "long_description", ev.LongDescription)

	for i, s := range ev.Plan {
		base := fmt.Sprintf("plan[%d]", i)
		if strings.TrimSpace(s.Title) == "" {
			v.AddError(CodeMissingField, base+".title", "session title cannot be empty", s.Title)
		}
		if s.Date != "" {
			if _, err := course.ParseDate(string(s.Date)); err != nil {
				v.AddError(CodeInvalidDate, base+".date", err.Error(), string(s.Date))
			}
		}
		checkTimeRange(v, base+".time", s.Time)
		for j, m := range s.Materials {
			checkMaterial(v, fmt.Sprintf("%s.materials[%d]", base, j), m, opts)
		}
	}

	if opts.Resolver != nil {
		if err := resolveLessons(ctx, v, ev, opts.Resolver); err != nil {
			return v.Report(path), err
		}
	}
	return v.Report(path), nil
}

func checkSlugs(v *Validator, plan []course.Session) {
	positions := make(map[string][]int)
	var order []string
	for i, s := range plan {
		slug := norm.NFC.String(strings.TrimSpace(s.Slug))
		if slug == "" {
			v.AddError(CodeEmptySlug, fmt.Sprintf("plan[%d].slug", i), "session slug cannot be empty", s.Slug)
			continue
		}
		if _, seen := positions[slug]; !seen {
			order = append(order, slug)
		}
		positions[slug] = append(positions[slug], i)
	}

	for _, slug := range order {
		idx := positions[slug]
		if len(idx) < 2 {
			continue
		}
		v.AddWarning(CodeDuplicateSlug, fmt.Sprintf("plan[%d].slug", idx[1]),
			fmt.Sprintf("duplicate slug %q used by sessions %v", slug, idx), slug)
	}
}

func checkTimeRange(v *Validator, field string, r *course.TimeRange) {
	if r == nil {
		return
	}
	start, startErr := course.ParseClock(r.Start)
	if startErr != nil {
		v.AddError(CodeInvalidTime, field+".start", startErr.Error(), r.Start)
	}
	end, endErr := course.ParseClock(r.End)
	if endErr != nil {
		v.AddError(CodeInvalidTime, field+".end", endErr.Error(), r.End)
	}
	if startErr == nil && endErr == nil && !start.Before(end) {
		v.AddError(CodeTimeOrder, field,
			fmt.Sprintf("start %s is not before end %s", start, end), r.Start+"-"+r.End)
	}
}

func checkMaterial(v *Validator, field string, m course.Material, opts Options) {
	add := v.AddError
	if opts.LenientMaterials {
		add = v.AddWarning
	}

	switch m.Kind() {
	case course.MaterialAmbiguous:
		add(CodeMaterialAmbiguous, field,
			"material has both a lesson reference and an inline title/url", m.Lesson)
		return
	case course.MaterialEmpty:
		add(CodeMaterialEmpty, field, "material has neither a lesson reference nor a title", nil)
		return
	case course.MaterialLesson:
		if !ValidLessonRef(m.Lesson) {
			v.AddError(CodeInvalidLessonRef, field+".lesson",
				`lesson reference must look like "area/name"`, m.Lesson)
		}
	case course.MaterialInline:
		if m.URL != nil {
			v.URL(field+".url", *m.URL, []string{"http", "https"})
		}
	}
}

func checkHTML(v *Validator, field, fragment string) {
	if found := UnsafeHTML(fragment); len(found) > 0 {
		v.AddWarning(CodeUnsafeHTML, field,
			"HTML contains constructs that will be stripped: "+strings.Join(found, ", "), nil)
	}
}

func resolveLessons(ctx context.Context, v *Validator, ev *course.Event, r LessonResolver) error {
	known := make(map[string]bool)
	for i, s := range ev.Plan {
		for j, m := range s.Materials {
			if m.Kind() != course.MaterialLesson || !ValidLessonRef(m.Lesson) {
				continue
			}
			ok, cached := known[m.Lesson]
			if !cached {
				if err := ctx.Err(); err != nil {
					return err
				}
				var err error
				ok, err = r.HasLesson(ctx, m.Lesson)
				if err != nil {
					return fmt.Errorf("resolve lesson %q: %w", m.Lesson, err)
				}
				known[m.Lesson] = ok
			}
			if !ok {
				v.AddWarning(CodeDanglingLesson, fmt.Sprintf("plan[%d].materials[%d].lesson", i, j),
					fmt.Sprintf("lesson %q not found in catalog", m.Lesson), m.Lesson)
			}
		}
	}
	return nil
}
