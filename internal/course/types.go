// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package course

// Event is the top-level record of a course document.
type Event struct {
	Title           string         `yaml:"title" json:"title"`
	Subtitle        string         `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	Place           string         `yaml:"place,omitempty" json:"place,omitempty"`
	Time            string         `yaml:"time,omitempty" json:"time,omitempty"`
	Description     string         `yaml:"description,omitempty" json:"description,omitempty"`
	LongDescription string         `yaml:"long_description,omitempty" json:"long_description,omitempty"`
	Vars            map[string]any `yaml:"vars,omitempty" json:"vars"`

	// DefaultTime applies to sessions that have a date but no time of their own.
	DefaultTime *TimeRange `yaml:"default_time,omitempty" json:"default_time,omitempty"`

	Plan []Session `yaml:"plan" json:"plan"`

	// Extra holds top-level keys this package does not know about.
	Extra map[string]any `yaml:",inline" json:"extra,omitempty"`

	source string
}

// Source returns the path the event was loaded from, or "" for in-memory documents.
func (e *Event) Source() string { return e.source }

// Session is a scheduled block of the plan.
type Session struct {
	Title     string         `yaml:"title" json:"title"`
	Slug      string         `yaml:"slug" json:"slug"`
	Date      Date           `yaml:"date,omitempty" json:"date,omitempty"`
	Time      *TimeRange     `yaml:"time,omitempty" json:"time,omitempty"`
	Materials []Material     `yaml:"materials,omitempty" json:"materials,omitempty"`
	Extra     map[string]any `yaml:",inline" json:"extra,omitempty"`
}

// TimeRange is a pair of "HH:MM" times of day.
type TimeRange struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// MaterialKind classifies a Material by which of its identifying keys are set.
type MaterialKind string

const (
	MaterialLesson    MaterialKind = "lesson"
	MaterialInline    MaterialKind = "inline"
	MaterialAmbiguous MaterialKind = "ambiguous"
	MaterialEmpty     MaterialKind = "empty"
)

// Material is one teaching resource of a session: either a reference to a
// catalogued lesson or an inline link with a title.
type Material struct {
	Lesson string  `json:"lesson,omitempty"`
	Title  string  `json:"title,omitempty"`
	URL    *string `json:"url,omitempty"`
	// HasURL records that the url key was present, even when it was null.
	HasURL bool           `json:"-"`
	Type   string         `json:"type,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// Kind reports whether the material is a lesson reference, an inline entry,
// both at once (ambiguous) or neither (empty).
func (m Material) Kind() MaterialKind {
	inline := m.Title != "" || m.HasURL
	switch {
	case m.Lesson != "" && inline:
		return MaterialAmbiguous
	case m.Lesson != "":
		return MaterialLesson
	case m.Title != "":
		return MaterialInline
	default:
		return MaterialEmpty
	}
}

// Link returns the inline URL, or "" when unset or null.
func (m Material) Link() string {
	if m.URL == nil {
		return ""
	}
	return *m.URL
}
