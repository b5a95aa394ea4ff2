// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
)

type styles struct {
	ok      lipgloss.Style
	fail    lipgloss.Style
	path    lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	field   lipgloss.Style
	code    lipgloss.Style
	summary lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
}

// newStyles binds styles to w so colour is dropped when w is not a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		ok:      r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		fail:    r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		path:    r.NewStyle().Bold(true),
		err:     r.NewStyle().Foreground(lipgloss.Color("196")).Width(8),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")).Width(8),
		field:   r.NewStyle().Foreground(lipgloss.Color("86")),
		code:    r.NewStyle().Foreground(lipgloss.Color("241")),
		summary: r.NewStyle().Foreground(lipgloss.Color("99")).Bold(true),
		header:  r.NewStyle().Bold(true).PaddingRight(2),
		cell:    r.NewStyle().PaddingRight(2),
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// renderReport writes one report as a header line followed by its issues.
func (s styles) renderReport(w io.Writer, r validate.Report) {
	mark := s.ok.Render("✓")
	if !r.Valid() {
		mark = s.fail.Render("✗")
	}
	fmt.Fprintf(w, "%s %s (%s, %s)\n", mark, s.path.Render(r.Path),
		plural(len(r.Errors()), "error"), plural(len(r.Warnings()), "warning"))

	for _, is := range r.Issues {
		sev := s.warn.Render(string(is.Severity))
		if is.Severity == validate.SeverityError {
			sev = s.err.Render(string(is.Severity))
		}
		parts := []string{"  " + sev}
		if is.Field != "" {
			parts = append(parts, s.field.Render(is.Field))
		}
		parts = append(parts, is.Message, s.code.Render("["+is.Code+"]"))
		fmt.Fprintln(w, strings.Join(parts, " "))
	}
}

func (s styles) renderSummary(w io.Writer, reports []validate.Report) {
	invalid := 0
	for _, r := range reports {
		if !r.Valid() {
			invalid++
		}
	}
	fmt.Fprintln(w, s.summary.Render(fmt.Sprintf("%s checked, %d invalid", plural(len(reports), "document"), invalid)))
}

// renderTable writes rows as aligned columns under a bold header, without
// box-drawing borders so the output stays easy to grep.
func (s styles) renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			return s.cell
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
