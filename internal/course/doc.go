// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package course models a course/workshop info document: the event header,
// its plan of sessions and the teaching materials attached to each session.
//
// Documents are YAML. Parse enforces only the fatal part of the contract
// (well-formed document, title, non-empty plan); content checks such as
// duplicate slugs or ambiguous materials live in package validate.
// Unknown keys are kept in Extra fields and written back by Marshal.
package course
