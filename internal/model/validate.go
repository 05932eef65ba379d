package model

import (
	"fmt"
	"strings"
)

const maxTitleLen = 255

// Violation is a single field-level validation failure.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// JoinViolations renders violations into one client-facing message.
func JoinViolations(vs []Violation) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}

// Validate checks a full task record and returns every violation found.
// It is called explicitly before any create or update is persisted.
func (t Task) Validate() []Violation {
	var vs []Violation
	vs = append(vs, validateTitle(t.Title)...)
	if t.Deadline.IsZero() {
		vs = append(vs, Violation{"deadline", "deadline is required"})
	}
	if !t.Priority.Valid() {
		vs = append(vs, Violation{"priority", "priority must be low, medium, or high"})
	}
	if !t.Status.Valid() {
		vs = append(vs, Violation{"status", "status must be pending, progress, or completed"})
	}
	return vs
}

// Validate checks only the fields present in the patch. An explicit
// null is an explicit value: fine for description, a violation for the
// required fields.
func (p TaskPatch) Validate() []Violation {
	var vs []Violation
	if p.Title.Present {
		title := p.Title.Value
		if p.Title.Null {
			title = ""
		}
		vs = append(vs, validateTitle(title)...)
	}
	if p.Deadline.Present && (p.Deadline.Null || p.Deadline.Value.IsZero()) {
		vs = append(vs, Violation{"deadline", "deadline must be a valid date"})
	}
	if p.Priority.Present && (p.Priority.Null || !p.Priority.Value.Valid()) {
		vs = append(vs, Violation{"priority", "priority must be low, medium, or high"})
	}
	if p.Status.Present && (p.Status.Null || !p.Status.Value.Valid()) {
		vs = append(vs, Violation{"status", "status must be pending, progress, or completed"})
	}
	return vs
}

func validateTitle(title string) []Violation {
	if strings.TrimSpace(title) == "" {
		return []Violation{{"title", "title cannot be empty"}}
	}
	if len(title) > maxTitleLen {
		return []Violation{{"title", fmt.Sprintf("title must be between 1 and %d characters", maxTitleLen)}}
	}
	return nil
}
