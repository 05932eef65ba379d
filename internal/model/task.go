package model

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusProgress  Status = "progress"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProgress, StatusCompleted:
		return true
	}
	return false
}

// Rank orders statuses by workflow stage, for board column sorting.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusProgress:
		return 2
	case StatusCompleted:
		return 3
	}
	return 0
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component. It marshals as
// YYYY-MM-DD and normalizes to midnight UTC so day-granularity
// comparisons stay exact.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task JSON uses camelCase to match the browser client.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    Date       `json:"deadline"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ApplyStatus is the single place the completedAt invariant lives:
// completedAt is non-nil iff status is completed. Every mutating store
// operation goes through it before persisting.
func ApplyStatus(t *Task, s Status, now time.Time) {
	t.Status = s
	if s == StatusCompleted {
		if t.CompletedAt == nil {
			stamped := now
			t.CompletedAt = &stamped
		}
		return
	}
	t.CompletedAt = nil
}

// IsOverdue reports whether the deadline has passed at day granularity.
// Completed tasks are never overdue.
func (t Task) IsOverdue(now time.Time) bool {
	if t.Status == StatusCompleted {
		return false
	}
	return t.Deadline.Before(startOfDay(now))
}

// DaysUntilDeadline is negative once the deadline is in the past.
func (t Task) DaysUntilDeadline(now time.Time) int {
	return int(t.Deadline.Sub(startOfDay(now)) / (24 * time.Hour))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Field carries a patch value in one of three states: absent from the
// JSON, explicit null, or set to a value. Absent means "leave
// untouched"; null and the zero value are explicit overwrites.
type Field[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// UnmarshalJSON only runs for keys that appear in the document, so
// Present is exactly "the client sent this field".
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Present = true
	if string(b) == "null" {
		f.Null = true
		return nil
	}
	return json.Unmarshal(b, &f.Value)
}

func FieldOf[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: v}
}

func NullField[T any]() Field[T] {
	return Field[T]{Present: true, Null: true}
}

// TaskPatch is a partial update: an absent field is left untouched, a
// present one overwrites. Explicit null clears description; for the
// required fields null fails validation instead.
type TaskPatch struct {
	Title       Field[string]   `json:"title"`
	Description Field[string]   `json:"description"`
	Deadline    Field[Date]     `json:"deadline"`
	Priority    Field[Priority] `json:"priority"`
	Status      Field[Status]   `json:"status"`
}

// Apply overwrites the present fields on t. Null title/deadline/
// priority/status never get here, Validate rejects them first. A status
// change runs through ApplyStatus so the patch path keeps the
// completedAt invariant too.
func (p TaskPatch) Apply(t *Task, now time.Time) {
	if p.Title.Present && !p.Title.Null {
		t.Title = p.Title.Value
	}
	if p.Description.Present {
		if p.Description.Null {
			t.Description = ""
		} else {
			t.Description = p.Description.Value
		}
	}
	if p.Deadline.Present && !p.Deadline.Null {
		t.Deadline = p.Deadline.Value
	}
	if p.Priority.Present && !p.Priority.Null {
		t.Priority = p.Priority.Value
	}
	if p.Status.Present && !p.Status.Null {
		ApplyStatus(t, p.Status.Value, now)
	}
}

type TaskFilter struct {
	Status *Status
}
