// Package task owns the canonical in-memory task collection of a board:
// record types, mutation operations, derived views and statistics.
//
// The store never touches persistence. Callers write the collection through
// after a successful mutation.
package task

import (
	"encoding/json"
	"strings"
	"time"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
)

// Status is a board column label. Any status may move to any other.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses lists the columns in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// ParseStatus normalizes a status label. It accepts the spellings found in
// older stored boards ("IN_PROGRESS", "in-progress", "completed").
func ParseStatus(raw string) (Status, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if s == "completed" {
		s = string(StatusDone)
	}
	st := Status(s)
	if !st.Valid() {
		return "", perrors.Validation("unknown status %q", raw)
	}
	return st, nil
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ParsePriority matches a priority label case-insensitively.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", perrors.Validation("unknown priority %q", raw)
	}
	return p, nil
}

// Subtask is a checklist item owned by exactly one task.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Task is a unit of tracked work.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	DueDate     *Date     `json:"dueDate,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	StoryPoints *float64  `json:"storyPoints,omitempty"`
	Assignee    string    `json:"assignee,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Subtasks    []Subtask `json:"subtasks,omitempty"`
	AIGenerated bool      `json:"aiGenerated,omitempty"`
}

// Progress returns the completed fraction of subtasks, 0 when there are none.
func (t Task) Progress() float64 {
	if len(t.Subtasks) == 0 {
		return 0
	}
	done := 0
	for _, s := range t.Subtasks {
		if s.Completed {
			done++
		}
	}
	return float64(done) / float64(len(t.Subtasks))
}

// Done reports whether the task sits in the done column.
func (t Task) Done() bool { return t.Status == StatusDone }

// Clone returns a deep copy so callers never alias store memory.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.StoryPoints != nil {
		p := *t.StoryPoints
		c.StoryPoints = &p
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	if t.Subtasks != nil {
		c.Subtasks = append([]Subtask(nil), t.Subtasks...)
	}
	return c
}

// normalize fills defaults and validates the record in place.
func (t *Task) normalize() error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return perrors.Validation("title is required")
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if !t.Status.Valid() {
		return perrors.Validation("unknown status %q", t.Status)
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Priority.Valid() {
		return perrors.Validation("unknown priority %q", t.Priority)
	}
	if t.StoryPoints != nil && *t.StoryPoints < 0 {
		return perrors.Validation("story points must be non-negative")
	}
	t.Tags = NormalizeTags(t.Tags)
	return nil
}

// NormalizeTags trims, drops empties and de-duplicates while keeping order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Patch carries the fields of a partial update. Nil fields are left as is.
type Patch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	Priority     *Priority  `json:"priority,omitempty"`
	DueDate      *Date      `json:"dueDate,omitempty"`
	ClearDueDate bool       `json:"clearDueDate,omitempty"`
	Tags         *[]string  `json:"tags,omitempty"`
	StoryPoints  *float64   `json:"storyPoints,omitempty"`
	Assignee     *string    `json:"assignee,omitempty"`
	Subtasks     *[]Subtask `json:"subtasks,omitempty"`
}

// apply merges p into t and validates the result.
func (p Patch) apply(t *Task) error {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
	if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.StoryPoints != nil {
		v := *p.StoryPoints
		t.StoryPoints = &v
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.Subtasks != nil {
		t.Subtasks = append([]Subtask(nil), (*p.Subtasks)...)
	}
	return t.normalize()
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

func (p *Priority) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	pr, err := ParsePriority(raw)
	if err != nil {
		return err
	}
	*p = pr
	return nil
}
