package task

import (
	"math"
	"slices"
	"time"
)

// View names a derived list over the collection.
type View string

const (
	ViewAll      View = "all"
	ViewToday    View = "today"
	ViewUpcoming View = "upcoming"
)

// ParseView maps a view name to a View, defaulting to ViewAll.
func ParseView(raw string) View {
	switch View(raw) {
	case ViewToday, ViewUpcoming:
		return View(raw)
	}
	return ViewAll
}

// Stats aggregates completion over the whole collection.
type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	CompletionRate int `json:"completionRate"`
}

// Column is one status lane of the board.
type Column struct {
	Status Status `json:"status"`
	Tasks  []Task `json:"tasks"`
}

// Filter returns the tasks matching pred in view order.
func (s *Store) Filter(pred func(Task) bool) []Task {
	s.mu.RLock()
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if pred == nil || pred(t) {
			out = append(out, t.Clone())
		}
	}
	s.mu.RUnlock()
	SortForView(out)
	return out
}

// Select evaluates a named view at instant now.
func (s *Store) Select(v View, now time.Time) []Task {
	switch v {
	case ViewToday:
		return s.Today(now)
	case ViewUpcoming:
		return s.Upcoming(now)
	}
	return s.All()
}

// Today returns tasks due on now's calendar day in the store location.
func (s *Store) Today(now time.Time) []Task {
	today := DateOf(now, s.loc)
	return s.Filter(func(t Task) bool {
		return t.DueDate != nil && *t.DueDate == today
	})
}

// Upcoming returns tasks due strictly after now's calendar day.
func (s *Store) Upcoming(now time.Time) []Task {
	today := DateOf(now, s.loc)
	return s.Filter(func(t Task) bool {
		return t.DueDate != nil && t.DueDate.After(today)
	})
}

// All returns every task in view order.
func (s *Store) All() []Task { return s.Filter(nil) }

// ByStatus groups the collection by status in board order. Within a column
// tasks keep collection order.
func (s *Store) ByStatus() []Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols := make([]Column, len(Statuses))
	for i, st := range Statuses {
		cols[i] = Column{Status: st, Tasks: []Task{}}
	}
	for _, t := range s.tasks {
		i := slices.Index(Statuses, t.Status)
		cols[i].Tasks = append(cols[i].Tasks, t.Clone())
	}
	return cols
}

// Statistics counts done tasks against the whole collection.
func (s *Store) Statistics() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeStats(s.tasks)
}

// ComputeStats derives Stats from any task slice.
func ComputeStats(ts []Task) Stats {
	st := Stats{Total: len(ts)}
	for _, t := range ts {
		if t.Done() {
			st.Completed++
		}
	}
	st.Pending = st.Total - st.Completed
	if st.Total > 0 {
		st.CompletionRate = int(math.Round(100 * float64(st.Completed) / float64(st.Total)))
	}
	return st
}

// SortForView orders tasks not-done first, then by ascending due date with
// undated tasks last. The sort is stable.
func SortForView(ts []Task) {
	slices.SortStableFunc(ts, func(a, b Task) int {
		if a.Done() != b.Done() {
			if a.Done() {
				return 1
			}
			return -1
		}
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		}
		return a.DueDate.Compare(*b.DueDate)
	})
}
