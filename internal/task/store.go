package task

import (
	"slices"
	"strings"
	"sync"
	"time"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
)

// Store is the authoritative collection of tasks for one board session.
// The collection is ordered most-recent-first.
type Store struct {
	mu    sync.RWMutex
	tasks []Task
	loc   *time.Location
}

// Option configures a Store.
type Option func(*Store)

// WithLocation sets the zone in which "today" is evaluated. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{loc: time.UTC}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Location returns the zone used for calendar-day views.
func (s *Store) Location() *time.Location { return s.loc }

// Add inserts t at the head of the collection. The caller supplies the id;
// duplicate ids are a programmer error and are not checked.
func (s *Store) Add(t Task) error {
	t = t.Clone()
	if err := t.normalize(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = slices.Insert(s.tasks, 0, t)
	return nil
}

// AddMany prepends ts as a block, keeping their relative order. Every task is
// validated before any is inserted.
func (s *Store) AddMany(ts []Task) error {
	batch := make([]Task, 0, len(ts))
	for i, t := range ts {
		t = t.Clone()
		if err := t.normalize(); err != nil {
			return perrors.Validation("task %d: %v", i, err)
		}
		batch = append(batch, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = slices.Insert(s.tasks, 0, batch...)
	return nil
}

// Update merges p into the task with the given id.
func (s *Store) Update(id string, p Patch) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, perrors.NotFound("task", id)
	}
	next := s.tasks[i].Clone()
	if err := p.apply(&next); err != nil {
		return Task{}, err
	}
	s.tasks[i] = next
	return next.Clone(), nil
}

// Remove deletes the task with the given id. There is no tombstone.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return perrors.NotFound("task", id)
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return nil
}

// MoveStatus relabels a task. There are no forbidden transitions.
func (s *Store) MoveStatus(id string, status Status) (Task, error) {
	if !status.Valid() {
		return Task{}, perrors.Validation("unknown status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, perrors.NotFound("task", id)
	}
	s.tasks[i].Status = status
	return s.tasks[i].Clone(), nil
}

// ToggleSubtask flips the completed flag of one subtask.
func (s *Store) ToggleSubtask(taskID, subtaskID string) (Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(taskID)
	if i < 0 {
		return Subtask{}, perrors.NotFound("task", taskID)
	}
	subs := s.tasks[i].Subtasks
	for j := range subs {
		if subs[j].ID == subtaskID {
			subs[j].Completed = !subs[j].Completed
			return subs[j], nil
		}
	}
	return Subtask{}, perrors.NotFound("subtask", subtaskID)
}

// AppendSubtasks adds subtasks to the end of a task's checklist.
func (s *Store) AppendSubtasks(taskID string, subs ...Subtask) (Task, error) {
	for _, sub := range subs {
		if strings.TrimSpace(sub.Title) == "" {
			return Task{}, perrors.Validation("subtask title is required")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(taskID)
	if i < 0 {
		return Task{}, perrors.NotFound("task", taskID)
	}
	s.tasks[i].Subtasks = append(s.tasks[i].Subtasks, subs...)
	return s.tasks[i].Clone(), nil
}

// Find returns a copy of the task with the given id.
func (s *Store) Find(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Snapshot returns a deep copy of the collection in stored order.
func (s *Store) Snapshot() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Replace swaps in a loaded collection. Records that fail validation are
// dropped and counted.
func (s *Store) Replace(ts []Task) (dropped int) {
	next := make([]Task, 0, len(ts))
	for _, t := range ts {
		t = t.Clone()
		if err := t.normalize(); err != nil {
			dropped++
			continue
		}
		next = append(next, t)
	}
	s.mu.Lock()
	s.tasks = next
	s.mu.Unlock()
	return dropped
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}
