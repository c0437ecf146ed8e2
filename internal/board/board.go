// Package board composes the task store, persistence and the planner into
// the single-session board. Every successful mutation bumps the revision and
// writes the whole collection through to storage.
package board

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
	"github.com/p-blackswan/taskflow/internal/metrics"
	"github.com/p-blackswan/taskflow/internal/persist"
	"github.com/p-blackswan/taskflow/internal/planner"
	"github.com/p-blackswan/taskflow/internal/profile"
	"github.com/p-blackswan/taskflow/internal/requestid"
	"github.com/p-blackswan/taskflow/internal/task"
)

// Member is a person tasks can be assigned to.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Project is the board's static metadata.
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Members     []Member `json:"members"`
}

// Options configures a Service. Zero values pick defaults.
type Options struct {
	Project  Project
	Location *time.Location
	Metrics  *metrics.Metrics
	Now      func() time.Time
	NewID    func() string
	// Starter tasks inserted when storage holds no board yet. A stored board
	// that was emptied stays empty.
	Starter []NewTask
}

// Service is the board of one session.
type Service struct {
	// mu orders mutations with their write-through.
	mu       sync.Mutex
	revision uint64

	tasks   *task.Store
	adapter *persist.Adapter
	planner *planner.Client
	doc     *profile.Document
	project Project
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string

	identity *persist.Identity
	risk     *RiskReport
}

// Open loads the stored board, identity and profile and returns a ready
// Service. Corrupt stored data yields an empty board.
func Open(ctx context.Context, adapter *persist.Adapter, pl *planner.Client, opts Options, logger zerolog.Logger) (*Service, error) {
	s := &Service{
		adapter: adapter,
		planner: pl,
		project: opts.Project,
		metrics: opts.Metrics,
		logger:  logger.With().Str("component", "board").Logger(),
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.planner == nil {
		s.planner = planner.New(nil, logger)
	}
	if s.project.Members == nil {
		s.project.Members = []Member{}
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	s.tasks = task.NewStore(task.WithLocation(loc))

	stored, found, err := adapter.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open board: %w", err)
	}
	if dropped := s.tasks.Replace(stored); dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Msg("skipped invalid stored tasks")
	}

	if s.identity, err = adapter.LoadIdentity(ctx); err != nil {
		return nil, fmt.Errorf("open board: %w", err)
	}

	p, err := adapter.LoadProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("open board: %w", err)
	}
	if p == nil {
		p = &profile.Profile{}
	}
	s.doc = profile.NewDocument(*p, s.newID, s.now)

	if !found && len(opts.Starter) > 0 {
		if _, err := s.addTasks(ctx, "seed", opts.Starter); err != nil {
			return nil, fmt.Errorf("seed board: %w", err)
		}
	}
	s.updateGauge()

	s.logger.Info().Int("tasks", s.tasks.Len()).Bool("ai", s.planner.Configured()).Msg("board opened")
	return s, nil
}

// NewTask carries the caller-supplied fields of a task.
type NewTask struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      task.Status   `json:"status,omitempty"`
	Priority    task.Priority `json:"priority,omitempty"`
	DueDate     *task.Date    `json:"dueDate,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	StoryPoints *float64      `json:"storyPoints,omitempty"`
	Assignee    string        `json:"assignee,omitempty"`
	Subtasks    []string      `json:"subtasks,omitempty"`
	AIGenerated bool          `json:"-"`
}

func (s *Service) build(nt NewTask) task.Task {
	t := task.Task{
		ID:          s.newID(),
		Title:       nt.Title,
		Description: strings.TrimSpace(nt.Description),
		Status:      nt.Status,
		Priority:    nt.Priority,
		DueDate:     nt.DueDate,
		Tags:        nt.Tags,
		StoryPoints: nt.StoryPoints,
		Assignee:    nt.Assignee,
		CreatedAt:   s.now().UTC(),
		AIGenerated: nt.AIGenerated,
	}
	for _, title := range nt.Subtasks {
		if title = strings.TrimSpace(title); title != "" {
			t.Subtasks = append(t.Subtasks, task.Subtask{ID: s.newID(), Title: title})
		}
	}
	return t
}

// CreateTask adds one task at the head of the board.
func (s *Service) CreateTask(ctx context.Context, nt NewTask) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.build(nt)
	err := s.tasks.Add(t)
	if err := s.commit(ctx, "create", err); err != nil {
		return task.Task{}, err
	}
	created, _ := s.tasks.Find(t.ID)
	return created, nil
}

// addTasks inserts a batch as one mutation.
func (s *Service) addTasks(ctx context.Context, op string, nts []NewTask) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]task.Task, len(nts))
	for i, nt := range nts {
		batch[i] = s.build(nt)
	}
	err := s.tasks.AddMany(batch)
	if err := s.commit(ctx, op, err); err != nil {
		return nil, err
	}
	out := make([]task.Task, 0, len(batch))
	for _, t := range batch {
		if got, ok := s.tasks.Find(t.ID); ok {
			out = append(out, got)
		}
	}
	return out, nil
}

// EditTask merges a partial update.
func (s *Service) EditTask(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.tasks.Update(id, p)
	if err := s.commit(ctx, "edit", err); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

// DeleteTask removes a task for good.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, "delete", s.tasks.Remove(id))
}

// MoveTask relabels a task's status.
func (s *Service) MoveTask(ctx context.Context, id string, status task.Status) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.tasks.MoveStatus(id, status)
	if err := s.commit(ctx, "move", err); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

// ToggleSubtask flips one checklist item.
func (s *Service) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (task.Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, err := s.tasks.ToggleSubtask(taskID, subtaskID)
	if err := s.commit(ctx, "toggle_subtask", err); err != nil {
		return task.Subtask{}, err
	}
	return sub, nil
}

// AddSubtask appends a checklist item.
func (s *Service) AddSubtask(ctx context.Context, taskID, title string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.tasks.AppendSubtasks(taskID, task.Subtask{ID: s.newID(), Title: strings.TrimSpace(title)})
	if err := s.commit(ctx, "add_subtask", err); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

// Task returns one task.
func (s *Service) Task(id string) (task.Task, error) {
	t, ok := s.tasks.Find(id)
	if !ok {
		return task.Task{}, perrors.NotFound("task", id)
	}
	return t, nil
}

// Tasks evaluates a view at the current instant.
func (s *Service) Tasks(v task.View) []task.Task {
	return s.tasks.Select(v, s.now())
}

// Columns groups the board by status.
func (s *Service) Columns() []task.Column { return s.tasks.ByStatus() }

// Stats summarizes completion.
func (s *Service) Stats() task.Stats { return s.tasks.Statistics() }

// Revision counts successful mutations since Open.
func (s *Service) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Project returns the board metadata.
func (s *Service) Project() Project { return s.project }

// Ping checks the storage backend.
func (s *Service) Ping(ctx context.Context) error { return s.adapter.Ping(ctx) }

// AIConfigured reports whether AI actions can be offered.
func (s *Service) AIConfigured() bool { return s.planner.Configured() }

// commit records the outcome of a mutation and, on success, writes the
// collection through. Callers hold s.mu. A failed write leaves the
// in-memory change in place.
func (s *Service) commit(ctx context.Context, op string, err error) error {
	if s.metrics != nil {
		s.metrics.RecordMutation(op, err)
	}
	if err != nil {
		return err
	}
	s.revision++
	s.updateGauge()
	logger := requestid.Logger(ctx, s.logger)
	if err := s.adapter.Save(ctx, s.tasks.Snapshot()); err != nil {
		logger.Error().Err(err).Str("op", op).Msg("write-through failed")
		if s.metrics != nil {
			s.metrics.RecordPersistError()
		}
		return err
	}
	logger.Debug().Str("op", op).Uint64("revision", s.revision).Msg("board saved")
	return nil
}

func (s *Service) updateGauge() {
	if s.metrics == nil {
		return
	}
	counts := make(map[string]int, len(task.Statuses))
	for _, st := range task.Statuses {
		counts[string(st)] = 0
	}
	for _, col := range s.tasks.ByStatus() {
		counts[string(col.Status)] = len(col.Tasks)
	}
	s.metrics.SetTaskCounts(counts)
}
