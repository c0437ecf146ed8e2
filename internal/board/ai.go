package board

import (
	"context"
	"strings"
	"time"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
	"github.com/p-blackswan/taskflow/internal/planner"
	"github.com/p-blackswan/taskflow/internal/task"
)

// DefaultDueOffsetDays applies to approved drafts without their own offset.
const DefaultDueOffsetDays = 3

// RiskReport is the latest risk assessment and the revision it describes.
type RiskReport struct {
	planner.RiskAssessment
	Revision    uint64    `json:"revision"`
	GeneratedAt time.Time `json:"generatedAt"`
	// Stale is set once the board changed after the report was computed.
	Stale bool `json:"stale"`
}

// observe records one AI call.
func (s *Service) observe(kind planner.Kind, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordAI(string(kind), time.Since(start).Seconds(), err)
	}
}

// GeneratePlan asks for task drafts for goal. Nothing is stored until
// ApprovePlan.
func (s *Service) GeneratePlan(ctx context.Context, goal string) (planner.PlanDraft, error) {
	start := time.Now()
	plan, err := s.planner.RequestPlan(ctx, goal)
	s.observe(planner.KindPlan, start, err)
	return plan, err
}

// ApprovePlan turns drafts into todo tasks at the head of the board. Due
// dates are relative to today in the board's zone.
func (s *Service) ApprovePlan(ctx context.Context, drafts []planner.TaskDraft) ([]task.Task, error) {
	if len(drafts) == 0 {
		return nil, perrors.Validation("plan has no tasks")
	}
	today := task.DateOf(s.now(), s.tasks.Location())
	nts := make([]NewTask, len(drafts))
	for i, d := range drafts {
		offset := DefaultDueOffsetDays
		if d.DueDateOffsetDays != nil && *d.DueDateOffsetDays > 0 {
			offset = *d.DueDateOffsetDays
		}
		due := today.AddDays(offset)
		nts[i] = NewTask{
			Title:       d.Title,
			Description: d.Description,
			Status:      task.StatusTodo,
			Priority:    d.Priority,
			DueDate:     &due,
			Tags:        d.Tags,
			StoryPoints: d.StoryPoints,
			AIGenerated: true,
		}
	}
	return s.addTasks(ctx, "approve_plan", nts)
}

// SuggestSubtasks asks for checklist items for a task and appends them. If
// the task was deleted while the request was in flight the result is
// discarded and NotFound returned.
func (s *Service) SuggestSubtasks(ctx context.Context, taskID string) (task.Task, error) {
	t, err := s.Task(taskID)
	if err != nil {
		return task.Task{}, err
	}
	start := time.Now()
	titles, err := s.planner.RequestSubtasks(ctx, t.Title, t.Description)
	s.observe(planner.KindSubtasks, start, err)
	if err != nil {
		return task.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]task.Subtask, 0, len(titles))
	for _, title := range titles {
		subs = append(subs, task.Subtask{ID: s.newID(), Title: strings.TrimSpace(title)})
	}
	if len(subs) == 0 {
		return t, nil
	}
	updated, err := s.tasks.AppendSubtasks(taskID, subs...)
	if err := s.commit(ctx, "suggest_subtasks", err); err != nil {
		return task.Task{}, err
	}
	return updated, nil
}

// AnalyzeRisk scores the current board and keeps the report.
func (s *Service) AnalyzeRisk(ctx context.Context) (RiskReport, error) {
	s.mu.Lock()
	rev := s.revision
	snapshot := s.tasks.Snapshot()
	s.mu.Unlock()

	start := time.Now()
	ra, err := s.planner.RequestRiskAssessment(ctx, snapshot)
	s.observe(planner.KindRisk, start, err)
	if err != nil {
		return RiskReport{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	report := RiskReport{RiskAssessment: ra, Revision: rev, GeneratedAt: s.now().UTC()}
	s.risk = &report
	report.Stale = rev != s.revision
	return report, nil
}

// Risk returns the last report, if any, flagged stale when the board has
// changed since.
func (s *Service) Risk() (RiskReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.risk == nil {
		return RiskReport{}, false
	}
	r := *s.risk
	r.Stale = r.Revision != s.revision
	return r, true
}

// Quote returns the daily quote. It never fails; a fallback line is counted
// as an errored AI request.
func (s *Service) Quote(ctx context.Context) string {
	start := time.Now()
	q, err := s.planner.DailyQuote(ctx)
	s.observe(planner.KindQuote, start, err)
	return q
}
