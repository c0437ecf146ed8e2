// Package planner turns free text into typed task drafts, subtask titles and
// risk reports by calling a completion provider with a fixed output schema.
// Replies are decoded strictly: anything that does not fit the schema is a
// MalformedResponse, never a silent default.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
	"github.com/p-blackswan/taskflow/internal/llm"
	"github.com/p-blackswan/taskflow/internal/requestid"
	"github.com/p-blackswan/taskflow/internal/task"
)

// Kind names a planner action, used for logging and metrics labels.
type Kind string

const (
	KindPlan     Kind = "plan"
	KindSubtasks Kind = "subtasks"
	KindRisk     Kind = "risk"
	KindQuote    Kind = "quote"
	KindOptimize Kind = "optimize"
	KindSkills   Kind = "skills"
	KindSummary  Kind = "summary"
)

// TaskDraft is one AI-proposed task awaiting approval.
type TaskDraft struct {
	Title             string        `json:"title"`
	Description       string        `json:"description,omitempty"`
	Priority          task.Priority `json:"priority"`
	StoryPoints       *float64      `json:"storyPoints,omitempty"`
	Tags              []string      `json:"tags,omitempty"`
	DueDateOffsetDays *int          `json:"dueDateOffsetDays,omitempty"`
}

// PlanDraft is the transient result of RequestPlan.
type PlanDraft struct {
	Summary string      `json:"summary"`
	Tasks   []TaskDraft `json:"tasks"`
}

// RiskAssessment is an advisory report on the board.
type RiskAssessment struct {
	Score       int      `json:"score"`
	Analysis    string   `json:"analysis"`
	Suggestions []string `json:"suggestions"`
}

// Client issues planner requests against a provider. It never retries.
type Client struct {
	provider llm.Provider
	logger   zerolog.Logger
}

// New creates a Client.
func New(provider llm.Provider, logger zerolog.Logger) *Client {
	if provider == nil {
		provider = llm.Unconfigured{}
	}
	return &Client{
		provider: provider,
		logger:   logger.With().Str("component", "planner").Logger(),
	}
}

// Configured reports whether AI features can be offered.
func (c *Client) Configured() bool { return llm.Configured(c.provider) }

// RequestPlan decomposes a goal into task drafts.
func (c *Client) RequestPlan(ctx context.Context, goal string) (PlanDraft, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return PlanDraft{}, perrors.Validation("goal is required")
	}
	req := llm.UserPrompt(planSystemPrompt, fmt.Sprintf(planPrompt, goal), planSchema())
	req.SchemaName = "project_plan"

	text, err := c.complete(ctx, KindPlan, req)
	if err != nil {
		return PlanDraft{}, err
	}
	plan, err := decodePlan(text)
	if err != nil {
		c.logger.Warn().Err(err).Str("text", clip(text)).Msg("plan reply rejected")
		return PlanDraft{}, err
	}
	c.logger.Info().Int("drafts", len(plan.Tasks)).Msg("plan generated")
	return plan, nil
}

// RequestSubtasks proposes 3 to 5 checklist items for a single task.
func (c *Client) RequestSubtasks(ctx context.Context, title, description string) ([]string, error) {
	if strings.TrimSpace(title) == "" {
		return nil, perrors.Validation("title is required")
	}
	req := llm.UserPrompt("", fmt.Sprintf(subtasksPrompt, title, description), subtasksSchema())
	req.SchemaName = "subtasks"

	text, err := c.complete(ctx, KindSubtasks, req)
	if err != nil {
		return nil, err
	}
	titles, err := decodeSubtasks(text)
	if err != nil {
		c.logger.Warn().Err(err).Str("text", clip(text)).Msg("subtasks reply rejected")
		return nil, err
	}
	return titles, nil
}

// RequestRiskAssessment scores the given board state. It never mutates the
// board; callers decide how to treat later staleness.
func (c *Client) RequestRiskAssessment(ctx context.Context, tasks []task.Task) (RiskAssessment, error) {
	req := llm.UserPrompt("", fmt.Sprintf(riskPrompt, summarizeBoard(tasks)), riskSchema())
	req.SchemaName = "risk_report"

	text, err := c.complete(ctx, KindRisk, req)
	if err != nil {
		return RiskAssessment{}, err
	}
	ra, err := decodeRisk(text)
	if err != nil {
		c.logger.Warn().Err(err).Str("text", clip(text)).Msg("risk reply rejected")
		return RiskAssessment{}, err
	}
	return ra, nil
}

// DailyQuote returns a short productivity quote. The quote is always usable:
// on failure it is a fixed fallback line and err reports why the fallback
// was chosen.
func (c *Client) DailyQuote(ctx context.Context) (string, error) {
	if !c.Configured() {
		return fallbackQuoteUnconfigured, perrors.ErrNotConfigured
	}
	text, err := c.complete(ctx, KindQuote, llm.UserPrompt("", quotePrompt, nil))
	if err != nil {
		c.logger.Debug().Err(err).Msg("quote fallback")
		return fallbackQuoteFailed, err
	}
	text = strings.Trim(strings.TrimSpace(text), `"`)
	if text == "" {
		return fallbackQuoteEmpty, perrors.Malformed("quote: empty reply", nil)
	}
	return text, nil
}

// complete runs one provider call and folds failures into the error taxonomy.
func (c *Client) complete(ctx context.Context, kind Kind, req llm.CompletionRequest) (string, error) {
	if !c.Configured() {
		return "", perrors.ErrNotConfigured
	}
	logger := requestid.Logger(ctx, c.logger)
	resp, err := c.provider.Complete(ctx, req)
	if err != nil {
		logger.Error().Err(err).Str("kind", string(kind)).Msg("completion failed")
		switch {
		case errors.Is(err, perrors.ErrNotConfigured),
			errors.Is(err, perrors.ErrMalformedResponse),
			errors.Is(err, perrors.ErrServiceUnavailable):
			return "", fmt.Errorf("%s: %w", kind, err)
		}
		return "", perrors.Unavailable(fmt.Errorf("%s: %w", kind, err))
	}
	logger.Debug().
		Str("kind", string(kind)).
		Int("input_tokens", resp.InputTokens).
		Int("output_tokens", resp.OutputTokens).
		Msg("completion finished")
	return resp.Text, nil
}

func clip(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
