package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
	"github.com/p-blackswan/taskflow/internal/llm"
	"github.com/p-blackswan/taskflow/internal/task"
)

// stubProvider returns a canned reply and records the last request.
type stubProvider struct {
	text  string
	err   error
	calls int
	last  llm.CompletionRequest
}

func (s *stubProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Text: s.text}, nil
}

func (s *stubProvider) ModelID() string { return "stub" }
func (s *stubProvider) Name() string    { return "stub" }

func newClient(text string) (*Client, *stubProvider) {
	sp := &stubProvider{text: text}
	return New(sp, zerolog.Nop()), sp
}

func TestRequestPlan_SingleDraft(t *testing.T) {
	c, sp := newClient(`{"summary":"...", "tasks":[{"title":"Design UI","priority":"HIGH","storyPoints":3,"tags":["UI"]}]}`)

	plan, err := c.RequestPlan(context.Background(), "build a login page")
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)

	d := plan.Tasks[0]
	assert.Equal(t, "Design UI", d.Title)
	assert.Equal(t, task.PriorityHigh, d.Priority)
	require.NotNil(t, d.StoryPoints)
	assert.Equal(t, 3.0, *d.StoryPoints)
	assert.Equal(t, []string{"UI"}, d.Tags)
	assert.Nil(t, d.DueDateOffsetDays)
	assert.Equal(t, "...", plan.Summary)

	require.Len(t, sp.last.Messages, 1)
	assert.Contains(t, sp.last.Messages[0].Content, "build a login page")
	require.NotNil(t, sp.last.Schema)
	assert.Equal(t, []string{"tasks", "summary"}, sp.last.Schema.Required)
	assert.Equal(t, []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}, sp.last.Schema.Properties["tasks"].Items.Properties["priority"].Enum)
}

func TestRequestPlan_DueOffsetAndDefaults(t *testing.T) {
	c, _ := newClient(`{"summary":"s","tasks":[{"title":" QA ","description":" test it ","dueDateOffsetDays":5},{"title":"Launch","priority":"low"}]}`)

	plan, err := c.RequestPlan(context.Background(), "ship")
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 2)
	assert.Equal(t, "QA", plan.Tasks[0].Title)
	assert.Equal(t, "test it", plan.Tasks[0].Description)
	assert.Equal(t, task.PriorityMedium, plan.Tasks[0].Priority)
	require.NotNil(t, plan.Tasks[0].DueDateOffsetDays)
	assert.Equal(t, 5, *plan.Tasks[0].DueDateOffsetDays)
	assert.Equal(t, task.PriorityLow, plan.Tasks[1].Priority)
}

func TestRequestPlan_Malformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":      `{"summary": "oops", "tasks": [`,
		"not json":          `Sure! Here is your plan.`,
		"trailing garbage":  `{"summary":"s","tasks":[]} and more`,
		"two values":        `{"summary":"s","tasks":[]}{}`,
		"missing tasks":     `{"summary":"s"}`,
		"tasks wrong type":  `{"summary":"s","tasks":"many"}`,
		"missing title":     `{"summary":"s","tasks":[{"priority":"HIGH"}]}`,
		"blank title":       `{"summary":"s","tasks":[{"title":"  "}]}`,
		"unknown priority":  `{"summary":"s","tasks":[{"title":"a","priority":"URGENT"}]}`,
		"negative points":   `{"summary":"s","tasks":[{"title":"a","storyPoints":-1}]}`,
		"points as string":  `{"summary":"s","tasks":[{"title":"a","storyPoints":"3"}]}`,
		"fractional offset": `{"summary":"s","tasks":[{"title":"a","dueDateOffsetDays":1.5}]}`,
		"huge offset":       `{"summary":"s","tasks":[{"title":"a","dueDateOffsetDays":1e20}]}`,
		"offset past cap":   `{"summary":"s","tasks":[{"title":"a","dueDateOffsetDays":3651}]}`,
		"null":              `null`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newClient(reply)
			_, err := c.RequestPlan(context.Background(), "goal")
			assert.ErrorIs(t, err, perrors.ErrMalformedResponse)
		})
	}
}

func TestRequestPlan_EmptyGoal(t *testing.T) {
	c, sp := newClient(`{}`)
	_, err := c.RequestPlan(context.Background(), "   ")
	assert.ErrorIs(t, err, perrors.ErrValidation)
	assert.Zero(t, sp.calls)
}

func TestNotConfigured_FailsBeforeCall(t *testing.T) {
	c := New(llm.Unconfigured{Backend: "gemini"}, zerolog.Nop())
	assert.False(t, c.Configured())

	_, err := c.RequestPlan(context.Background(), "goal")
	assert.ErrorIs(t, err, perrors.ErrNotConfigured)
	_, err = c.RequestSubtasks(context.Background(), "t", "")
	assert.ErrorIs(t, err, perrors.ErrNotConfigured)
	_, err = c.RequestRiskAssessment(context.Background(), nil)
	assert.ErrorIs(t, err, perrors.ErrNotConfigured)
	_, err = c.OptimizeText(context.Background(), "text", "")
	assert.ErrorIs(t, err, perrors.ErrNotConfigured)

	q, err := c.DailyQuote(context.Background())
	assert.Equal(t, fallbackQuoteUnconfigured, q)
	assert.ErrorIs(t, err, perrors.ErrNotConfigured)
}

func TestNilProvider_IsNotConfigured(t *testing.T) {
	c := New(nil, zerolog.Nop())
	_, err := c.RequestPlan(context.Background(), "goal")
	assert.ErrorIs(t, err, perrors.ErrNotConfigured)
}

func TestTransportFailure_IsUnavailable(t *testing.T) {
	c, sp := newClient("")
	sp.err = errors.New("connection reset")

	_, err := c.RequestPlan(context.Background(), "goal")
	assert.ErrorIs(t, err, perrors.ErrServiceUnavailable)
	assert.Equal(t, 1, sp.calls, "no retries")
}

func TestContextCancel_IsUnavailable(t *testing.T) {
	c, sp := newClient("")
	sp.err = context.Canceled

	_, err := c.RequestSubtasks(context.Background(), "t", "d")
	assert.ErrorIs(t, err, perrors.ErrServiceUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProviderAPIError_PassesThrough(t *testing.T) {
	c, sp := newClient("")
	sp.err = perrors.NewAPIError("gemini", 500, "boom")

	_, err := c.RequestRiskAssessment(context.Background(), nil)
	var apiErr *perrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.ErrorIs(t, err, perrors.ErrServiceUnavailable)
}

func TestRequestSubtasks(t *testing.T) {
	c, sp := newClient(`[{"title":"Write schema"},{"title":" Build form "},{"title":"Add tests"}]`)
	titles, err := c.RequestSubtasks(context.Background(), "Login page", "email + password")
	require.NoError(t, err)
	assert.Equal(t, []string{"Write schema", "Build form", "Add tests"}, titles)
	assert.Contains(t, sp.last.Messages[0].Content, "Login page")
	assert.Equal(t, llm.TypeArray, sp.last.Schema.Type)

	c, _ = newClient(`[{"title":""}]`)
	_, err = c.RequestSubtasks(context.Background(), "x", "")
	assert.ErrorIs(t, err, perrors.ErrMalformedResponse)

	c, _ = newClient(`{"title":"x"}`)
	_, err = c.RequestSubtasks(context.Background(), "x", "")
	assert.ErrorIs(t, err, perrors.ErrMalformedResponse)
}

func TestRequestRiskAssessment(t *testing.T) {
	pts := 5.0
	tasks := []task.Task{
		{Title: "API", Status: task.StatusInProgress, Priority: task.PriorityHigh, StoryPoints: &pts},
		{Title: "Docs", Status: task.StatusTodo, Priority: task.PriorityLow},
	}
	c, sp := newClient(`{"riskScore":72.4,"analysis":" Backend is a bottleneck. ","suggestions":["Split API",""]}`)

	ra, err := c.RequestRiskAssessment(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, 72, ra.Score)
	assert.Equal(t, "Backend is a bottleneck.", ra.Analysis)
	assert.Equal(t, []string{"Split API"}, ra.Suggestions)

	prompt := sp.last.Messages[0].Content
	assert.Contains(t, prompt, "- [in_progress] API (Pri: high, Pts: 5)")
	assert.Contains(t, prompt, "- [todo] Docs (Pri: low, Pts: n/a)")
}

func TestRequestRiskAssessment_Malformed(t *testing.T) {
	for name, reply := range map[string]string{
		"score above range": `{"riskScore":101,"analysis":"a","suggestions":[]}`,
		"score below range": `{"riskScore":-1,"analysis":"a","suggestions":[]}`,
		"missing score":     `{"analysis":"a","suggestions":[]}`,
		"missing analysis":  `{"riskScore":10,"suggestions":[]}`,
		"score as string":   `{"riskScore":"high","analysis":"a"}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, _ := newClient(reply)
			_, err := c.RequestRiskAssessment(context.Background(), nil)
			assert.ErrorIs(t, err, perrors.ErrMalformedResponse)
		})
	}
}

func TestDailyQuote(t *testing.T) {
	c, _ := newClient(`  "Ship small, ship often."  `)
	q, err := c.DailyQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ship small, ship often.", q)

	c, sp := newClient("")
	q, err = c.DailyQuote(context.Background())
	assert.Equal(t, fallbackQuoteEmpty, q)
	assert.ErrorIs(t, err, perrors.ErrMalformedResponse)

	sp.err = errors.New("down")
	q, err = c.DailyQuote(context.Background())
	assert.Equal(t, fallbackQuoteFailed, q)
	assert.ErrorIs(t, err, perrors.ErrServiceUnavailable)
}

func TestOptimizeText(t *testing.T) {
	c, sp := newClient(" Led a team of 5 engineers. ")
	out, err := c.OptimizeText(context.Background(), "managed people", "")
	require.NoError(t, err)
	assert.Equal(t, "Led a team of 5 engineers.", out)
	assert.Contains(t, sp.last.Messages[0].Content, DefaultOptimizeContext)

	c, _ = newClient("")
	out, err = c.OptimizeText(context.Background(), "keep me", "summary")
	require.NoError(t, err)
	assert.Equal(t, "keep me", out)

	_, err = c.OptimizeText(context.Background(), " ", "")
	assert.ErrorIs(t, err, perrors.ErrValidation)
}

func TestSuggestSkills(t *testing.T) {
	c, sp := newClient(`["Kubernetes","Go","kubernetes"," "]`)
	jd := strings.Repeat("x", maxJobDescription+50)
	skills, err := c.SuggestSkills(context.Background(), jd, []string{"SQL", "Python"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kubernetes", "Go"}, skills)

	prompt := sp.last.Messages[0].Content
	assert.Contains(t, prompt, "SQL, Python")
	assert.NotContains(t, prompt, strings.Repeat("x", maxJobDescription+1))

	c, _ = newClient(`{"skills":["Go"]}`)
	_, err = c.SuggestSkills(context.Background(), "jd", nil)
	assert.ErrorIs(t, err, perrors.ErrMalformedResponse)
}

func TestGenerateSummary(t *testing.T) {
	c, _ := newClient("Seasoned engineer.")
	out, err := c.GenerateSummary(context.Background(), "10 years of Go")
	require.NoError(t, err)
	assert.Equal(t, "Seasoned engineer.", out)

	c, _ = newClient("  ")
	_, err = c.GenerateSummary(context.Background(), "10 years of Go")
	assert.ErrorIs(t, err, perrors.ErrMalformedResponse)

	_, err = c.GenerateSummary(context.Background(), "")
	assert.ErrorIs(t, err, perrors.ErrValidation)
}
