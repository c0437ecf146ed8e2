package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
)

func anthropicServer(t *testing.T, status int, body string, seen *anthropicRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		if seen != nil {
			raw, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.NoError(t, json.Unmarshal(raw, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnthropic_PlainText(t *testing.T) {
	var seen anthropicRequest
	srv := anthropicServer(t, http.StatusOK,
		`{"content":[{"type":"text","text":"Make today count."}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`, &seen)

	p := NewAnthropicProvider("test-key", WithBaseURL(srv.URL))
	resp, err := p.Complete(context.Background(), UserPrompt("be brief", "quote please", nil))
	require.NoError(t, err)

	assert.Equal(t, "Make today count.", resp.Text)
	assert.Equal(t, StopReasonEndTurn, resp.StopReason)
	assert.Equal(t, 3, resp.InputTokens)
	assert.Equal(t, "be brief", seen.System)
	assert.Empty(t, seen.Tools)
	assert.Nil(t, seen.ToolChoice)
	assert.Equal(t, defaultAnthropicModel, seen.Model)
}

func TestAnthropic_SchemaForcesTool(t *testing.T) {
	var seen anthropicRequest
	srv := anthropicServer(t, http.StatusOK,
		`{"content":[{"type":"tool_use","id":"tu_1","name":"plan","input":{"summary":"ok","tasks":[]}}],"stop_reason":"tool_use"}`, &seen)

	schema := Object(map[string]*Schema{"summary": String()}, "summary")
	req := UserPrompt("", "plan it", schema)
	req.SchemaName = "plan"

	p := NewAnthropicProvider("test-key", WithBaseURL(srv.URL), WithModel("claude-test"))
	resp, err := p.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.JSONEq(t, `{"summary":"ok","tasks":[]}`, resp.Text)
	require.Len(t, seen.Tools, 1)
	assert.Equal(t, "plan", seen.Tools[0].Name)
	assert.JSONEq(t, `{"type":"object","properties":{"summary":{"type":"string"}},"required":["summary"]}`, string(seen.Tools[0].InputSchema))
	require.NotNil(t, seen.ToolChoice)
	assert.Equal(t, "tool", seen.ToolChoice.Type)
	assert.Equal(t, "claude-test", seen.Model)
}

func TestAnthropic_ArraySchemaIsWrapped(t *testing.T) {
	var seen anthropicRequest
	srv := anthropicServer(t, http.StatusOK,
		`{"content":[{"type":"tool_use","name":"respond","input":{"result":[{"title":"a"},{"title":"b"}]}}]}`, &seen)

	p := NewAnthropicProvider("test-key", WithBaseURL(srv.URL))
	resp, err := p.Complete(context.Background(), UserPrompt("", "split", ArrayOf(Object(map[string]*Schema{"title": String()}, "title"))))
	require.NoError(t, err)

	assert.JSONEq(t, `[{"title":"a"},{"title":"b"}]`, resp.Text)
	require.Len(t, seen.Tools, 1)
	assert.Contains(t, string(seen.Tools[0].InputSchema), `"result"`)
}

func TestAnthropic_SchemaWithoutToolUseIsMalformed(t *testing.T) {
	srv := anthropicServer(t, http.StatusOK, `{"content":[{"type":"text","text":"sorry"}]}`, nil)
	p := NewAnthropicProvider("test-key", WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), UserPrompt("", "x", Object(nil)))
	assert.ErrorIs(t, err, perrors.ErrMalformedResponse)
}

func TestAnthropic_Non2xxIsAPIError(t *testing.T) {
	srv := anthropicServer(t, http.StatusTooManyRequests,
		`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, nil)
	p := NewAnthropicProvider("test-key", WithBaseURL(srv.URL))

	_, err := p.Complete(context.Background(), UserPrompt("", "x", nil))
	require.Error(t, err)

	var apiErr *perrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "slow down")
	assert.ErrorIs(t, err, perrors.ErrServiceUnavailable)
}

func TestAnthropic_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewAnthropicProvider("test-key", WithBaseURL(url))
	_, err := p.Complete(context.Background(), UserPrompt("", "x", nil))
	assert.ErrorIs(t, err, perrors.ErrServiceUnavailable)
}

func TestAnthropic_NoKeyIsNotConfigured(t *testing.T) {
	p := NewAnthropicProvider("")
	_, err := p.Complete(context.Background(), UserPrompt("", "x", nil))
	assert.ErrorIs(t, err, perrors.ErrNotConfigured)
}
