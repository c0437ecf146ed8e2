package planner

import (
	"context"
	"fmt"
	"strings"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
	"github.com/p-blackswan/taskflow/internal/llm"
)

// DefaultOptimizeContext describes the text when the caller gives no context.
const DefaultOptimizeContext = "resume bullet point"

// OptimizeText rewrites text to read more professionally. kind describes the
// text, e.g. "summary". An empty reply keeps the original.
func (c *Client) OptimizeText(ctx context.Context, text, kind string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", perrors.Validation("text is required")
	}
	if strings.TrimSpace(kind) == "" {
		kind = DefaultOptimizeContext
	}
	out, err := c.complete(ctx, KindOptimize, llm.UserPrompt("", fmt.Sprintf(optimizePrompt, kind, text), nil))
	if err != nil {
		return "", err
	}
	if out = strings.TrimSpace(out); out == "" {
		return text, nil
	}
	return out, nil
}

// SuggestSkills lists skills the job description asks for that the
// candidate does not list yet.
func (c *Client) SuggestSkills(ctx context.Context, jobDescription string, currentSkills []string) ([]string, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, perrors.Validation("job description is required")
	}
	prompt := fmt.Sprintf(skillsPrompt, truncate(jobDescription, maxJobDescription), strings.Join(currentSkills, ", "))
	req := llm.UserPrompt("", prompt, skillsSchema())
	req.SchemaName = "skills"

	text, err := c.complete(ctx, KindSkills, req)
	if err != nil {
		return nil, err
	}
	skills, err := decodeStringList("skills", text)
	if err != nil {
		c.logger.Warn().Err(err).Str("text", clip(text)).Msg("skills reply rejected")
		return nil, err
	}
	return skills, nil
}

// GenerateSummary drafts a short profile summary from experience highlights.
func (c *Client) GenerateSummary(ctx context.Context, experience string) (string, error) {
	if strings.TrimSpace(experience) == "" {
		return "", perrors.Validation("experience is required")
	}
	out, err := c.complete(ctx, KindSummary, llm.UserPrompt("", fmt.Sprintf(summaryPrompt, truncate(experience, maxExperience)), nil))
	if err != nil {
		return "", err
	}
	if out = strings.TrimSpace(out); out == "" {
		return "", perrors.Malformed("summary: empty reply", nil)
	}
	return out, nil
}
