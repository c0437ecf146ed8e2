package planner

import (
	"fmt"
	"strings"

	"github.com/p-blackswan/taskflow/internal/llm"
	"github.com/p-blackswan/taskflow/internal/task"
)

const (
	planSystemPrompt = "You are a pragmatic project manager who prefers Agile methodologies."

	planPrompt = `You are an expert Senior Technical Project Manager.
Break down the following project goal into actionable, concrete tasks.
Goal: %q

Ensure tasks are granular, realistic, and cover the full lifecycle (Planning -> Dev -> QA -> Launch).`

	subtasksPrompt = `I have a task: %q.
Description: %q.

Please break this down into 3-5 actionable subtasks.
Keep titles concise (under 10 words).`

	riskPrompt = `Analyze the following project state for risks, bottlenecks, and scope creep.

Tasks:
%s`

	quotePrompt = "Give me a short, unique, inspiring productivity quote. Max 15 words. Just the text."

	optimizePrompt = `You are an expert resume writer and ATS optimization specialist.
Rewrite the following %s to be more professional, impactful, and concise.
Use strong action verbs. Quantify results where possible.
Do not add made-up facts. Keep the same meaning but improve clarity and impact.
Return ONLY the rewritten text, no explanations.

Original text:
%q`

	skillsPrompt = `You are an ATS algorithms expert.
Based on the following Job Description and the candidate's Current Skills,
identify the top 5 missing technical or soft skills that are critical for this role.
Return the result as a JSON array of strings ONLY.

Job Description:
%s

Current Skills:
%s`

	summaryPrompt = `Write a professional 3-sentence resume summary based on the following experience highlights.
Focus on key achievements and years of experience.

Experience:
%s`
)

const (
	fallbackQuoteUnconfigured = "Focus on being productive instead of busy."
	fallbackQuoteFailed       = "Action is the foundational key to all success."
	fallbackQuoteEmpty        = "Make today count."
)

// Input limits applied before prompting.
const (
	maxJobDescription = 1000
	maxExperience     = 1500
)

func priorityEnum() []string {
	out := make([]string, len(task.Priorities))
	for i, p := range task.Priorities {
		out[i] = strings.ToUpper(string(p))
	}
	return out
}

func planSchema() *llm.Schema {
	draft := llm.Object(map[string]*llm.Schema{
		"title":             llm.String(),
		"description":       llm.String(),
		"priority":          llm.Enum(priorityEnum()...),
		"storyPoints":       llm.Number(),
		"tags":              llm.ArrayOf(llm.String()),
		"dueDateOffsetDays": llm.Number().Describe("Number of days from now due"),
	}, "title", "description", "priority", "storyPoints", "tags")
	return llm.Object(map[string]*llm.Schema{
		"tasks":   llm.ArrayOf(draft),
		"summary": llm.String().Describe("Brief summary of the generated plan"),
	}, "tasks", "summary")
}

func subtasksSchema() *llm.Schema {
	return llm.ArrayOf(llm.Object(map[string]*llm.Schema{"title": llm.String()}, "title"))
}

func riskSchema() *llm.Schema {
	return llm.Object(map[string]*llm.Schema{
		"riskScore":   llm.Number().Describe("0 to 100 where 100 is high risk"),
		"analysis":    llm.String(),
		"suggestions": llm.ArrayOf(llm.String()),
	}, "riskScore", "analysis", "suggestions")
}

func skillsSchema() *llm.Schema { return llm.ArrayOf(llm.String()) }

// summarizeBoard renders one line per task for the risk prompt.
func summarizeBoard(tasks []task.Task) string {
	if len(tasks) == 0 {
		return "(no tasks)"
	}
	var b strings.Builder
	for i, t := range tasks {
		if i > 0 {
			b.WriteByte('\n')
		}
		pts := "n/a"
		if t.StoryPoints != nil {
			pts = fmt.Sprintf("%g", *t.StoryPoints)
		}
		fmt.Fprintf(&b, "- [%s] %s (Pri: %s, Pts: %s)", t.Status, t.Title, t.Priority, pts)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
