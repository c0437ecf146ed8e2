package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
	"github.com/p-blackswan/taskflow/internal/task"
)

// decodeStrict unmarshals exactly one JSON value from text.
func decodeStrict(what, text string, v any) error {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(text)))
	if err := dec.Decode(v); err != nil {
		return perrors.Malformed(what, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return perrors.Malformed(what, errors.New("trailing data after JSON value"))
	}
	return nil
}

// maxDueOffsetDays bounds dueDateOffsetDays to ten years out.
const maxDueOffsetDays = 3650

type wireDraft struct {
	Title             *string  `json:"title"`
	Description       string   `json:"description"`
	Priority          string   `json:"priority"`
	StoryPoints       *float64 `json:"storyPoints"`
	Tags              []string `json:"tags"`
	DueDateOffsetDays *float64 `json:"dueDateOffsetDays"`
}

type wirePlan struct {
	Summary *string      `json:"summary"`
	Tasks   *[]wireDraft `json:"tasks"`
}

func decodePlan(text string) (PlanDraft, error) {
	var w wirePlan
	if err := decodeStrict("plan", text, &w); err != nil {
		return PlanDraft{}, err
	}
	if w.Tasks == nil {
		return PlanDraft{}, perrors.Malformed("plan: missing tasks", nil)
	}
	plan := PlanDraft{Tasks: make([]TaskDraft, 0, len(*w.Tasks))}
	if w.Summary != nil {
		plan.Summary = strings.TrimSpace(*w.Summary)
	}
	for i, d := range *w.Tasks {
		draft, err := d.toDraft()
		if err != nil {
			return PlanDraft{}, perrors.Malformed("plan task "+strconv.Itoa(i), err)
		}
		plan.Tasks = append(plan.Tasks, draft)
	}
	return plan, nil
}

func (d wireDraft) toDraft() (TaskDraft, error) {
	if d.Title == nil || strings.TrimSpace(*d.Title) == "" {
		return TaskDraft{}, errors.New("missing title")
	}
	out := TaskDraft{
		Title:       strings.TrimSpace(*d.Title),
		Description: strings.TrimSpace(d.Description),
		Priority:    task.PriorityMedium,
		Tags:        task.NormalizeTags(d.Tags),
	}
	if d.Priority != "" {
		p, err := task.ParsePriority(d.Priority)
		if err != nil {
			return TaskDraft{}, err
		}
		out.Priority = p
	}
	if d.StoryPoints != nil {
		if *d.StoryPoints < 0 {
			return TaskDraft{}, errors.New("negative story points")
		}
		sp := *d.StoryPoints
		out.StoryPoints = &sp
	}
	if d.DueDateOffsetDays != nil {
		off := *d.DueDateOffsetDays
		if off < 0 || off != math.Trunc(off) {
			return TaskDraft{}, errors.New("dueDateOffsetDays must be a non-negative whole number")
		}
		if off > maxDueOffsetDays {
			return TaskDraft{}, fmt.Errorf("dueDateOffsetDays exceeds %d", maxDueOffsetDays)
		}
		n := int(off)
		out.DueDateOffsetDays = &n
	}
	return out, nil
}

func decodeSubtasks(text string) ([]string, error) {
	var items []struct {
		Title *string `json:"title"`
	}
	if err := decodeStrict("subtasks", text, &items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, perrors.Malformed("subtasks: expected an array", nil)
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		if it.Title == nil || strings.TrimSpace(*it.Title) == "" {
			return nil, perrors.Malformed("subtask "+strconv.Itoa(i)+": missing title", nil)
		}
		out = append(out, strings.TrimSpace(*it.Title))
	}
	return out, nil
}

func decodeRisk(text string) (RiskAssessment, error) {
	var w struct {
		RiskScore   *float64 `json:"riskScore"`
		Analysis    *string  `json:"analysis"`
		Suggestions []string `json:"suggestions"`
	}
	if err := decodeStrict("risk", text, &w); err != nil {
		return RiskAssessment{}, err
	}
	if w.RiskScore == nil {
		return RiskAssessment{}, perrors.Malformed("risk: missing riskScore", nil)
	}
	if *w.RiskScore < 0 || *w.RiskScore > 100 {
		return RiskAssessment{}, perrors.Malformed("risk: riskScore outside 0-100", nil)
	}
	if w.Analysis == nil {
		return RiskAssessment{}, perrors.Malformed("risk: missing analysis", nil)
	}
	ra := RiskAssessment{
		Score:       int(math.Round(*w.RiskScore)),
		Analysis:    strings.TrimSpace(*w.Analysis),
		Suggestions: []string{},
	}
	for _, s := range w.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			ra.Suggestions = append(ra.Suggestions, s)
		}
	}
	return ra, nil
}

func decodeStringList(what, text string) ([]string, error) {
	var items []string
	if err := decodeStrict(what, text, &items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, perrors.Malformed(what+": expected an array", nil)
	}
	out := task.NormalizeTags(items)
	if out == nil {
		out = []string{}
	}
	return out, nil
}
