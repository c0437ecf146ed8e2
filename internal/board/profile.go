package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
	"github.com/p-blackswan/taskflow/internal/planner"
	"github.com/p-blackswan/taskflow/internal/profile"
)

// Profile returns the current profile document.
func (s *Service) Profile() profile.Profile { return s.doc.Profile() }

// EditProfile runs fn against the profile and persists the result when fn
// succeeds.
func (s *Service) EditProfile(ctx context.Context, op string, fn func(d *profile.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn(s.doc)
	if s.metrics != nil {
		s.metrics.RecordMutation("profile_"+op, err)
	}
	if err != nil {
		return err
	}
	if err := s.adapter.SaveProfile(ctx, s.doc.Profile()); err != nil {
		s.logger.Error().Err(err).Str("op", op).Msg("profile write-through failed")
		if s.metrics != nil {
			s.metrics.RecordPersistError()
		}
		return err
	}
	return nil
}

// OptimizeText rewrites a profile snippet.
func (s *Service) OptimizeText(ctx context.Context, text, kind string) (string, error) {
	start := time.Now()
	out, err := s.planner.OptimizeText(ctx, text, kind)
	s.observe(planner.KindOptimize, start, err)
	return out, err
}

// SuggestSkills proposes skills missing from the profile for a job.
func (s *Service) SuggestSkills(ctx context.Context, jobDescription string) ([]string, error) {
	start := time.Now()
	out, err := s.planner.SuggestSkills(ctx, jobDescription, s.doc.Profile().SkillNames())
	s.observe(planner.KindSkills, start, err)
	return out, err
}

// GenerateSummary drafts a summary from the experience entries. The profile
// is not changed.
func (s *Service) GenerateSummary(ctx context.Context) (string, error) {
	highlights := experienceHighlights(s.doc.Profile())
	if highlights == "" {
		return "", perrors.Validation("profile has no experience entries")
	}
	start := time.Now()
	out, err := s.planner.GenerateSummary(ctx, highlights)
	s.observe(planner.KindSummary, start, err)
	return out, err
}

func experienceHighlights(p profile.Profile) string {
	var b strings.Builder
	for _, e := range p.Experience {
		end := e.EndDate
		if e.Current {
			end = "present"
		}
		fmt.Fprintf(&b, "%s at %s (%s - %s)\n", e.Role, e.Company, e.StartDate, end)
		if d := strings.TrimSpace(e.Description); d != "" {
			b.WriteString(d)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String())
}
