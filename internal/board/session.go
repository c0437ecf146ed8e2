package board

import (
	"context"
	"net/mail"
	"strings"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
	"github.com/p-blackswan/taskflow/internal/persist"
)

// Login starts a mock session. There is no password; any well-formed email
// is accepted.
func (s *Service) Login(ctx context.Context, name, email string) (persist.Identity, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if email == "" {
		return persist.Identity{}, perrors.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return persist.Identity{}, perrors.Validation("invalid email %q", email)
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	id := persist.Identity{ID: s.newID(), Name: name, Email: email}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.adapter.SaveIdentity(ctx, id); err != nil {
		return persist.Identity{}, err
	}
	s.identity = &id
	s.logger.Info().Str("user", id.Email).Msg("session started")
	return id, nil
}

// Logout ends the session. The board itself is kept.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.adapter.ClearIdentity(ctx); err != nil {
		return err
	}
	s.identity = nil
	return nil
}

// CurrentUser returns the session identity, or nil when logged out.
func (s *Service) CurrentUser() *persist.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}
