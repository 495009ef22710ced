// Package identity implements email+password authentication over the
// members and sessions tables. It stands in for the managed identity
// provider the mobile client used: sign-up creates the auth record and the
// member document in one step, and the session token is the opaque handle
// the HTTP layer resolves back into a member.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quadra/internal/core"
	"quadra/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

var ErrWeakPassword = errors.New("password must be at least 6 characters")

type Service struct {
	storage *storage.SQLiteRepository
}

func NewService(storage *storage.SQLiteRepository) *Service {
	return &Service{storage: storage}
}

// SignUp registers a member and opens a session for them.
func (s *Service) SignUp(ctx context.Context, email, password, fullName, phone string) (core.Member, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < minPasswordLen {
		return core.Member{}, "", ErrWeakPassword
	}

	m := core.Member{FullName: strings.TrimSpace(fullName), Email: email, Phone: strings.TrimSpace(phone), Role: core.RoleUser}
	if err := m.Validate(); err != nil {
		return core.Member{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.Member{}, "", fmt.Errorf("hash password: %w", err)
	}

	m, err = s.storage.CreateMember(ctx, m, string(hash))
	if err != nil {
		return core.Member{}, "", err
	}

	token, err := s.openSession(ctx, m.ID)
	if err != nil {
		return core.Member{}, "", err
	}

	slog.InfoContext(ctx, "Member signed up", "member_id", m.ID)
	return m, token, nil
}

// SignIn verifies credentials and opens a session. Bad email and bad
// password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (core.Member, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	m, hash, err := s.storage.GetMemberByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return core.Member{}, "", fmt.Errorf("invalid credentials: %w", core.ErrUnauthenticated)
	}
	if err != nil {
		return core.Member{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return core.Member{}, "", fmt.Errorf("invalid credentials: %w", core.ErrUnauthenticated)
	}

	token, err := s.openSession(ctx, m.ID)
	if err != nil {
		return core.Member{}, "", err
	}

	slog.InfoContext(ctx, "Member signed in", "member_id", m.ID)
	return m, token, nil
}

// SignOut revokes the session token. Revoking an unknown token is a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.storage.DeleteSession(ctx, token)
}

// CurrentUser resolves a session token into the member it belongs to.
func (s *Service) CurrentUser(ctx context.Context, token string) (core.Member, error) {
	if token == "" {
		return core.Member{}, core.ErrUnauthenticated
	}
	return s.storage.GetSessionMember(ctx, token)
}

func (s *Service) openSession(ctx context.Context, memberID string) (string, error) {
	token := uuid.NewString()
	if err := s.storage.CreateSession(ctx, token, memberID); err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	return token, nil
}
