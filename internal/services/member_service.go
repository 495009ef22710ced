package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"quadra/internal/core"
	"quadra/internal/storage"
)

// MemberService exposes the roster and role management.
type MemberService struct {
	storage *storage.SQLiteRepository
}

func NewMemberService(storage *storage.SQLiteRepository) *MemberService {
	return &MemberService{storage: storage}
}

// Roster lists every member, sorted by name.
func (s *MemberService) Roster(ctx context.Context, actor core.Member) ([]core.Member, error) {
	if actor.ID == "" {
		return nil, core.ErrUnauthenticated
	}
	return s.storage.ListMembers(ctx)
}

// PromoteToAdmin grants the admin role. Only an existing admin may promote.
func (s *MemberService) PromoteToAdmin(ctx context.Context, actor core.Member, memberID string) error {
	if actor.ID == "" {
		return core.ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("promote member %s: %w", memberID, core.ErrUnauthorized)
	}
	if err := s.storage.SetMemberRole(ctx, memberID, core.RoleAdmin); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Member promoted to admin",
		"member_id", memberID, "promoted_by", actor.ID)
	return nil
}

// BootstrapAdmin grants the admin role to the member with the given email
// without requiring an acting admin. It backs the one-off CLI command that
// seeds the first admin of a fresh deployment.
func (s *MemberService) BootstrapAdmin(ctx context.Context, email string) (core.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	m, _, err := s.storage.GetMemberByEmail(ctx, email)
	if err != nil {
		return core.Member{}, err
	}
	if err := s.storage.SetMemberRole(ctx, m.ID, core.RoleAdmin); err != nil {
		return core.Member{}, err
	}
	m.Role = core.RoleAdmin
	slog.InfoContext(ctx, "Bootstrap admin granted", "member_id", m.ID, "email", email)
	return m, nil
}
