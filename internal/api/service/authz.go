package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
)

// RoleNameOf resolves the caller's role name
func (s *JobService) RoleNameOf(ctx context.Context, userID string) (string, error) {
	return s.store.RoleNameOf(ctx, userID)
}

// Authorize fails with ErrForbidden unless the user's role is in allowed. An
// empty allow-list only requires an authenticated caller.
func (s *JobService) Authorize(ctx context.Context, userID string, allowed ...string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if len(allowed) == 0 {
		return nil
	}

	role, err := s.RoleNameOf(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrForbidden
		}
		return err
	}

	if !slices.Contains(allowed, role) {
		s.logger.Warn("Role not allowed",
			slog.String("user_id", userID),
			slog.String("role", role),
		)
		return domain.ErrForbidden
	}

	return nil
}
