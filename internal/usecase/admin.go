package usecase

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"leadgen-agent/internal/domain"
)

// UserReader provides the account reads needed by the privileged listing.
type UserReader interface {
	GetUser(ctx context.Context, userID string) (domain.User, bool, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListFormsByOwner(ctx context.Context, ownerID string) ([]domain.Form, error)
}

// AdminService serves superadmin-only operations.
type AdminService struct {
	users UserReader
}

type ListUsersOutput struct {
	Users []domain.UserStats
}

func NewAdminService(users UserReader) (*AdminService, error) {
	if users == nil {
		return nil, errors.New("usecase: user reader must not be nil")
	}
	return &AdminService{users: users}, nil
}

// ListUsers returns every account joined with its form count and the lead
// count summed from each form's cached counter. Per-user form fetches run
// concurrently; if any fetch fails the whole listing fails.
//
// The caller must hold the superadmin role. Non-superadmins get a bare
// access-denied result with no detail about the required role.
func (s *AdminService) ListUsers(ctx context.Context, callerID string) (ListUsersOutput, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return ListUsersOutput{}, newError(ErrorNotAuthenticated, "missing_caller", nil)
	}
	caller, ok, err := s.users.GetUser(ctx, callerID)
	if err != nil {
		return ListUsersOutput{}, newError(ErrorInternal, "user_read_error", err)
	}
	if !ok {
		return ListUsersOutput{}, newError(ErrorNotAuthenticated, "unknown_caller", nil)
	}
	if caller.Role != domain.RoleSuperadmin {
		return ListUsersOutput{}, newError(ErrorAccessDenied, "access_denied", nil)
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return ListUsersOutput{}, newError(ErrorInternal, "user_list_error", err)
	}

	stats := make([]domain.UserStats, len(users))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range users {
		i, u := i, u // per-iteration copies; go directive predates Go 1.22 loop semantics
		g.Go(func() error {
			forms, err := s.users.ListFormsByOwner(gctx, u.ID)
			if err != nil {
				return err
			}
			leadCount := 0
			for _, f := range forms {
				leadCount += f.LeadCount
			}
			stats[i] = domain.UserStats{
				User:      u,
				FormCount: len(forms),
				LeadCount: leadCount,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ListUsersOutput{}, newError(ErrorInternal, "stats_fanout_error", err)
	}

	return ListUsersOutput{Users: stats}, nil
}
