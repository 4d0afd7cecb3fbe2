package group

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/dhamira/core"
)

var (
	// errors
	ErrNotFound     = errors.New("group not found")
	ErrMemberExists = errors.New("user is already a member of this group")
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, g Group) (Group, error)
		GetGroupByID(ctx context.Context, id string) (Group, error)
		// FilterGroups applies AND operation on available QueryFilter fields.
		FilterGroups(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Group, error)
		UpdateGroup(ctx context.Context, g Group) (Group, error)
		DeleteGroupsByID(ctx context.Context, ids ...string) error

		CreateMembership(ctx context.Context, m Membership) (Membership, error)
		QueryGroupMemberships(ctx context.Context, groupID string) ([]Membership, error)
		QueryUserMemberships(ctx context.Context, userID string) ([]Membership, error)
		UpdateMembership(ctx context.Context, m Membership) (Membership, error)
		DeleteMembership(ctx context.Context, groupID, userID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	now := time.Now().UTC()
	g := Group{
		Name:      ng.Name,
		IsVisible: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ng.IsVisible != nil {
		g.IsVisible = *ng.IsVisible
	}
	return svc.repo.CreateGroup(ctx, g)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Group, error) {
	return svc.repo.FilterGroups(ctx, filter, ordering...)
}

func (svc *Service) Update(ctx context.Context, id string, ug UpdateGroup) (Group, error) {
	g, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}
	g.Name = ug.Name
	if ug.IsVisible != nil {
		g.IsVisible = *ug.IsVisible
	}
	g.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGroup(ctx, g)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteGroupsByID(ctx, ids...)
}

// Memberships

func (svc *Service) AddMember(ctx context.Context, groupID string, nm NewMembership) (Membership, error) {
	if _, err := svc.repo.GetGroupByID(ctx, groupID); err != nil {
		return Membership{}, err
	}

	now := time.Now().UTC()
	m := Membership{
		GroupID:   groupID,
		UserID:    nm.UserID,
		Role:      nm.Role,
		StartDate: nm.StartDate,
		EndDate:   nm.EndDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m, err := svc.repo.CreateMembership(ctx, m)
	if err != nil {
		if errors.Cause(err) == ErrMemberExists {
			return Membership{}, core.NewValidationError(err, core.FieldError{Field: "user_id", Error: err.Error()})
		}
		return Membership{}, err
	}
	return m, nil
}

func (svc *Service) QueryMembers(ctx context.Context, groupID string) ([]Membership, error) {
	if _, err := svc.repo.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	return svc.repo.QueryGroupMemberships(ctx, groupID)
}

func (svc *Service) QueryUserMemberships(ctx context.Context, userID string) ([]Membership, error) {
	return svc.repo.QueryUserMemberships(ctx, userID)
}

func (svc *Service) UpdateMember(ctx context.Context, groupID, userID string, um UpdateMembership) (Membership, error) {
	mbs, err := svc.repo.QueryGroupMemberships(ctx, groupID)
	if err != nil {
		return Membership{}, err
	}
	for _, m := range mbs {
		if m.UserID == userID {
			if um.Role != "" {
				m.Role = um.Role
			}
			if um.StartDate != nil {
				m.StartDate = um.StartDate
			}
			if um.EndDate != nil {
				m.EndDate = um.EndDate
			}
			m.UpdatedAt = time.Now().UTC()
			return svc.repo.UpdateMembership(ctx, m)
		}
	}
	return Membership{}, ErrNotFound
}

func (svc *Service) RemoveMember(ctx context.Context, groupID, userID string) error {
	return svc.repo.DeleteMembership(ctx, groupID, userID)
}
