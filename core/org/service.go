package org

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/dhamira/core"
)

var (
	// errors
	ErrNotFound   = errors.New("organization not found")
	ErrNameExists = errors.New("an organization with this name already exists")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string) error
		CreateOrganization(ctx context.Context, o Organization) (Organization, error)
		GetOrganizationByID(ctx context.Context, id string) (Organization, error)
		QueryAllOrganizations(ctx context.Context) ([]Organization, error)
		// QueryUserOrganizations returns the Organizations each given user is affiliated to,
		// keyed by user ID.
		QueryUserOrganizations(ctx context.Context, userIDs ...string) (map[string][]Organization, error)
		UpdateOrganization(ctx context.Context, o Organization) (Organization, error)
		DeleteOrganizationsByID(ctx context.Context, ids ...string) error
		AddMember(ctx context.Context, orgID, userID string) error
		RemoveMember(ctx context.Context, orgID, userID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckNameUniqueness(ctx context.Context, name string) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, no NewOrganization) (Organization, error) {
	now := time.Now().UTC()
	o := Organization{
		Name:        no.Name,
		Description: no.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateOrganization(ctx, o)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Organization, error) {
	return svc.repo.QueryAllOrganizations(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Organization, error) {
	return svc.repo.GetOrganizationByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uo UpdateOrganization) (Organization, error) {
	o := Organization{
		ID:          id,
		Name:        uo.Name,
		Description: uo.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateOrganization(ctx, o)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteOrganizationsByID(ctx, ids...)
}

func (svc *Service) AddMember(ctx context.Context, orgID, userID string) error {
	return svc.repo.AddMember(ctx, orgID, userID)
}

func (svc *Service) RemoveMember(ctx context.Context, orgID, userID string) error {
	return svc.repo.RemoveMember(ctx, orgID, userID)
}
