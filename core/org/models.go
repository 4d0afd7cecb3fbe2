package org

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dhamira/core"
)

type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewOrganization contains information needed to create a new Organization.
type NewOrganization struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (no *NewOrganization) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	no.Name = core.CleanString(no.Name)
	no.Description = core.CleanString(no.Description)

	if err := validate.Struct(no); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ctx, no.Name)
}

// UpdateOrganization defines what information may be provided to modify an existing Organization.
type UpdateOrganization struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (uo *UpdateOrganization) Validate(ctx context.Context, orig Organization, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(uo.Name); name != "" {
		uo.Name = name
	} else {
		uo.Name = orig.Name
	}
	uo.Description = core.CleanString(uo.Description)

	if err := validate.Struct(uo); err != nil {
		return err
	}
	if uo.Name != orig.Name {
		return svc.CheckNameUniqueness(ctx, uo.Name)
	}
	return nil
}
