package group

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dhamira/core"
)

// Membership roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsVisible bool      `json:"is_visible"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Membership pairs a user and a group. A user may belong to
// multiple groups; at most one Membership per (group, user) pair.
type Membership struct {
	ID        string     `json:"id"`
	GroupID   string     `json:"group_id"`
	UserID    string     `json:"user_id"`
	Role      string     `json:"role"` // member | admin
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at"` // UTC
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name      string `json:"name" validate:"required"`
	IsVisible *bool  `json:"is_visible"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	return validate.Struct(ng)
}

// UpdateGroup defines what information may be provided to modify an existing Group.
type UpdateGroup struct {
	Name      string `json:"name"`
	IsVisible *bool  `json:"is_visible"`
}

func (ug *UpdateGroup) Validate(orig Group, validate *validator.Validate) error {
	if name := core.CleanString(ug.Name); name != "" {
		ug.Name = name
	} else {
		ug.Name = orig.Name
	}
	return validate.Struct(ug)
}

// NewMembership adds a user to a group.
type NewMembership struct {
	UserID    string     `json:"user_id" validate:"required,uuid4_"`
	Role      string     `json:"role" validate:"omitempty,oneof=member admin"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (nm *NewMembership) Validate(validate *validator.Validate) error {
	if nm.Role == "" {
		nm.Role = RoleMember
	}
	if err := validate.Struct(nm); err != nil {
		return err
	}
	if nm.StartDate != nil && nm.EndDate != nil && nm.EndDate.Before(*nm.StartDate) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "end date cannot precede start date"})
	}
	return nil
}

// UpdateMembership changes a member's role or dates.
type UpdateMembership struct {
	Role      string     `json:"role" validate:"omitempty,oneof=member admin"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (um *UpdateMembership) Validate(validate *validator.Validate) error {
	if err := validate.Struct(um); err != nil {
		return err
	}
	if um.StartDate != nil && um.EndDate != nil && um.EndDate.Before(*um.StartDate) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "end date cannot precede start date"})
	}
	return nil
}

type QueryFilter struct {
	Search    string `query:"search"`
	IsVisible *bool  `query:"is_visible"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.IsVisible == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
