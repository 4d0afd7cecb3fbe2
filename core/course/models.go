package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dhamira/core"
)

type Course struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name      string     `json:"name" validate:"required"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	if nc.StartDate != nil && nc.EndDate != nil && nc.EndDate.Before(*nc.StartDate) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "end date cannot precede start date"})
	}
	return nil
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if err := validate.Struct(uc); err != nil {
		return err
	}
	start := orig.StartDate
	if uc.StartDate != nil {
		start = uc.StartDate
	}
	end := orig.EndDate
	if uc.EndDate != nil {
		end = uc.EndDate
	}
	if start != nil && end != nil && end.Before(*start) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "end date cannot precede start date"})
	}
	return nil
}

// LinkGroup links a group to a course.
type LinkGroup struct {
	GroupID string `json:"group_id" validate:"required,uuid4_"`
}

func (lg LinkGroup) Validate(validate *validator.Validate) error {
	return validate.Struct(lg)
}
