package mission

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dhamira/core"
	"github.com/trezcool/dhamira/core/group"
	"github.com/trezcool/dhamira/core/org"
	"github.com/trezcool/dhamira/core/user"
)

type Mission struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"course_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	OpenAt      *time.Time `json:"open_at,omitempty"`
	DueAt       time.Time  `json:"due_at"`
	IsPublic    bool       `json:"is_public"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at"` // UTC
}

// Open reports whether the mission accepts progress at time t.
func (m Mission) Open(t time.Time) bool {
	return m.OpenAt == nil || !t.Before(*m.OpenAt)
}

// Progress pairs a user and a mission; at most one record per (mission, user).
// CheckedAt is set when the mission is marked complete.
type Progress struct {
	ID        string     `json:"id"`
	MissionID string     `json:"mission_id"`
	UserID    string     `json:"user_id"`
	Completed bool       `json:"completed"`
	StartedAt time.Time  `json:"started_at"` // UTC
	CheckedAt *time.Time `json:"checked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at"` // UTC
}

// NewMission contains information needed to create a new Mission.
type NewMission struct {
	CourseID    string     `json:"course_id" validate:"required,uuid4_"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	OpenAt      *time.Time `json:"open_at"`
	DueAt       time.Time  `json:"due_at" validate:"required"`
	IsPublic    bool       `json:"is_public"`
}

func (nm *NewMission) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)

	if err := validate.Struct(nm); err != nil {
		return err
	}
	if nm.OpenAt != nil && nm.DueAt.Before(*nm.OpenAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "due_at", Error: "due date cannot precede open date"})
	}
	return nil
}

// UpdateMission defines what information may be provided to modify an existing Mission.
type UpdateMission struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	OpenAt      *time.Time `json:"open_at"`
	DueAt       *time.Time `json:"due_at"`
	IsPublic    *bool      `json:"is_public"`
}

func (um *UpdateMission) Validate(orig Mission, validate *validator.Validate) error {
	if title := core.CleanString(um.Title); title != "" {
		um.Title = title
	} else {
		um.Title = orig.Title
	}
	um.Description = core.CleanString(um.Description)

	if err := validate.Struct(um); err != nil {
		return err
	}

	openAt := orig.OpenAt
	if um.OpenAt != nil {
		openAt = um.OpenAt
	}
	dueAt := orig.DueAt
	if um.DueAt != nil {
		dueAt = *um.DueAt
	}
	if openAt != nil && dueAt.Before(*openAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "due_at", Error: "due date cannot precede open date"})
	}
	return nil
}

// Participation statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
)

type (
	// Participant is a distinct user eligible for a mission, derived
	// from group memberships; never persisted.
	Participant struct {
		ID          string           `json:"id"` // user ID
		MissionID   string           `json:"missionId"`
		ProgressID  *string          `json:"progressId"`
		Status      string           `json:"status"`
		StartedAt   *time.Time       `json:"startedAt"`
		CompletedAt *time.Time       `json:"completedAt"`
		User        ParticipantUser  `json:"user"`
		Group       ParticipantGroup `json:"group"`
		CreatedAt   time.Time        `json:"createdAt"`
		UpdatedAt   time.Time        `json:"updatedAt"`
		HasStarted  bool             `json:"hasStarted"`
	}

	ParticipantUser struct {
		ID            string             `json:"id"`
		Name          string             `json:"name"`
		Email         string             `json:"email"`
		ProfileImage  string             `json:"profileImage"`
		Position      string             `json:"position"`
		Organizations []org.Organization `json:"organizations"`
	}

	ParticipantGroup struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Pagination struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		Total      int `json:"total"`
		TotalPages int `json:"totalPages"`
	}

	// Stats buckets the entire eligible population by status,
	// independent of the requested page.
	Stats struct {
		Pending    int `json:"pending"`
		InProgress int `json:"in_progress"`
		Completed  int `json:"completed"`
		Overdue    int `json:"overdue"`
	}

	ParticipantPage struct {
		Participants []Participant `json:"participants"`
		Pagination   Pagination    `json:"pagination"`
		Stats        Stats         `json:"stats"`
	}

	// MemberRow is one (user, group) membership of a group linked to a
	// course, joined with the member's profile, organization affiliations
	// and (when present) the progress record for a mission.
	MemberRow struct {
		User       user.User
		Group      group.Group
		Membership group.Membership
		Progress   *Progress
	}
)
