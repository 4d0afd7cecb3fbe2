package mission

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/dhamira/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound         = errors.New("mission not found")
	ErrProgressNotFound = errors.New("mission progress not found")

	errNotOpen     = errors.New("mission is not open yet")
	errNotEligible = errors.New("user is not a member of any group linked to this mission")
)

type (
	Repository interface {
		CreateMission(ctx context.Context, m Mission) (Mission, error)
		GetMissionByID(ctx context.Context, id string) (Mission, error)
		QueryCourseMissions(ctx context.Context, courseID string) ([]Mission, error)
		UpdateMission(ctx context.Context, m Mission) (Mission, error)
		// DeleteMissionsByID cascades each mission's progress records.
		DeleteMissionsByID(ctx context.Context, ids ...string) error

		GetProgress(ctx context.Context, missionID, userID string) (Progress, error)
		CreateProgress(ctx context.Context, p Progress) (Progress, error)
		UpdateProgress(ctx context.Context, p Progress) (Progress, error)

		// QueryCourseMemberRows returns one row per (user, group) pair over
		// the groups linked to the course, joined with the member's profile,
		// organization affiliations and the progress record for the mission.
		// Rows are ordered by (user ID, group ID) so deduplication is
		// deterministic: the lowest group ID wins for multi-group users.
		QueryCourseMemberRows(ctx context.Context, courseID, missionID string) ([]MemberRow, error)

		// HasCourseMember reports whether the user belongs to any group
		// linked to the course.
		HasCourseMember(ctx context.Context, courseID, userID string) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nm NewMission) (Mission, error) {
	now := time.Now().UTC()
	m := Mission{
		CourseID:    nm.CourseID,
		Title:       nm.Title,
		Description: nm.Description,
		OpenAt:      nm.OpenAt,
		DueAt:       nm.DueAt.UTC(),
		IsPublic:    nm.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateMission(ctx, m)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Mission, error) {
	return svc.repo.GetMissionByID(ctx, id)
}

func (svc *Service) QueryByCourse(ctx context.Context, courseID string) ([]Mission, error) {
	return svc.repo.QueryCourseMissions(ctx, courseID)
}

func (svc *Service) Update(ctx context.Context, id string, um UpdateMission) (Mission, error) {
	m, err := svc.repo.GetMissionByID(ctx, id)
	if err != nil {
		return Mission{}, err
	}
	m.Title = um.Title
	m.Description = um.Description
	if um.OpenAt != nil {
		m.OpenAt = um.OpenAt
	}
	if um.DueAt != nil {
		m.DueAt = um.DueAt.UTC()
	}
	if um.IsPublic != nil {
		m.IsPublic = *um.IsPublic
	}
	m.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMission(ctx, m)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteMissionsByID(ctx, ids...)
}

// Start creates the user's progress record for a mission. It is
// idempotent: an existing record is returned untouched. The mission
// must be open and, unless public, the user must belong to a group
// linked to the mission's course.
func (svc *Service) Start(ctx context.Context, missionID, userID string) (Progress, error) {
	m, err := svc.repo.GetMissionByID(ctx, missionID)
	if err != nil {
		return Progress{}, err
	}

	now := NowFunc().UTC()
	if !m.Open(now) {
		return Progress{}, core.NewValidationError(errNotOpen)
	}
	if !m.IsPublic {
		ok, err := svc.repo.HasCourseMember(ctx, m.CourseID, userID)
		if err != nil {
			return Progress{}, errors.Wrap(err, "checking eligibility")
		}
		if !ok {
			return Progress{}, core.NewValidationError(errNotEligible)
		}
	}

	if p, err := svc.repo.GetProgress(ctx, missionID, userID); err == nil {
		return p, nil
	} else if errors.Cause(err) != ErrProgressNotFound {
		return Progress{}, err
	}

	return svc.repo.CreateProgress(ctx, Progress{
		MissionID: missionID,
		UserID:    userID,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Complete marks the user's progress record complete, stamping
// CheckedAt. Completing an unstarted mission starts it first.
func (svc *Service) Complete(ctx context.Context, missionID, userID string) (Progress, error) {
	p, err := svc.repo.GetProgress(ctx, missionID, userID)
	if err != nil {
		if errors.Cause(err) != ErrProgressNotFound {
			return Progress{}, err
		}
		p, err = svc.Start(ctx, missionID, userID)
		if err != nil {
			return Progress{}, err
		}
	}
	if p.Completed {
		return p, nil
	}

	now := NowFunc().UTC()
	p.Completed = true
	p.CheckedAt = &now
	p.UpdatedAt = now
	return svc.repo.UpdateProgress(ctx, p)
}
