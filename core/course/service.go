package course

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound    = errors.New("course not found")
	ErrGroupLinked = errors.New("group is already linked to this course")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error

		LinkGroup(ctx context.Context, courseID, groupID string) error
		UnlinkGroup(ctx context.Context, courseID, groupID string) error
		QueryLinkedGroupIDs(ctx context.Context, courseID string) ([]string, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	c := Course{
		Name:      nc.Name,
		StartDate: nc.StartDate,
		EndDate:   nc.EndDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateCourse(ctx, c)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	c.Name = uc.Name
	if uc.StartDate != nil {
		c.StartDate = uc.StartDate
	}
	if uc.EndDate != nil {
		c.EndDate = uc.EndDate
	}
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}

func (svc *Service) LinkGroup(ctx context.Context, courseID, groupID string) error {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return err
	}
	return svc.repo.LinkGroup(ctx, courseID, groupID)
}

func (svc *Service) UnlinkGroup(ctx context.Context, courseID, groupID string) error {
	return svc.repo.UnlinkGroup(ctx, courseID, groupID)
}

func (svc *Service) QueryLinkedGroupIDs(ctx context.Context, courseID string) ([]string, error) {
	return svc.repo.QueryLinkedGroupIDs(ctx, courseID)
}
