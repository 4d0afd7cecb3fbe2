package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/dhamira/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = uuid.New().String()
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.courses, id)
		delete(repo.db.courseGroups, id)
		for mid, m := range repo.db.missions {
			if m.CourseID == id {
				delete(repo.db.missions, mid)
			}
		}
	}
	return nil
}

func (repo *courseRepository) LinkGroup(ctx context.Context, courseID, groupID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, gid := range repo.db.courseGroups[courseID] {
		if gid == groupID {
			return course.ErrGroupLinked
		}
	}
	repo.db.courseGroups[courseID] = append(repo.db.courseGroups[courseID], groupID)
	return nil
}

func (repo *courseRepository) UnlinkGroup(ctx context.Context, courseID, groupID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	gids := repo.db.courseGroups[courseID]
	for i, gid := range gids {
		if gid == groupID {
			repo.db.courseGroups[courseID] = append(gids[:i], gids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (repo *courseRepository) QueryLinkedGroupIDs(ctx context.Context, courseID string) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := append([]string(nil), repo.db.courseGroups[courseID]...)
	sort.Strings(ids)
	return ids, nil
}
