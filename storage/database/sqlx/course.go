package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dhamira/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{db: wrap(db)}
}

type courseRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartDate null.Time `db:"start_date"`
	EndDate   null.Time `db:"end_date"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

const courseColumns = `id, name, start_date, end_date, created_at, updated_at`

func (row courseRow) toCourse() course.Course {
	return course.Course{
		ID:        row.ID,
		Name:      row.Name,
		StartDate: row.StartDate.Ptr(),
		EndDate:   row.EndDate.Ptr(),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	c.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO course (`+courseColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, null.TimeFromPtr(c.StartDate), null.TimeFromPtr(c.EndDate),
		c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return c, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+courseColumns+` FROM course WHERE id = $1`, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.toCourse(), nil
}

func (repo courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+courseColumns+` FROM course ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE course SET name = $1, start_date = $2, end_date = $3, updated_at = $4 WHERE id = $5`,
		c.Name, null.TimeFromPtr(c.StartDate), null.TimeFromPtr(c.EndDate), c.UpdatedAt.UTC(), c.ID,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, c.ID)
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting courses")
}

func (repo courseRepository) LinkGroup(ctx context.Context, courseID, groupID string) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO course_group (course_id, group_id) VALUES ($1, $2)`,
		courseID, groupID,
	)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return course.ErrGroupLinked
		}
		return errors.Wrap(err, "linking group to course")
	}
	return nil
}

func (repo courseRepository) UnlinkGroup(ctx context.Context, courseID, groupID string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM course_group WHERE course_id = $1 AND group_id = $2`, courseID, groupID)
	return errors.Wrap(err, "unlinking group from course")
}

func (repo courseRepository) QueryLinkedGroupIDs(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT group_id FROM course_group WHERE course_id = $1 ORDER BY group_id`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying linked groups")
	}
	return ids, nil
}
