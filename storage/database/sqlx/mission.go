package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dhamira/core/group"
	"github.com/trezcool/dhamira/core/mission"
	"github.com/trezcool/dhamira/core/user"
)

type missionRepository struct {
	db *sqlx.DB
}

var _ mission.Repository = (*missionRepository)(nil) // interface compliance check

func NewMissionRepository(db *sql.DB) *missionRepository {
	return &missionRepository{db: wrap(db)}
}

type missionRow struct {
	ID          string      `db:"id"`
	CourseID    string      `db:"course_id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	OpenAt      null.Time   `db:"open_at"`
	DueAt       time.Time   `db:"due_at"`
	IsPublic    bool        `db:"is_public"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

type progressRow struct {
	ID        string    `db:"id"`
	MissionID string    `db:"mission_id"`
	UserID    string    `db:"user_id"`
	Completed bool      `db:"completed"`
	StartedAt null.Time `db:"started_at"`
	CheckedAt null.Time `db:"checked_at"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

const (
	missionColumns  = `id, course_id, title, description, open_at, due_at, is_public, created_at, updated_at`
	progressColumns = `id, mission_id, user_id, completed, started_at, checked_at, created_at, updated_at`
)

func (row missionRow) toMission() mission.Mission {
	return mission.Mission{
		ID:          row.ID,
		CourseID:    row.CourseID,
		Title:       row.Title,
		Description: row.Description.String,
		OpenAt:      row.OpenAt.Ptr(),
		DueAt:       row.DueAt,
		IsPublic:    row.IsPublic,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

func (row progressRow) toProgress() mission.Progress {
	return mission.Progress{
		ID:        row.ID,
		MissionID: row.MissionID,
		UserID:    row.UserID,
		Completed: row.Completed,
		StartedAt: row.StartedAt.Time,
		CheckedAt: row.CheckedAt.Ptr(),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func (repo missionRepository) CreateMission(ctx context.Context, m mission.Mission) (mission.Mission, error) {
	m.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO mission (`+missionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.CourseID, m.Title, null.NewString(m.Description, m.Description != ""),
		null.TimeFromPtr(m.OpenAt), m.DueAt.UTC(), m.IsPublic, m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
	if err != nil {
		return mission.Mission{}, errors.Wrap(err, "creating mission")
	}
	return m, nil
}

func (repo missionRepository) GetMissionByID(ctx context.Context, id string) (mission.Mission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return mission.Mission{}, mission.ErrNotFound
	}
	var row missionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+missionColumns+` FROM mission WHERE id = $1`, id); err != nil {
		return mission.Mission{}, trapNoRowsErr(err, mission.ErrNotFound, "finding mission")
	}
	return row.toMission(), nil
}

func (repo missionRepository) QueryCourseMissions(ctx context.Context, courseID string) ([]mission.Mission, error) {
	var rows []missionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+missionColumns+` FROM mission WHERE course_id = $1 ORDER BY due_at`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying course missions")
	}
	missions := make([]mission.Mission, 0, len(rows))
	for _, row := range rows {
		missions = append(missions, row.toMission())
	}
	return missions, nil
}

func (repo missionRepository) UpdateMission(ctx context.Context, m mission.Mission) (mission.Mission, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE mission SET title = $1, description = $2, open_at = $3, due_at = $4, is_public = $5, updated_at = $6
		 WHERE id = $7`,
		m.Title, null.NewString(m.Description, m.Description != ""), null.TimeFromPtr(m.OpenAt),
		m.DueAt.UTC(), m.IsPublic, m.UpdatedAt.UTC(), m.ID,
	)
	if err != nil {
		return mission.Mission{}, errors.Wrap(err, "updating mission")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mission.Mission{}, mission.ErrNotFound
	}
	return repo.GetMissionByID(ctx, m.ID)
}

func (repo missionRepository) DeleteMissionsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	// progress records cascade
	_, err := repo.db.ExecContext(ctx, `DELETE FROM mission WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting missions")
}

// Progress

func (repo missionRepository) GetProgress(ctx context.Context, missionID, userID string) (mission.Progress, error) {
	var row progressRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+progressColumns+` FROM mission_progress WHERE mission_id = $1 AND user_id = $2`,
		missionID, userID,
	)
	if err != nil {
		return mission.Progress{}, trapNoRowsErr(err, mission.ErrProgressNotFound, "finding mission progress")
	}
	return row.toProgress(), nil
}

func (repo missionRepository) CreateProgress(ctx context.Context, p mission.Progress) (mission.Progress, error) {
	p.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO mission_progress (`+progressColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.MissionID, p.UserID, p.Completed, p.StartedAt.UTC(), null.TimeFromPtr(p.CheckedAt),
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return mission.Progress{}, errors.Wrap(err, "creating mission progress")
	}
	return p, nil
}

func (repo missionRepository) UpdateProgress(ctx context.Context, p mission.Progress) (mission.Progress, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE mission_progress SET completed = $1, checked_at = $2, updated_at = $3 WHERE id = $4`,
		p.Completed, null.TimeFromPtr(p.CheckedAt), p.UpdatedAt.UTC(), p.ID,
	)
	if err != nil {
		return mission.Progress{}, errors.Wrap(err, "updating mission progress")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mission.Progress{}, mission.ErrProgressNotFound
	}
	return p, nil
}

// Member rows

type memberRowScan struct {
	UserID           string      `db:"user_id"`
	UserName         null.String `db:"user_name"`
	UserUsername     null.String `db:"user_username"`
	UserEmail        null.String `db:"user_email"`
	UserProfileImage null.String `db:"user_profile_image"`
	UserPosition     null.String `db:"user_position"`
	UserIsActive     null.Bool   `db:"user_is_active"`
	UserRoles        pq.StringArray `db:"user_roles"`

	GroupID        string    `db:"group_id"`
	GroupName      string    `db:"group_name"`
	GroupIsVisible bool      `db:"group_is_visible"`

	MembershipID        string    `db:"membership_id"`
	MembershipRole      string    `db:"membership_role"`
	MembershipStartDate null.Time `db:"membership_start_date"`
	MembershipEndDate   null.Time `db:"membership_end_date"`
	MembershipCreatedAt null.Time `db:"membership_created_at"`
	MembershipUpdatedAt null.Time `db:"membership_updated_at"`

	ProgressID        null.String `db:"progress_id"`
	ProgressCompleted null.Bool   `db:"progress_completed"`
	ProgressStartedAt null.Time   `db:"progress_started_at"`
	ProgressCheckedAt null.Time   `db:"progress_checked_at"`
	ProgressCreatedAt null.Time   `db:"progress_created_at"`
	ProgressUpdatedAt null.Time   `db:"progress_updated_at"`
}

func (repo missionRepository) QueryCourseMemberRows(ctx context.Context, courseID, missionID string) ([]mission.MemberRow, error) {
	var scans []memberRowScan
	err := repo.db.SelectContext(ctx, &scans,
		`SELECT gm.user_id,
		        u.name AS user_name, u.username AS user_username, u.email AS user_email,
		        u.profile_image AS user_profile_image, u.position AS user_position,
		        u.is_active AS user_is_active, u.roles AS user_roles,
		        g.id AS group_id, g.name AS group_name, g.is_visible AS group_is_visible,
		        gm.id AS membership_id, gm.role AS membership_role,
		        gm.start_date AS membership_start_date, gm.end_date AS membership_end_date,
		        gm.created_at AS membership_created_at, gm.updated_at AS membership_updated_at,
		        mp.id AS progress_id, mp.completed AS progress_completed,
		        mp.started_at AS progress_started_at, mp.checked_at AS progress_checked_at,
		        mp.created_at AS progress_created_at, mp.updated_at AS progress_updated_at
		 FROM course_group cg
		 JOIN group_member gm ON gm.group_id = cg.group_id
		 JOIN "group" g ON g.id = gm.group_id
		 JOIN "user" u ON u.id = gm.user_id
		 LEFT JOIN mission_progress mp ON mp.mission_id = $2 AND mp.user_id = gm.user_id
		 WHERE cg.course_id = $1
		 ORDER BY gm.user_id, gm.group_id`,
		courseID, missionID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying course member rows")
	}

	userIDs := make([]string, 0, len(scans))
	seen := make(map[string]struct{}, len(scans))
	for _, s := range scans {
		if _, ok := seen[s.UserID]; !ok {
			seen[s.UserID] = struct{}{}
			userIDs = append(userIDs, s.UserID)
		}
	}
	orgsByUser, err := queryUserOrganizations(ctx, repo.db, userIDs...)
	if err != nil {
		return nil, err
	}

	rows := make([]mission.MemberRow, 0, len(scans))
	for _, s := range scans {
		row := mission.MemberRow{
			User: user.User{
				ID:            s.UserID,
				Name:          s.UserName.String,
				Username:      s.UserUsername.String,
				Email:         s.UserEmail.String,
				ProfileImage:  s.UserProfileImage.String,
				Position:      s.UserPosition.String,
				IsActive:      s.UserIsActive.Ptr(),
				Roles:         s.UserRoles,
				Organizations: orgsByUser[s.UserID],
			},
			Group: group.Group{
				ID:        s.GroupID,
				Name:      s.GroupName,
				IsVisible: s.GroupIsVisible,
			},
			Membership: group.Membership{
				ID:        s.MembershipID,
				GroupID:   s.GroupID,
				UserID:    s.UserID,
				Role:      s.MembershipRole,
				StartDate: s.MembershipStartDate.Ptr(),
				EndDate:   s.MembershipEndDate.Ptr(),
				CreatedAt: s.MembershipCreatedAt.Time,
				UpdatedAt: s.MembershipUpdatedAt.Time,
			},
		}
		if s.ProgressID.Valid {
			row.Progress = &mission.Progress{
				ID:        s.ProgressID.String,
				MissionID: missionID,
				UserID:    s.UserID,
				Completed: s.ProgressCompleted.Bool,
				StartedAt: s.ProgressStartedAt.Time,
				CheckedAt: s.ProgressCheckedAt.Ptr(),
				CreatedAt: s.ProgressCreatedAt.Time,
				UpdatedAt: s.ProgressUpdatedAt.Time,
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (repo missionRepository) HasCourseMember(ctx context.Context, courseID, userID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (
		   SELECT 1
		   FROM course_group cg
		   JOIN group_member gm ON gm.group_id = cg.group_id
		   WHERE cg.course_id = $1 AND gm.user_id = $2
		 )`,
		courseID, userID,
	)
	if err != nil {
		return false, errors.Wrap(err, "checking course membership")
	}
	return exists, nil
}
