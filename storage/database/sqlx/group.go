package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dhamira/core"
	"github.com/trezcool/dhamira/core/group"
)

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sql.DB) *groupRepository {
	return &groupRepository{db: wrap(db)}
}

type groupRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	IsVisible bool      `db:"is_visible"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

type membershipRow struct {
	ID        string    `db:"id"`
	GroupID   string    `db:"group_id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	StartDate null.Time `db:"start_date"`
	EndDate   null.Time `db:"end_date"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

const (
	groupColumns      = `id, name, is_visible, created_at, updated_at`
	membershipColumns = `id, group_id, user_id, role, start_date, end_date, created_at, updated_at`
)

func (row groupRow) toGroup() group.Group {
	return group.Group{
		ID:        row.ID,
		Name:      row.Name,
		IsVisible: row.IsVisible,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func (row membershipRow) toMembership() group.Membership {
	return group.Membership{
		ID:        row.ID,
		GroupID:   row.GroupID,
		UserID:    row.UserID,
		Role:      row.Role,
		StartDate: row.StartDate.Ptr(),
		EndDate:   row.EndDate.Ptr(),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func toMemberships(rows []membershipRow) []group.Membership {
	mbs := make([]group.Membership, 0, len(rows))
	for _, row := range rows {
		mbs = append(mbs, row.toMembership())
	}
	return mbs
}

func (repo groupRepository) CreateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	g.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO "group" (`+groupColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		g.ID, g.Name, g.IsVisible, g.CreatedAt.UTC(), g.UpdatedAt.UTC(),
	)
	if err != nil {
		return group.Group{}, errors.Wrap(err, "creating group")
	}
	return g, nil
}

func (repo groupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	if _, err := uuid.Parse(id); err != nil {
		return group.Group{}, group.ErrNotFound
	}
	var row groupRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+groupColumns+` FROM "group" WHERE id = $1`, id); err != nil {
		return group.Group{}, trapNoRowsErr(err, group.ErrNotFound, "finding group")
	}
	return row.toGroup(), nil
}

func (repo groupRepository) FilterGroups(ctx context.Context, filter *group.QueryFilter, ordering ...core.DBOrdering) ([]group.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM "group"`
	var conds []string
	var args []interface{}

	if filter != nil && !filter.IsEmpty() {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
		}
		if filter.IsVisible != nil {
			args = append(args, *filter.IsVisible)
			conds = append(conds, fmt.Sprintf("is_visible = $%d", len(args)))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY name"
	}

	var rows []groupRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	groups := make([]group.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, row.toGroup())
	}
	return groups, nil
}

func (repo groupRepository) UpdateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE "group" SET name = $1, is_visible = $2, updated_at = $3 WHERE id = $4`,
		g.Name, g.IsVisible, g.UpdatedAt.UTC(), g.ID,
	)
	if err != nil {
		return group.Group{}, errors.Wrap(err, "updating group")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return group.Group{}, group.ErrNotFound
	}
	return repo.GetGroupByID(ctx, g.ID)
}

func (repo groupRepository) DeleteGroupsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM "group" WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting groups")
}

// Memberships

func (repo groupRepository) CreateMembership(ctx context.Context, m group.Membership) (group.Membership, error) {
	m.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO group_member (`+membershipColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.GroupID, m.UserID, m.Role,
		null.TimeFromPtr(m.StartDate), null.TimeFromPtr(m.EndDate),
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return group.Membership{}, group.ErrMemberExists
		}
		return group.Membership{}, errors.Wrap(err, "creating membership")
	}
	return m, nil
}

func (repo groupRepository) QueryGroupMemberships(ctx context.Context, groupID string) ([]group.Membership, error) {
	var rows []membershipRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+membershipColumns+` FROM group_member WHERE group_id = $1 ORDER BY created_at`, groupID)
	if err != nil {
		return nil, errors.Wrap(err, "querying group memberships")
	}
	return toMemberships(rows), nil
}

func (repo groupRepository) QueryUserMemberships(ctx context.Context, userID string) ([]group.Membership, error) {
	var rows []membershipRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+membershipColumns+` FROM group_member WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying user memberships")
	}
	return toMemberships(rows), nil
}

func (repo groupRepository) UpdateMembership(ctx context.Context, m group.Membership) (group.Membership, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE group_member SET role = $1, start_date = $2, end_date = $3, updated_at = $4 WHERE id = $5`,
		m.Role, null.TimeFromPtr(m.StartDate), null.TimeFromPtr(m.EndDate), m.UpdatedAt.UTC(), m.ID,
	)
	if err != nil {
		return group.Membership{}, errors.Wrap(err, "updating membership")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return group.Membership{}, group.ErrNotFound
	}
	return m, nil
}

func (repo groupRepository) DeleteMembership(ctx context.Context, groupID, userID string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM group_member WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	return errors.Wrap(err, "deleting membership")
}
