package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dhamira/core/org"
)

type orgRepository struct {
	db *sqlx.DB
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *sql.DB) *orgRepository {
	return &orgRepository{db: wrap(db)}
}

type orgRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

const orgColumns = `id, name, description, created_at, updated_at`

func (row orgRow) toOrg() org.Organization {
	return org.Organization{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description.String,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

func (repo orgRepository) CheckNameUniqueness(ctx context.Context, name string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM organization WHERE name = $1)`, name)
	if err != nil {
		return errors.Wrap(err, "checking organization name")
	}
	if exists {
		return org.ErrNameExists
	}
	return nil
}

func (repo orgRepository) CreateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	o.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO organization (`+orgColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.Name, null.NewString(o.Description, o.Description != ""), o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
	)
	if err != nil {
		return org.Organization{}, errors.Wrap(err, "creating organization")
	}
	return o, nil
}

func (repo orgRepository) GetOrganizationByID(ctx context.Context, id string) (org.Organization, error) {
	if _, err := uuid.Parse(id); err != nil {
		return org.Organization{}, org.ErrNotFound
	}
	var row orgRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+orgColumns+` FROM organization WHERE id = $1`, id); err != nil {
		return org.Organization{}, trapNoRowsErr(err, org.ErrNotFound, "finding organization")
	}
	return row.toOrg(), nil
}

func (repo orgRepository) QueryAllOrganizations(ctx context.Context) ([]org.Organization, error) {
	var rows []orgRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+orgColumns+` FROM organization ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying organizations")
	}
	orgs := make([]org.Organization, 0, len(rows))
	for _, row := range rows {
		orgs = append(orgs, row.toOrg())
	}
	return orgs, nil
}

func (repo orgRepository) QueryUserOrganizations(ctx context.Context, userIDs ...string) (map[string][]org.Organization, error) {
	return queryUserOrganizations(ctx, repo.db, userIDs...)
}

// queryUserOrganizations is shared with the user and mission repositories.
func queryUserOrganizations(ctx context.Context, db *sqlx.DB, userIDs ...string) (map[string][]org.Organization, error) {
	if len(userIDs) == 0 {
		return map[string][]org.Organization{}, nil
	}

	var rows []struct {
		orgRow
		UserID string `db:"user_id"`
	}
	err := db.SelectContext(ctx, &rows,
		`SELECT om.user_id, o.id, o.name, o.description, o.created_at, o.updated_at
		 FROM org_member om
		 JOIN organization o ON o.id = om.org_id
		 WHERE om.user_id = ANY($1)
		 ORDER BY o.name`,
		pq.Array(userIDs),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying user organizations")
	}

	byUser := make(map[string][]org.Organization, len(userIDs))
	for _, row := range rows {
		byUser[row.UserID] = append(byUser[row.UserID], row.toOrg())
	}
	return byUser, nil
}

func (repo orgRepository) UpdateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE organization SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		o.Name, null.NewString(o.Description, o.Description != ""), o.UpdatedAt.UTC(), o.ID,
	)
	if err != nil {
		return org.Organization{}, errors.Wrap(err, "updating organization")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return org.Organization{}, org.ErrNotFound
	}
	return repo.GetOrganizationByID(ctx, o.ID)
}

func (repo orgRepository) DeleteOrganizationsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM organization WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting organizations")
}

func (repo orgRepository) AddMember(ctx context.Context, orgID, userID string) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO org_member (org_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, orgID, userID)
	return errors.Wrap(err, "adding organization member")
}

func (repo orgRepository) RemoveMember(ctx context.Context, orgID, userID string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM org_member WHERE org_id = $1 AND user_id = $2`, orgID, userID)
	return errors.Wrap(err, "removing organization member")
}
