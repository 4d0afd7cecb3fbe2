package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/dhamira/core/org"
)

type orgRepository struct {
	db *DB
}

var _ org.Repository = (*orgRepository)(nil)

func NewOrgRepository(db *DB) *orgRepository {
	return &orgRepository{db: db}
}

// userOrgs expects the mutex to be held.
func userOrgs(db *DB, userID string) []org.Organization {
	var orgs []org.Organization
	for orgID, userIDs := range db.orgMembers {
		for _, uid := range userIDs {
			if uid == userID {
				if o, ok := db.orgs[orgID]; ok {
					orgs = append(orgs, *o)
				}
				break
			}
		}
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	return orgs
}

func (repo *orgRepository) CheckNameUniqueness(ctx context.Context, name string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, o := range repo.db.orgs {
		if o.Name == name {
			return org.ErrNameExists
		}
	}
	return nil
}

func (repo *orgRepository) CreateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	o.ID = uuid.New().String()
	repo.db.orgs[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) GetOrganizationByID(ctx context.Context, id string) (org.Organization, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if o, ok := repo.db.orgs[id]; ok {
		return *o, nil
	}
	return org.Organization{}, org.ErrNotFound
}

func (repo *orgRepository) QueryAllOrganizations(ctx context.Context) ([]org.Organization, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	orgs := make([]org.Organization, 0, len(repo.db.orgs))
	for _, o := range repo.db.orgs {
		orgs = append(orgs, *o)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	return orgs, nil
}

func (repo *orgRepository) QueryUserOrganizations(ctx context.Context, userIDs ...string) (map[string][]org.Organization, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	byUser := make(map[string][]org.Organization, len(userIDs))
	for _, uid := range userIDs {
		if orgs := userOrgs(repo.db, uid); orgs != nil {
			byUser[uid] = orgs
		}
	}
	return byUser, nil
}

func (repo *orgRepository) UpdateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.orgs[o.ID]; !ok {
		return org.Organization{}, org.ErrNotFound
	}
	repo.db.orgs[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) DeleteOrganizationsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.orgs, id)
		delete(repo.db.orgMembers, id)
	}
	return nil
}

func (repo *orgRepository) AddMember(ctx context.Context, orgID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.orgs[orgID]; !ok {
		return org.ErrNotFound
	}
	for _, uid := range repo.db.orgMembers[orgID] {
		if uid == userID {
			return nil
		}
	}
	repo.db.orgMembers[orgID] = append(repo.db.orgMembers[orgID], userID)
	return nil
}

func (repo *orgRepository) RemoveMember(ctx context.Context, orgID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	members := repo.db.orgMembers[orgID]
	for i, uid := range members {
		if uid == userID {
			repo.db.orgMembers[orgID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}
