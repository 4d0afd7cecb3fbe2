package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/dhamira/core"
	"github.com/trezcool/dhamira/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g.ID = uuid.New().String()
	repo.db.groups[g.ID] = &g
	return g, nil
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if g, ok := repo.db.groups[id]; ok {
		return *g, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) FilterGroups(ctx context.Context, filter *group.QueryFilter, ordering ...core.DBOrdering) ([]group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	groups := make([]group.Group, 0, len(repo.db.groups))
	for _, g := range repo.db.groups {
		if filter != nil && !filter.IsEmpty() {
			if filter.Search != "" && !strings.Contains(strings.ToLower(g.Name), strings.ToLower(filter.Search)) {
				continue
			}
			if filter.IsVisible != nil && g.IsVisible != *filter.IsVisible {
				continue
			}
		}
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.groups[g.ID]; !ok {
		return group.Group{}, group.ErrNotFound
	}
	repo.db.groups[g.ID] = &g
	return g, nil
}

func (repo *groupRepository) DeleteGroupsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.groups, id)
		for mid, m := range repo.db.memberships {
			if m.GroupID == id {
				delete(repo.db.memberships, mid)
			}
		}
	}
	return nil
}

// Memberships

func (repo *groupRepository) CreateMembership(ctx context.Context, m group.Membership) (group.Membership, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.memberships {
		if existing.GroupID == m.GroupID && existing.UserID == m.UserID {
			return group.Membership{}, group.ErrMemberExists
		}
	}
	m.ID = uuid.New().String()
	repo.db.memberships[m.ID] = &m
	return m, nil
}

func (repo *groupRepository) queryMemberships(match func(m group.Membership) bool) []group.Membership {
	var mbs []group.Membership
	for _, m := range repo.db.memberships {
		if match(*m) {
			mbs = append(mbs, *m)
		}
	}
	sort.Slice(mbs, func(i, j int) bool { return mbs[i].CreatedAt.Before(mbs[j].CreatedAt) })
	return mbs
}

func (repo *groupRepository) QueryGroupMemberships(ctx context.Context, groupID string) ([]group.Membership, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.queryMemberships(func(m group.Membership) bool { return m.GroupID == groupID }), nil
}

func (repo *groupRepository) QueryUserMemberships(ctx context.Context, userID string) ([]group.Membership, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.queryMemberships(func(m group.Membership) bool { return m.UserID == userID }), nil
}

func (repo *groupRepository) UpdateMembership(ctx context.Context, m group.Membership) (group.Membership, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.memberships[m.ID]; !ok {
		return group.Membership{}, group.ErrNotFound
	}
	repo.db.memberships[m.ID] = &m
	return m, nil
}

func (repo *groupRepository) DeleteMembership(ctx context.Context, groupID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for mid, m := range repo.db.memberships {
		if m.GroupID == groupID && m.UserID == userID {
			delete(repo.db.memberships, mid)
		}
	}
	return nil
}
