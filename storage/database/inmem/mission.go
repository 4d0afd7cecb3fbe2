package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/dhamira/core/group"
	"github.com/trezcool/dhamira/core/mission"
)

type missionRepository struct {
	db *DB
}

var _ mission.Repository = (*missionRepository)(nil)

func NewMissionRepository(db *DB) *missionRepository {
	return &missionRepository{db: db}
}

func (repo *missionRepository) CreateMission(ctx context.Context, m mission.Mission) (mission.Mission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m.ID = uuid.New().String()
	repo.db.missions[m.ID] = &m
	return m, nil
}

func (repo *missionRepository) GetMissionByID(ctx context.Context, id string) (mission.Mission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.missions[id]; ok {
		return *m, nil
	}
	return mission.Mission{}, mission.ErrNotFound
}

func (repo *missionRepository) QueryCourseMissions(ctx context.Context, courseID string) ([]mission.Mission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var missions []mission.Mission
	for _, m := range repo.db.missions {
		if m.CourseID == courseID {
			missions = append(missions, *m)
		}
	}
	sort.Slice(missions, func(i, j int) bool { return missions[i].DueAt.Before(missions[j].DueAt) })
	return missions, nil
}

func (repo *missionRepository) UpdateMission(ctx context.Context, m mission.Mission) (mission.Mission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.missions[m.ID]; !ok {
		return mission.Mission{}, mission.ErrNotFound
	}
	repo.db.missions[m.ID] = &m
	return m, nil
}

func (repo *missionRepository) DeleteMissionsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.missions, id)
		for pid, p := range repo.db.progresses {
			if p.MissionID == id {
				delete(repo.db.progresses, pid)
			}
		}
	}
	return nil
}

// Progress

func (repo *missionRepository) GetProgress(ctx context.Context, missionID, userID string) (mission.Progress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p := repo.getProgress(missionID, userID); p != nil {
		return *p, nil
	}
	return mission.Progress{}, mission.ErrProgressNotFound
}

// getProgress expects the mutex to be held.
func (repo *missionRepository) getProgress(missionID, userID string) *mission.Progress {
	for _, p := range repo.db.progresses {
		if p.MissionID == missionID && p.UserID == userID {
			return p
		}
	}
	return nil
}

func (repo *missionRepository) CreateProgress(ctx context.Context, p mission.Progress) (mission.Progress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = uuid.New().String()
	repo.db.progresses[p.ID] = &p
	return p, nil
}

func (repo *missionRepository) UpdateProgress(ctx context.Context, p mission.Progress) (mission.Progress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.progresses[p.ID]; !ok {
		return mission.Progress{}, mission.ErrProgressNotFound
	}
	repo.db.progresses[p.ID] = &p
	return p, nil
}

// Member rows

func (repo *missionRepository) QueryCourseMemberRows(ctx context.Context, courseID, missionID string) ([]mission.MemberRow, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var mbs []group.Membership
	for _, gid := range repo.db.courseGroups[courseID] {
		for _, m := range repo.db.memberships {
			if m.GroupID == gid {
				mbs = append(mbs, *m)
			}
		}
	}
	sort.Slice(mbs, func(i, j int) bool {
		if mbs[i].UserID != mbs[j].UserID {
			return mbs[i].UserID < mbs[j].UserID
		}
		return mbs[i].GroupID < mbs[j].GroupID
	})

	rows := make([]mission.MemberRow, 0, len(mbs))
	for _, m := range mbs {
		usr, ok := repo.db.users[m.UserID]
		if !ok {
			continue
		}
		g, ok := repo.db.groups[m.GroupID]
		if !ok {
			continue
		}
		u := *usr
		u.Organizations = userOrgs(repo.db, u.ID)
		row := mission.MemberRow{
			User:       u,
			Group:      *g,
			Membership: m,
		}
		if p := repo.getProgress(missionID, m.UserID); p != nil {
			prog := *p
			row.Progress = &prog
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (repo *missionRepository) HasCourseMember(ctx context.Context, courseID, userID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, gid := range repo.db.courseGroups[courseID] {
		for _, m := range repo.db.memberships {
			if m.GroupID == gid && m.UserID == userID {
				return true, nil
			}
		}
	}
	return false, nil
}
