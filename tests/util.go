package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/dhamira/core/course"
	"github.com/trezcool/dhamira/core/group"
	"github.com/trezcool/dhamira/core/mission"
	"github.com/trezcool/dhamira/core/org"
	"github.com/trezcool/dhamira/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateOrg(t *testing.T, repo org.Repository, name string) org.Organization {
	now := time.Now().UTC()
	o, err := repo.CreateOrganization(context.Background(), org.Organization{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateOrg() failed: %v", err)
	}
	return o
}

func CreateGroup(t *testing.T, repo group.Repository, name string) group.Group {
	now := time.Now().UTC()
	g, err := repo.CreateGroup(context.Background(), group.Group{
		Name:      name,
		IsVisible: true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return g
}

func AddGroupMember(t *testing.T, repo group.Repository, groupID, userID string) group.Membership {
	now := time.Now().UTC()
	m, err := repo.CreateMembership(context.Background(), group.Membership{
		GroupID:   groupID,
		UserID:    userID,
		Role:      group.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("AddGroupMember() failed: %v", err)
	}
	return m
}

func CreateCourse(t *testing.T, repo course.Repository, name string, groupIDs ...string) course.Course {
	now := time.Now().UTC()
	c, err := repo.CreateCourse(context.Background(), course.Course{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	for _, gid := range groupIDs {
		if err := repo.LinkGroup(context.Background(), c.ID, gid); err != nil {
			t.Fatalf("CreateCourse() failed to link group: %v", err)
		}
	}
	return c
}

func CreateMission(t *testing.T, repo mission.Repository, courseID, title string, dueAt time.Time, isPublic bool) mission.Mission {
	now := time.Now().UTC()
	m, err := repo.CreateMission(context.Background(), mission.Mission{
		CourseID:  courseID,
		Title:     title,
		DueAt:     dueAt.UTC(),
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateMission() failed: %v", err)
	}
	return m
}

func CreateProgress(t *testing.T, repo mission.Repository, missionID, userID string, completed bool, startedAt time.Time) mission.Progress {
	p := mission.Progress{
		MissionID: missionID,
		UserID:    userID,
		Completed: completed,
		StartedAt: startedAt.UTC(),
		CreatedAt: startedAt.UTC(),
		UpdatedAt: startedAt.UTC(),
	}
	if completed {
		checked := startedAt.Add(time.Hour).UTC()
		p.CheckedAt = &checked
	}
	p, err := repo.CreateProgress(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateProgress() failed: %v", err)
	}
	return p
}
