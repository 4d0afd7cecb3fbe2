package mission

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/dhamira/core"
)

type progressRepoMock struct {
	Repository

	missions map[string]Mission
	progress map[string]Progress // key: missionID+":"+userID
	members  map[string]bool     // key: courseID+":"+userID
}

func newProgressRepoMock(missions ...Mission) *progressRepoMock {
	r := &progressRepoMock{
		missions: make(map[string]Mission),
		progress: make(map[string]Progress),
		members:  make(map[string]bool),
	}
	for _, m := range missions {
		r.missions[m.ID] = m
	}
	return r
}

func (r *progressRepoMock) GetMissionByID(ctx context.Context, id string) (Mission, error) {
	if m, ok := r.missions[id]; ok {
		return m, nil
	}
	return Mission{}, ErrNotFound
}

func (r *progressRepoMock) GetProgress(ctx context.Context, missionID, userID string) (Progress, error) {
	if p, ok := r.progress[missionID+":"+userID]; ok {
		return p, nil
	}
	return Progress{}, ErrProgressNotFound
}

func (r *progressRepoMock) CreateProgress(ctx context.Context, p Progress) (Progress, error) {
	p.ID = "prog-" + p.UserID
	r.progress[p.MissionID+":"+p.UserID] = p
	return p, nil
}

func (r *progressRepoMock) UpdateProgress(ctx context.Context, p Progress) (Progress, error) {
	r.progress[p.MissionID+":"+p.UserID] = p
	return p, nil
}

func (r *progressRepoMock) HasCourseMember(ctx context.Context, courseID, userID string) (bool, error) {
	return r.members[courseID+":"+userID], nil
}

func TestService_StartComplete(t *testing.T) {
	ctx := context.Background()
	openAt := date(2024, 1, 1)
	opensLater := date(2024, 2, 1)
	m := Mission{ID: "m1", CourseID: "c1", Title: "Mission", OpenAt: &openAt, DueAt: date(2024, 1, 10)}
	notOpen := Mission{ID: "m2", CourseID: "c1", Title: "Future", OpenAt: &opensLater, DueAt: date(2024, 2, 10)}
	public := Mission{ID: "m3", CourseID: "c1", Title: "Public", DueAt: date(2024, 1, 10), IsPublic: true}

	defer func() { NowFunc = time.Now }()
	NowFunc = func() time.Time { return date(2024, 1, 5) }

	t.Run("start requires membership", func(t *testing.T) {
		repo := newProgressRepoMock(m)
		svc := NewService(repo)

		if _, err := svc.Start(ctx, "m1", "outsider"); err == nil {
			t.Fatal("Start() expected eligibility error, got nil")
		} else if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Start() error = %T, want *core.ValidationError", err)
		}
	})

	t.Run("public mission skips membership check", func(t *testing.T) {
		repo := newProgressRepoMock(public)
		svc := NewService(repo)

		p, err := svc.Start(ctx, "m3", "outsider")
		if err != nil {
			t.Fatalf("Start(): %v", err)
		}
		if p.Completed {
			t.Error("Start() created a completed record")
		}
	})

	t.Run("start before open date", func(t *testing.T) {
		repo := newProgressRepoMock(notOpen)
		repo.members["c1:u1"] = true
		svc := NewService(repo)

		if _, err := svc.Start(ctx, "m2", "u1"); err == nil {
			t.Fatal("Start() expected not-open error, got nil")
		}
	})

	t.Run("start is idempotent", func(t *testing.T) {
		repo := newProgressRepoMock(m)
		repo.members["c1:u1"] = true
		svc := NewService(repo)

		p1, err := svc.Start(ctx, "m1", "u1")
		if err != nil {
			t.Fatalf("Start(): %v", err)
		}
		p2, err := svc.Start(ctx, "m1", "u1")
		if err != nil {
			t.Fatalf("Start() second call: %v", err)
		}
		if p1.ID != p2.ID {
			t.Errorf("Start() created a second record: %s != %s", p1.ID, p2.ID)
		}
	})

	t.Run("complete stamps checkedAt", func(t *testing.T) {
		repo := newProgressRepoMock(m)
		repo.members["c1:u1"] = true
		svc := NewService(repo)

		if _, err := svc.Start(ctx, "m1", "u1"); err != nil {
			t.Fatalf("Start(): %v", err)
		}
		p, err := svc.Complete(ctx, "m1", "u1")
		if err != nil {
			t.Fatalf("Complete(): %v", err)
		}
		if !p.Completed || p.CheckedAt == nil {
			t.Errorf("Complete() = completed %v, checkedAt %v; want true with timestamp", p.Completed, p.CheckedAt)
		}

		// completing again keeps the original timestamp
		again, err := svc.Complete(ctx, "m1", "u1")
		if err != nil {
			t.Fatalf("Complete() second call: %v", err)
		}
		if !again.CheckedAt.Equal(*p.CheckedAt) {
			t.Errorf("Complete() moved checkedAt: %v != %v", again.CheckedAt, p.CheckedAt)
		}
	})

	t.Run("complete without start creates the record", func(t *testing.T) {
		repo := newProgressRepoMock(m)
		repo.members["c1:u1"] = true
		svc := NewService(repo)

		p, err := svc.Complete(ctx, "m1", "u1")
		if err != nil {
			t.Fatalf("Complete(): %v", err)
		}
		if !p.Completed {
			t.Error("Complete() did not mark the record complete")
		}
	})
}
