package mission

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/dhamira/core/group"
	"github.com/trezcool/dhamira/core/user"
)

type repoMock struct {
	Repository // panic on unexpected calls

	missions map[string]Mission
	rows     []MemberRow
}

func (r *repoMock) GetMissionByID(ctx context.Context, id string) (Mission, error) {
	if m, ok := r.missions[id]; ok {
		return m, nil
	}
	return Mission{}, ErrNotFound
}

func (r *repoMock) QueryCourseMemberRows(ctx context.Context, courseID, missionID string) ([]MemberRow, error) {
	return r.rows, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func memberRow(usr, grp string, prog *Progress) MemberRow {
	now := date(2024, 1, 1)
	return MemberRow{
		User:  user.User{ID: usr, Name: "User " + usr, Email: usr + "@test.cd"},
		Group: group.Group{ID: grp, Name: "Group " + grp, IsVisible: true},
		Membership: group.Membership{
			ID:        usr + ":" + grp,
			GroupID:   grp,
			UserID:    usr,
			Role:      group.RoleMember,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Progress: prog,
	}
}

func progress(missionID, userID string, completed bool, startedAt time.Time) *Progress {
	p := &Progress{
		ID:        "prog-" + userID,
		MissionID: missionID,
		UserID:    userID,
		Completed: completed,
		StartedAt: startedAt,
		CreatedAt: startedAt,
		UpdatedAt: startedAt,
	}
	if completed {
		checked := startedAt.Add(time.Hour)
		p.CheckedAt = &checked
	}
	return p
}

func Test_deriveStatus(t *testing.T) {
	dueAt := date(2024, 1, 10)
	started := date(2024, 1, 5)

	tests := []struct {
		name string
		p    *Progress
		now  time.Time
		want string
	}{
		{name: "no progress before due", p: nil, now: date(2024, 1, 5), want: StatusPending},
		{name: "no progress after due", p: nil, now: date(2024, 1, 15), want: StatusPending},
		{name: "progress after due", p: progress("m1", "a", false, started), now: date(2024, 1, 15), want: StatusOverdue},
		{name: "completed after due", p: progress("m1", "a", true, started), now: date(2024, 1, 15), want: StatusOverdue},
		{name: "completed before due", p: progress("m1", "a", true, started), now: date(2024, 1, 8), want: StatusCompleted},
		{name: "started before due", p: progress("m1", "a", false, started), now: date(2024, 1, 8), want: StatusInProgress},
		{name: "exactly at due", p: progress("m1", "a", false, started), now: dueAt, want: StatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveStatus(tt.p, dueAt, tt.now); got != tt.want {
				t.Errorf("deriveStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_ListParticipants(t *testing.T) {
	const missionID = "m1"
	m := Mission{ID: missionID, CourseID: "c1", Title: "Mission", DueAt: date(2024, 1, 10)}

	defer func() { NowFunc = time.Now }()
	NowFunc = func() time.Time { return date(2024, 1, 8) }

	newSvc := func(rows ...MemberRow) *Service {
		return NewService(&repoMock{
			missions: map[string]Mission{missionID: m},
			rows:     rows,
		})
	}

	t.Run("mission not found", func(t *testing.T) {
		if _, err := newSvc().ListParticipants(context.Background(), "nope", 1, 10); err != ErrNotFound {
			t.Errorf("ListParticipants() error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("multi-group user appears once, lowest group wins", func(t *testing.T) {
		// user x belongs to g1 and g2, both linked to the course; rows come
		// back ordered by (user, group)
		page, err := newSvc(
			memberRow("x", "g1", nil),
			memberRow("x", "g2", nil),
			memberRow("y", "g2", nil),
		).ListParticipants(context.Background(), missionID, 1, 10)
		if err != nil {
			t.Fatalf("ListParticipants(): %v", err)
		}
		if len(page.Participants) != 2 {
			t.Fatalf("len(participants) = %d, want 2", len(page.Participants))
		}
		if got := page.Participants[0]; got.ID != "x" || got.Group.ID != "g1" {
			t.Errorf("first participant = %s in %s, want x in g1", got.ID, got.Group.ID)
		}
		if page.Pagination.Total != 2 {
			t.Errorf("pagination.total = %d, want 2", page.Pagination.Total)
		}
	})

	t.Run("statuses and stats", func(t *testing.T) {
		page, err := newSvc(
			memberRow("a", "g1", nil),                                      // pending
			memberRow("b", "g1", progress(missionID, "b", false, date(2024, 1, 5))), // in_progress
			memberRow("c", "g1", progress(missionID, "c", true, date(2024, 1, 5))),  // completed
		).ListParticipants(context.Background(), missionID, 1, 10)
		if err != nil {
			t.Fatalf("ListParticipants(): %v", err)
		}
		want := Stats{Pending: 1, InProgress: 1, Completed: 1}
		if page.Stats != want {
			t.Errorf("stats = %+v, want %+v", page.Stats, want)
		}
		if got := page.Participants[0]; got.Status != StatusPending || got.HasStarted {
			t.Errorf("a: status = %s, hasStarted = %v; want pending, false", got.Status, got.HasStarted)
		}
		if got := page.Participants[1]; got.Status != StatusInProgress || !got.HasStarted || got.ProgressID == nil {
			t.Errorf("b: status = %s, want in_progress with progress ref", got.Status)
		}
		if got := page.Participants[2]; got.Status != StatusCompleted || got.CompletedAt == nil {
			t.Errorf("c: status = %s, completedAt = %v; want completed with timestamp", got.Status, got.CompletedAt)
		}
	})

	t.Run("overdue after due date", func(t *testing.T) {
		NowFunc = func() time.Time { return date(2024, 1, 15) }
		defer func() { NowFunc = func() time.Time { return date(2024, 1, 8) } }()

		page, err := newSvc(
			memberRow("a", "g1", progress(missionID, "a", false, date(2024, 1, 5))),
			memberRow("b", "g1", nil),
		).ListParticipants(context.Background(), missionID, 1, 10)
		if err != nil {
			t.Fatalf("ListParticipants(): %v", err)
		}
		if got := page.Participants[0].Status; got != StatusOverdue {
			t.Errorf("a: status = %s, want overdue", got)
		}
		if got := page.Participants[1].Status; got != StatusPending {
			t.Errorf("b: status = %s, want pending", got)
		}
		if want := (Stats{Pending: 1, Overdue: 1}); page.Stats != want {
			t.Errorf("stats = %+v, want %+v", page.Stats, want)
		}
	})

	t.Run("stats independent of page", func(t *testing.T) {
		rows := []MemberRow{
			memberRow("a", "g1", nil),
			memberRow("b", "g1", progress(missionID, "b", false, date(2024, 1, 5))),
			memberRow("c", "g1", progress(missionID, "c", true, date(2024, 1, 5))),
			memberRow("d", "g1", nil),
			memberRow("d", "g2", nil), // duplicate, dropped
			memberRow("e", "g1", nil),
		}
		svc := newSvc(rows...)

		var collected []string
		for pageNum := 1; pageNum <= 3; pageNum++ {
			page, err := svc.ListParticipants(context.Background(), missionID, pageNum, 2)
			if err != nil {
				t.Fatalf("ListParticipants(page=%d): %v", pageNum, err)
			}
			sum := page.Stats.Pending + page.Stats.InProgress + page.Stats.Completed + page.Stats.Overdue
			if sum != page.Pagination.Total {
				t.Errorf("page %d: stats sum = %d, want total %d", pageNum, sum, page.Pagination.Total)
			}
			if page.Pagination.Total != 5 {
				t.Errorf("page %d: total = %d, want 5", pageNum, page.Pagination.Total)
			}
			if page.Pagination.TotalPages != 3 {
				t.Errorf("page %d: totalPages = %d, want 3", pageNum, page.Pagination.TotalPages)
			}
			for _, p := range page.Participants {
				collected = append(collected, p.ID)
			}
		}
		if len(collected) != 5 {
			t.Fatalf("collected %d participants across pages, want 5", len(collected))
		}
		seen := make(map[string]int)
		for _, id := range collected {
			seen[id]++
		}
		for id, n := range seen {
			if n != 1 {
				t.Errorf("user %s appeared %d times across pages, want once", id, n)
			}
		}
	})

	t.Run("page past the end", func(t *testing.T) {
		page, err := newSvc(
			memberRow("a", "g1", nil),
			memberRow("b", "g1", nil),
		).ListParticipants(context.Background(), missionID, 5, 10)
		if err != nil {
			t.Fatalf("ListParticipants(): %v", err)
		}
		if len(page.Participants) != 0 {
			t.Errorf("len(participants) = %d, want 0", len(page.Participants))
		}
		if page.Pagination.Total != 2 {
			t.Errorf("pagination.total = %d, want 2", page.Pagination.Total)
		}
	})
}
