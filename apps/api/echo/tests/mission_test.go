package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dhamira/core/mission"
	"github.com/trezcool/dhamira/core/user"
	testutil "github.com/trezcool/dhamira/tests"
)

func TestMissionParticipantsAPI(t *testing.T) {
	staff := testutil.CreateUser(t, usrRepo, "Ms Teacher", "teacher1", "teacher1@test.cd", "", user.TeacherRoles, true)
	student := testutil.CreateUser(t, usrRepo, "Any Student", "student0", "student0@test.cd", "", user.StudentRoles, true)
	staffToken := getToken(t, staff)
	studentToken := getToken(t, student)

	userA := testutil.CreateUser(t, usrRepo, "Alice A", "alice", "alice@test.cd", "", user.StudentRoles, true)
	userB := testutil.CreateUser(t, usrRepo, "Bob B", "bob", "bob@test.cd", "", user.StudentRoles, true)
	userC := testutil.CreateUser(t, usrRepo, "Carol C", "carol", "carol@test.cd", "", user.StudentRoles, true)

	g1 := testutil.CreateGroup(t, groupRepo, "Cohort East")
	g2 := testutil.CreateGroup(t, groupRepo, "Cohort West")
	lowestGroupID := g1.ID
	if g2.ID < g1.ID {
		lowestGroupID = g2.ID
	}

	// Alice belongs to both groups; Bob to g1; Carol to g2.
	testutil.AddGroupMember(t, groupRepo, g1.ID, userA.ID)
	testutil.AddGroupMember(t, groupRepo, g2.ID, userA.ID)
	testutil.AddGroupMember(t, groupRepo, g1.ID, userB.ID)
	testutil.AddGroupMember(t, groupRepo, g2.ID, userC.ID)

	crs := testutil.CreateCourse(t, courseRepo, "Field Ops", g1.ID, g2.ID)
	msn := testutil.CreateMission(t, missionRepo, crs.ID, "Recon Drill", time.Now().Add(48*time.Hour), false)

	testutil.CreateProgress(t, missionRepo, msn.ID, userA.ID, false, time.Now().Add(-time.Hour))
	testutil.CreateProgress(t, missionRepo, msn.ID, userB.ID, true, time.Now().Add(-2*time.Hour))

	participantsPath := func(id string, query string) string {
		return fmt.Sprintf("/v1/missions/%s/participants%s", id, query)
	}

	getPage := func(t *testing.T, path string) mission.ParticipantPage {
		req, rec := newAuthRequest(http.MethodGet, path, staffToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var page mission.ParticipantPage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		return page
	}

	t.Run("deduplicates users across groups", func(t *testing.T) {
		page := getPage(t, participantsPath(msn.ID, ""))

		assert.Equal(t, 3, page.Pagination.Total)
		assert.Len(t, page.Participants, 3)

		seen := make(map[string]mission.Participant, 3)
		for _, p := range page.Participants {
			_, dup := seen[p.ID]
			assert.False(t, dup, "user %s appears more than once", p.ID)
			seen[p.ID] = p
		}

		// multi-group Alice keeps the membership with the lowest group ID
		alice, ok := seen[userA.ID]
		require.True(t, ok)
		assert.Equal(t, lowestGroupID, alice.Group.ID)
	})

	t.Run("statuses and stats", func(t *testing.T) {
		page := getPage(t, participantsPath(msn.ID, ""))

		byID := make(map[string]mission.Participant, 3)
		for _, p := range page.Participants {
			byID[p.ID] = p
		}
		assert.Equal(t, mission.StatusInProgress, byID[userA.ID].Status)
		assert.Equal(t, mission.StatusCompleted, byID[userB.ID].Status)
		assert.Equal(t, mission.StatusPending, byID[userC.ID].Status)

		assert.True(t, byID[userA.ID].HasStarted)
		assert.False(t, byID[userC.ID].HasStarted)
		assert.NotNil(t, byID[userB.ID].CompletedAt)

		assert.Equal(t, mission.Stats{Pending: 1, InProgress: 1, Completed: 1}, page.Stats)
	})

	t.Run("stats cover the whole population on any page", func(t *testing.T) {
		var total int
		seen := make(map[string]struct{})
		for p := 1; p <= 2; p++ {
			page := getPage(t, participantsPath(msn.ID, fmt.Sprintf("?page=%d&limit=2", p)))
			assert.Equal(t, mission.Stats{Pending: 1, InProgress: 1, Completed: 1}, page.Stats)
			assert.Equal(t, 3, page.Pagination.Total)
			assert.Equal(t, 2, page.Pagination.TotalPages)
			for _, pp := range page.Participants {
				_, dup := seen[pp.ID]
				assert.False(t, dup)
				seen[pp.ID] = struct{}{}
			}
			total += len(page.Participants)
		}
		assert.Equal(t, 3, total)
	})

	t.Run("page past the end", func(t *testing.T) {
		page := getPage(t, participantsPath(msn.ID, "?page=9&limit=2"))
		assert.Empty(t, page.Participants)
		assert.Equal(t, 3, page.Pagination.Total)
	})

	t.Run("overdue wins over completed past due date", func(t *testing.T) {
		late := testutil.CreateMission(t, missionRepo, crs.ID, "Past Drill", time.Now().Add(-time.Hour), false)
		testutil.CreateProgress(t, missionRepo, late.ID, userB.ID, true, time.Now().Add(-3*time.Hour))

		page := getPage(t, participantsPath(late.ID, ""))
		byID := make(map[string]mission.Participant, 3)
		for _, p := range page.Participants {
			byID[p.ID] = p
		}
		assert.Equal(t, mission.StatusOverdue, byID[userB.ID].Status)
		assert.Equal(t, mission.StatusPending, byID[userA.ID].Status) // never started
		assert.Equal(t, mission.Stats{Pending: 2, Overdue: 1}, page.Stats)
	})

	t.Run("invalid pagination params", func(t *testing.T) {
		for _, query := range []string{"?page=0", "?limit=0", "?page=abc", "?limit=-2"} {
			req, rec := newAuthRequest(http.MethodGet, participantsPath(msn.ID, query), staffToken)
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		}
	})

	t.Run("mission not found", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		}
		req, rec := newAuthRequest(http.MethodGet, participantsPath("8227d747-a358-44dd-a7e1-0f3e8a7b9f01", ""), staffToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("requires staff", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, participantsPath(msn.ID, ""), studentToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("requires auth", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		}
		req, rec := newRequest(http.MethodGet, participantsPath(msn.ID, ""))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func TestMissionStartCompleteAPI(t *testing.T) {
	member := testutil.CreateUser(t, usrRepo, "Dan D", "dan", "dan@test.cd", "", user.StudentRoles, true)
	outsider := testutil.CreateUser(t, usrRepo, "Eve E", "eve", "eve@test.cd", "", user.StudentRoles, true)
	memberToken := getToken(t, member)
	outsiderToken := getToken(t, outsider)

	g := testutil.CreateGroup(t, groupRepo, "Night Shift")
	testutil.AddGroupMember(t, groupRepo, g.ID, member.ID)
	crs := testutil.CreateCourse(t, courseRepo, "Night Ops", g.ID)
	msn := testutil.CreateMission(t, missionRepo, crs.ID, "Night Drill", time.Now().Add(24*time.Hour), false)

	decodeProgress := func(t *testing.T, body []byte) mission.Progress {
		var p mission.Progress
		require.NoError(t, json.Unmarshal(body, &p))
		return p
	}

	t.Run("non-member cannot start", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/missions/"+msn.ID+"/start", outsiderToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("member starts and completes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/missions/"+msn.ID+"/start", memberToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		started := decodeProgress(t, rec.Body.Bytes())
		assert.False(t, started.Completed)
		assert.Nil(t, started.CheckedAt)

		// starting again is a no-op
		req, rec = newAuthRequest(http.MethodPost, "/v1/missions/"+msn.ID+"/start", memberToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, started.ID, decodeProgress(t, rec.Body.Bytes()).ID)

		req, rec = newAuthRequest(http.MethodPost, "/v1/missions/"+msn.ID+"/complete", memberToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		completed := decodeProgress(t, rec.Body.Bytes())
		assert.True(t, completed.Completed)
		require.NotNil(t, completed.CheckedAt)

		// completing again keeps the original timestamp
		req, rec = newAuthRequest(http.MethodPost, "/v1/missions/"+msn.ID+"/complete", memberToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		again := decodeProgress(t, rec.Body.Bytes())
		assert.Equal(t, completed.CheckedAt.Unix(), again.CheckedAt.Unix())
	})

	t.Run("public mission open to anyone", func(t *testing.T) {
		pub := testutil.CreateMission(t, missionRepo, crs.ID, "Open Drill", time.Now().Add(24*time.Hour), true)
		req, rec := newAuthRequest(http.MethodPost, "/v1/missions/"+pub.ID+"/start", outsiderToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("not open yet", func(t *testing.T) {
		opens := time.Now().Add(time.Hour).UTC()
		m := mission.Mission{
			CourseID:  crs.ID,
			Title:     "Future Drill",
			OpenAt:    &opens,
			DueAt:     time.Now().Add(48 * time.Hour).UTC(),
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		m, err := missionRepo.CreateMission(context.Background(), m)
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodPost, "/v1/missions/"+m.ID+"/start", memberToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
