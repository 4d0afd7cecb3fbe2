package mission

import (
	"context"
	"time"
)

// deriveStatus is a pure function of a progress record (or nil), the
// mission due date and the current time.
//
// A record past due is overdue no matter its completion flag; before
// the due date the completion flag decides between completed and
// in_progress. No record is always pending.
func deriveStatus(p *Progress, dueAt, now time.Time) string {
	switch {
	case p == nil:
		return StatusPending
	case now.After(dueAt):
		return StatusOverdue
	case p.Completed:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

// ListParticipants produces the deduplicated, paginated list of users
// eligible to participate in a mission by virtue of membership in a
// group linked to the mission's course, each annotated with a derived
// status, plus status-bucket counts over the entire eligible set.
//
// Within one result each user appears at most once regardless of how
// many linked groups they belong to; the membership with the lowest
// group ID wins and later rows for the same user are discarded
// entirely, including their group reference. Stats always reflect the
// complete population, independent of the requested page; pages past
// the end yield an empty participants slice, not an error.
func (svc *Service) ListParticipants(ctx context.Context, missionID string, page, pageSize int) (ParticipantPage, error) {
	m, err := svc.repo.GetMissionByID(ctx, missionID)
	if err != nil {
		return ParticipantPage{}, err
	}

	rows, err := svc.repo.QueryCourseMemberRows(ctx, m.CourseID, missionID)
	if err != nil {
		return ParticipantPage{}, err
	}

	now := NowFunc().UTC()
	seen := make(map[string]struct{}, len(rows))
	participants := make([]Participant, 0, len(rows))
	var stats Stats

	for _, row := range rows {
		if _, dup := seen[row.User.ID]; dup {
			continue
		}
		seen[row.User.ID] = struct{}{}

		p := newParticipant(m, row, now)
		switch p.Status {
		case StatusPending:
			stats.Pending++
		case StatusInProgress:
			stats.InProgress++
		case StatusCompleted:
			stats.Completed++
		case StatusOverdue:
			stats.Overdue++
		}
		participants = append(participants, p)
	}

	total := len(participants)
	return ParticipantPage{
		Participants: paginate(participants, page, pageSize),
		Pagination: Pagination{
			Page:       page,
			Limit:      pageSize,
			Total:      total,
			TotalPages: (total + pageSize - 1) / pageSize,
		},
		Stats: stats,
	}, nil
}

func newParticipant(m Mission, row MemberRow, now time.Time) Participant {
	p := Participant{
		ID:        row.User.ID,
		MissionID: m.ID,
		Status:    deriveStatus(row.Progress, m.DueAt, now),
		User: ParticipantUser{
			ID:            row.User.ID,
			Name:          row.User.Name,
			Email:         row.User.Email,
			ProfileImage:  row.User.ProfileImage,
			Position:      row.User.Position,
			Organizations: row.User.Organizations,
		},
		Group: ParticipantGroup{
			ID:   row.Group.ID,
			Name: row.Group.Name,
		},
		CreatedAt: row.Membership.CreatedAt,
		UpdatedAt: row.Membership.UpdatedAt,
	}

	if prog := row.Progress; prog != nil {
		p.ProgressID = &prog.ID
		p.StartedAt = &prog.StartedAt
		p.CompletedAt = prog.CheckedAt
		p.CreatedAt = prog.CreatedAt
		p.UpdatedAt = prog.UpdatedAt
		p.HasStarted = true
	}
	return p
}

func paginate(participants []Participant, page, pageSize int) []Participant {
	lo := (page - 1) * pageSize
	if lo >= len(participants) {
		return []Participant{}
	}
	hi := lo + pageSize
	if hi > len(participants) {
		hi = len(participants)
	}
	return participants[lo:hi]
}
