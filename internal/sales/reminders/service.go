package reminders

import (
	"context"
	"sort"
	"time"
)

// Service computes validity-date reminders. Pure read side: the projection
// is recomputed on every call and nothing is written back.
type Service struct {
	repo   Repository
	window time.Duration
}

func NewService(repo Repository, window time.Duration) *Service {
	return &Service{repo: repo, window: window}
}

// Upcoming classifies open proposals by validity-date urgency. Proposals
// beyond the look-ahead window are omitted.
func (s *Service) Upcoming(ctx context.Context, now time.Time) ([]Reminder, error) {
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	today := truncateToDay(now)
	horizon := today.Add(s.window)

	var result []Reminder
	for _, p := range pending {
		due := truncateToDay(p.ValidUntil)

		var priority Priority
		switch {
		case due.Before(today):
			priority = PriorityOverdue
		case due.Equal(today):
			priority = PriorityDueToday
		case !due.After(horizon):
			priority = PriorityUpcoming
		default:
			continue
		}

		result = append(result, Reminder{
			ProposalID: p.ProposalID,
			Number:     p.Number,
			OwnerID:    p.OwnerID,
			ClientName: p.ClientName,
			ValidUntil: p.ValidUntil,
			Priority:   priority,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority.rank() != result[j].Priority.rank() {
			return result[i].Priority.rank() < result[j].Priority.rank()
		}
		return result[i].ValidUntil.Before(result[j].ValidUntil)
	})

	return result, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
