package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/stats"
)

// AnalyticsService derives personal drinking stats and head-to-head
// comparisons from drink history.
type AnalyticsService struct {
	logs        DrinkLogStore
	users       UserStore
	friendships FriendshipStore
	signer      *URLSigner
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	logs DrinkLogStore,
	users UserStore,
	friendships FriendshipStore,
	signer *URLSigner,
) *AnalyticsService {
	return &AnalyticsService{
		logs:        logs,
		users:       users,
		friendships: friendships,
		signer:      signer,
	}
}

// AnalyticsView is the full analytics payload for one user and window.
type AnalyticsView struct {
	Range    stats.Range   `json:"range"`
	Timezone string        `json:"timezone"`
	Buckets  stats.Buckets `json:"buckets"`
	Summary  stats.Summary `json:"summary"`
}

// ForUser computes analytics over the user's drink history within the
// given window. tz is an IANA zone name; empty means UTC.
func (s *AnalyticsService) ForUser(ctx context.Context, userID, rangeStr, tz string) (*AnalyticsView, error) {
	r, err := stats.ParseRange(rangeStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalid, err)
	}

	loc := time.UTC
	if tz = strings.TrimSpace(tz); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", models.ErrInvalid, tz)
		}
	}

	now := time.Now()
	cutoff := r.Cutoff(now, loc)
	logs, err := s.logs.ListByUserSince(ctx, userID, cutoff)
	if err != nil {
		return nil, err
	}

	entries := statEntries(logs)
	return &AnalyticsView{
		Range:    r,
		Timezone: loc.String(),
		Buckets:  stats.BucketByDay(entries, loc),
		Summary:  stats.Summarize(entries, cutoff, now, loc),
	}, nil
}

// VersusView is the head-to-head payload between the caller and a friend.
type VersusView struct {
	Me         UserCard         `json:"me"`
	Them       UserCard         `json:"them"`
	Comparison stats.Comparison `json:"comparison"`
}

// Versus compares the caller's all-time stats against a friend's. Only
// accepted friends can be challenged.
func (s *AnalyticsService) Versus(ctx context.Context, viewerID, username string) (*VersusView, error) {
	other, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	if other.ID == viewerID {
		return nil, fmt.Errorf("%w: cannot challenge yourself", models.ErrInvalid)
	}

	f, err := s.friendships.GetBetween(ctx, viewerID, other.ID)
	if err != nil || f.Status != models.FriendshipAccepted {
		return nil, models.ErrForbidden
	}

	me, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	mine, err := s.summaryFor(ctx, viewerID, now)
	if err != nil {
		return nil, err
	}
	theirs, err := s.summaryFor(ctx, other.ID, now)
	if err != nil {
		return nil, err
	}

	return &VersusView{
		Me:         newUserCard(ctx, s.signer, me),
		Them:       newUserCard(ctx, s.signer, other),
		Comparison: stats.Compare(mine, theirs),
	}, nil
}

func (s *AnalyticsService) summaryFor(ctx context.Context, userID string, now time.Time) (stats.Summary, error) {
	logs, err := s.logs.ListByUserSince(ctx, userID, time.Time{})
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(statEntries(logs), time.Time{}, now, time.UTC), nil
}
