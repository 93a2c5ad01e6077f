package services

import (
	"context"
	"fmt"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/stats"

	"github.com/rs/zerolog/log"
)

// AchievementService evaluates and serves the medal catalog
type AchievementService struct {
	achievements AchievementStore
	logs         DrinkLogStore
	cheers       CheerStore
	users        UserStore
	hub          *WSHub
	notifier     *Notifier
}

// NewAchievementService creates a new achievement service
func NewAchievementService(
	achievements AchievementStore,
	logs DrinkLogStore,
	cheers CheerStore,
	users UserStore,
	hub *WSHub,
	notifier *Notifier,
) *AchievementService {
	return &AchievementService{
		achievements: achievements,
		logs:         logs,
		cheers:       cheers,
		users:        users,
		hub:          hub,
		notifier:     notifier,
	}
}

// AchievementView is a catalog entry with the viewer's unlock state.
type AchievementView struct {
	*models.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// CatalogFor returns the full medal catalog annotated with which ones the
// user has unlocked.
func (s *AchievementService) CatalogFor(ctx context.Context, userID string) ([]AchievementView, error) {
	catalog, err := s.achievements.ListCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement catalog: %w", err)
	}
	unlocked, err := s.achievements.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unlocked achievements: %w", err)
	}

	unlockedAt := make(map[string]time.Time, len(unlocked))
	for _, ua := range unlocked {
		unlockedAt[ua.AchievementID] = ua.UnlockedAt
	}

	views := make([]AchievementView, 0, len(catalog))
	for _, a := range catalog {
		view := AchievementView{Achievement: a}
		if at, ok := unlockedAt[a.ID]; ok {
			view.Unlocked = true
			at := at
			view.UnlockedAt = &at
		}
		views = append(views, view)
	}
	return views, nil
}

// EvaluateLogging re-checks every medal that depends on the user's drink
// history. Called after each new log.
func (s *AchievementService) EvaluateLogging(ctx context.Context, userID string) error {
	return s.evaluate(ctx, userID,
		models.ReqTotalLogs, models.ReqStreakDays, models.ReqDistinctTypes, models.ReqBestDay)
}

// EvaluateFriends re-checks friend-count medals. Called after an accepted
// request, for both sides.
func (s *AchievementService) EvaluateFriends(ctx context.Context, userID string) error {
	return s.evaluate(ctx, userID, models.ReqFriendCount)
}

// EvaluateCheers re-checks received-cheer medals for a post owner.
func (s *AchievementService) EvaluateCheers(ctx context.Context, userID string) error {
	return s.evaluate(ctx, userID, models.ReqCheersReceived)
}

func (s *AchievementService) evaluate(ctx context.Context, userID string, kinds ...string) error {
	kindSet := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}

	metrics, err := s.metricsFor(ctx, userID, kindSet)
	if err != nil {
		return err
	}

	catalog, err := s.achievements.ListCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to load achievement catalog: %w", err)
	}
	unlocked, err := s.achievements.ListForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load unlocked achievements: %w", err)
	}
	held := make(map[string]bool, len(unlocked))
	for _, ua := range unlocked {
		held[ua.AchievementID] = true
	}

	now := time.Now()
	for _, a := range catalog {
		if held[a.ID] || !kindSet[a.RequirementKind] {
			continue
		}
		if metrics[a.RequirementKind] < a.RequirementValue {
			continue
		}

		fresh, err := s.achievements.Unlock(ctx, userID, a.ID, now)
		if err != nil {
			return fmt.Errorf("failed to unlock achievement: %w", err)
		}
		if !fresh {
			continue
		}

		log.Info().
			Str("user_id", userID).
			Str("achievement", a.ID).
			Msg("Achievement unlocked")
		s.announce(ctx, userID, a)
	}
	return nil
}

// metricsFor computes just the metrics the requested kinds need. Streaks
// and day buckets are computed over server time.
func (s *AchievementService) metricsFor(ctx context.Context, userID string, kinds map[string]bool) (map[string]int, error) {
	metrics := make(map[string]int)

	if kinds[models.ReqTotalLogs] || kinds[models.ReqStreakDays] ||
		kinds[models.ReqDistinctTypes] || kinds[models.ReqBestDay] {
		logs, err := s.logs.ListByUserSince(ctx, userID, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("failed to load drink history: %w", err)
		}
		summary := stats.Summarize(statEntries(logs), time.Time{}, time.Now(), time.UTC)
		metrics[models.ReqTotalLogs] = summary.Total
		metrics[models.ReqStreakDays] = summary.LongestStreak
		metrics[models.ReqDistinctTypes] = summary.DistinctTypes
		metrics[models.ReqBestDay] = summary.BestDayCount
	}

	if kinds[models.ReqFriendCount] {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		metrics[models.ReqFriendCount] = user.FriendCount
	}

	if kinds[models.ReqCheersReceived] {
		received, err := s.cheers.CountReceivedByOwner(ctx, userID)
		if err != nil {
			return nil, err
		}
		metrics[models.ReqCheersReceived] = received
	}

	return metrics, nil
}

func (s *AchievementService) announce(ctx context.Context, userID string, a *models.Achievement) {
	s.hub.NotifyAchievement(userID, a)
	if s.hub.IsOnline(userID) {
		return
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load user for push")
		return
	}
	s.notifier.Push(user.APNSToken, "Medal unlocked", fmt.Sprintf("%s %s", a.Icon, a.Name), 0)
}

// statEntries reduces drink logs to the shape the stats package works on.
func statEntries(logs []*models.DrinkLog) []stats.Entry {
	entries := make([]stats.Entry, 0, len(logs))
	for _, dl := range logs {
		entries = append(entries, stats.Entry{At: dl.CreatedAt, Type: dl.DrinkType.Label()})
	}
	return entries
}
