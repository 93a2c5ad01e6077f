package services

import (
	"context"
	"fmt"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"

	"github.com/rs/zerolog/log"
)

// CheerService handles cheering on drink logs
type CheerService struct {
	cheers       CheerStore
	logs         DrinkLogStore
	friendships  FriendshipStore
	users        UserStore
	achievements *AchievementService
	hub          *WSHub
	notifier     *Notifier
	signer       *URLSigner
}

// NewCheerService creates a new cheer service
func NewCheerService(
	cheers CheerStore,
	logs DrinkLogStore,
	friendships FriendshipStore,
	users UserStore,
	achievements *AchievementService,
	hub *WSHub,
	notifier *Notifier,
	signer *URLSigner,
) *CheerService {
	return &CheerService{
		cheers:       cheers,
		logs:         logs,
		friendships:  friendships,
		users:        users,
		achievements: achievements,
		hub:          hub,
		notifier:     notifier,
		signer:       signer,
	}
}

// Toggle flips the viewer's cheer on a post and returns the resulting
// state. Toggling twice lands back where it started.
func (s *CheerService) Toggle(ctx context.Context, viewerID, drinkLogID string) (*models.CheerState, error) {
	dl, err := s.logs.GetByID(ctx, drinkLogID)
	if err != nil {
		return nil, err
	}
	ok, err := canViewLog(ctx, s.friendships, viewerID, dl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrNotFound
	}

	cheered, count, err := s.cheers.Toggle(ctx, drinkLogID, viewerID, time.Now())
	if err != nil {
		return nil, err
	}

	if dl.UserID != viewerID {
		s.notifyOwner(ctx, viewerID, dl, cheered, count)
	}

	return &models.CheerState{Count: count, Cheered: cheered}, nil
}

// notifyOwner delivers the cheer over the hub, falling back to APNs when
// the owner has no live connection.
func (s *CheerService) notifyOwner(ctx context.Context, viewerID string, dl *models.DrinkLog, cheered bool, count int) {
	unseen, err := s.cheers.UnseenCountForOwner(ctx, dl.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", dl.UserID).Msg("Failed to count unseen cheers")
		unseen = 0
	}

	viewer, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", viewerID).Msg("Failed to load viewer for notification")
		return
	}
	s.hub.NotifyCheer(dl.UserID, newUserCard(ctx, s.signer, viewer), dl.ID, cheered, count, unseen)

	if cheered {
		if !s.hub.IsOnline(dl.UserID) {
			owner, err := s.users.GetByID(ctx, dl.UserID)
			if err == nil {
				s.notifier.Push(owner.APNSToken, "Cheers!",
					fmt.Sprintf("@%s cheered your %s", viewer.Username, dl.DrinkType.Label()), unseen)
			}
		}
		if err := s.achievements.EvaluateCheers(ctx, dl.UserID); err != nil {
			log.Warn().Err(err).Str("user_id", dl.UserID).Msg("Achievement check after cheer failed")
		}
	}
}

// StateFor returns the cheer state of each requested post the viewer may
// see. Posts outside the viewer's circle are silently dropped; visible
// posts with no cheers come back zeroed.
func (s *CheerService) StateFor(ctx context.Context, viewerID string, drinkLogIDs []string) (map[string]models.CheerState, error) {
	if len(drinkLogIDs) == 0 {
		return map[string]models.CheerState{}, nil
	}

	logs, err := s.logs.ListByIDs(ctx, drinkLogIDs)
	if err != nil {
		return nil, err
	}

	friendIDs, err := s.friendships.ListFriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	circle := make(map[string]bool, len(friendIDs)+1)
	circle[viewerID] = true
	for _, id := range friendIDs {
		circle[id] = true
	}

	visible := make([]string, 0, len(logs))
	for _, dl := range logs {
		if circle[dl.UserID] {
			visible = append(visible, dl.ID)
		}
	}

	state, err := s.cheers.StateForLogs(ctx, visible, viewerID)
	if err != nil {
		return nil, err
	}
	for _, id := range visible {
		if _, ok := state[id]; !ok {
			state[id] = models.CheerState{}
		}
	}
	return state, nil
}

// UnseenCount returns how many cheers on the caller's posts they have not
// acknowledged yet.
func (s *CheerService) UnseenCount(ctx context.Context, userID string) (int, error) {
	return s.cheers.UnseenCountForOwner(ctx, userID)
}

// MarkSeen acknowledges every cheer on the caller's posts.
func (s *CheerService) MarkSeen(ctx context.Context, userID string) error {
	return s.cheers.MarkSeenForOwner(ctx, userID)
}
