package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Relationship states between a viewer and another user.
const (
	FriendStateNone            = "none"
	FriendStatePendingSent     = "pending_sent"
	FriendStatePendingReceived = "pending_received"
	FriendStateFriends         = "friends"
)

// FriendshipService handles the friend request lifecycle
type FriendshipService struct {
	friendships  FriendshipStore
	users        UserStore
	achievements *AchievementService
	hub          *WSHub
	notifier     *Notifier
	signer       *URLSigner
}

// NewFriendshipService creates a new friendship service
func NewFriendshipService(
	friendships FriendshipStore,
	users UserStore,
	achievements *AchievementService,
	hub *WSHub,
	notifier *Notifier,
	signer *URLSigner,
) *FriendshipService {
	return &FriendshipService{
		friendships:  friendships,
		users:        users,
		achievements: achievements,
		hub:          hub,
		notifier:     notifier,
		signer:       signer,
	}
}

// Request sends a friend request to the named user. A request declined
// earlier can only be revived by the user who declined it.
func (s *FriendshipService) Request(ctx context.Context, requesterID, username string) (*models.Friendship, error) {
	target, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	if target.ID == requesterID {
		return nil, fmt.Errorf("%w: cannot friend yourself", models.ErrInvalid)
	}

	now := time.Now()
	existing, err := s.friendships.GetBetween(ctx, requesterID, target.ID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		f := &models.Friendship{
			ID:          uuid.New().String(),
			RequesterID: requesterID,
			AddresseeID: target.ID,
			Status:      models.FriendshipPending,
			CreatedAt:   now,
		}
		if err := s.friendships.Create(ctx, f); err != nil {
			return nil, err
		}
		s.notifyRequest(ctx, requesterID, target, f.ID)
		return f, nil

	case err != nil:
		return nil, err
	}

	switch existing.Status {
	case models.FriendshipAccepted:
		return nil, fmt.Errorf("%w: already friends", models.ErrConflict)

	case models.FriendshipPending:
		if existing.RequesterID == requesterID {
			return nil, fmt.Errorf("%w: request already sent", models.ErrConflict)
		}
		return nil, fmt.Errorf("%w: this user already sent you a request", models.ErrConflict)

	case models.FriendshipRejected:
		// Only the user who declined can reopen, with the direction
		// flipped to them.
		if existing.AddresseeID != requesterID {
			return nil, fmt.Errorf("%w: request was declined", models.ErrConflict)
		}
		if err := s.friendships.Repend(ctx, existing.ID, requesterID, target.ID, now); err != nil {
			return nil, err
		}
		existing.RequesterID = requesterID
		existing.AddresseeID = target.ID
		existing.Status = models.FriendshipPending
		existing.CreatedAt = now
		existing.RespondedAt = nil
		s.notifyRequest(ctx, requesterID, target, existing.ID)
		return existing, nil
	}

	return nil, fmt.Errorf("unexpected friendship status %q", existing.Status)
}

// notifyRequest delivers the request over the hub, falling back to APNs
// when the addressee has no live connection.
func (s *FriendshipService) notifyRequest(ctx context.Context, requesterID string, target *models.User, friendshipID string) {
	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", requesterID).Msg("Failed to load requester for notification")
		return
	}
	s.hub.NotifyFriendRequest(target.ID, newUserCard(ctx, s.signer, requester), friendshipID)
	if !s.hub.IsOnline(target.ID) {
		s.notifier.Push(target.APNSToken, "New friend request",
			fmt.Sprintf("@%s wants to drink with you", requester.Username), 0)
	}
}

// Accept accepts a pending request addressed to the caller, then re-checks
// friend medals for both sides.
func (s *FriendshipService) Accept(ctx context.Context, userID, friendshipID string) (*models.Friendship, error) {
	f, err := s.friendships.GetByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if f.AddresseeID != userID {
		return nil, models.ErrNotFound
	}
	if f.Status != models.FriendshipPending {
		return nil, fmt.Errorf("%w: request is no longer pending", models.ErrConflict)
	}

	now := time.Now()
	if err := s.friendships.Accept(ctx, friendshipID, now); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: request is no longer pending", models.ErrConflict)
		}
		return nil, err
	}
	f.Status = models.FriendshipAccepted
	f.RespondedAt = &now

	for _, id := range []string{f.RequesterID, f.AddresseeID} {
		if err := s.achievements.EvaluateFriends(ctx, id); err != nil {
			log.Warn().Err(err).Str("user_id", id).Msg("Achievement check after accept failed")
		}
	}

	accepter, err := s.users.GetByID(ctx, userID)
	if err == nil {
		s.hub.NotifyFriendAccepted(f.RequesterID, newUserCard(ctx, s.signer, accepter))
		if !s.hub.IsOnline(f.RequesterID) {
			requester, err := s.users.GetByID(ctx, f.RequesterID)
			if err == nil {
				s.notifier.Push(requester.APNSToken, "Friend request accepted",
					fmt.Sprintf("@%s accepted your request", accepter.Username), 0)
			}
		}
	}

	return f, nil
}

// Reject declines a pending request addressed to the caller. The
// requester is not told.
func (s *FriendshipService) Reject(ctx context.Context, userID, friendshipID string) error {
	f, err := s.friendships.GetByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if f.AddresseeID != userID {
		return models.ErrNotFound
	}
	if f.Status != models.FriendshipPending {
		return fmt.Errorf("%w: request is no longer pending", models.ErrConflict)
	}

	if err := s.friendships.Reject(ctx, friendshipID, time.Now()); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: request is no longer pending", models.ErrConflict)
		}
		return err
	}
	return nil
}

// Unfriend removes an accepted friendship with the named user.
func (s *FriendshipService) Unfriend(ctx context.Context, userID, username string) error {
	target, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return err
	}

	f, err := s.friendships.GetBetween(ctx, userID, target.ID)
	if err != nil {
		return err
	}
	if f.Status != models.FriendshipAccepted {
		return models.ErrNotFound
	}
	return s.friendships.Delete(ctx, f.ID)
}

// Friends returns the caller's accepted friends, ordered by username.
func (s *FriendshipService) Friends(ctx context.Context, userID string) ([]UserCard, error) {
	friends, err := s.friendships.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	cards := make([]UserCard, 0, len(friends))
	for _, u := range friends {
		cards = append(cards, newUserCard(ctx, s.signer, u))
	}
	return cards, nil
}

// RequestView is a pending request with the other party's card.
type RequestView struct {
	ID        string    `json:"id"`
	User      UserCard  `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// IncomingRequests returns pending requests addressed to the caller,
// newest first.
func (s *FriendshipService) IncomingRequests(ctx context.Context, userID string) ([]RequestView, error) {
	reqs, err := s.friendships.ListPendingFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.requestViews(ctx, reqs), nil
}

// SentRequests returns pending requests the caller has sent, newest first.
func (s *FriendshipService) SentRequests(ctx context.Context, userID string) ([]RequestView, error) {
	reqs, err := s.friendships.ListSentBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.requestViews(ctx, reqs), nil
}

func (s *FriendshipService) requestViews(ctx context.Context, reqs []*models.FriendRequest) []RequestView {
	views := make([]RequestView, 0, len(reqs))
	for _, r := range reqs {
		user := r.User
		views = append(views, RequestView{
			ID:        r.Friendship.ID,
			User:      newUserCard(ctx, s.signer, &user),
			CreatedAt: r.Friendship.CreatedAt,
		})
	}
	return views
}

// FriendState describes the relationship between a viewer and another
// user. The friendship ID is included only when the viewer can act on it.
type FriendState struct {
	Status       string `json:"status"`
	FriendshipID string `json:"friendship_id,omitempty"`
}

// StateBetween reports the viewer's relationship to another user. A
// declined request reads as none from both sides.
func (s *FriendshipService) StateBetween(ctx context.Context, viewerID, otherID string) (FriendState, error) {
	if viewerID == otherID {
		return FriendState{Status: FriendStateNone}, nil
	}

	f, err := s.friendships.GetBetween(ctx, viewerID, otherID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return FriendState{Status: FriendStateNone}, nil
		}
		return FriendState{}, err
	}

	switch f.Status {
	case models.FriendshipAccepted:
		return FriendState{Status: FriendStateFriends}, nil
	case models.FriendshipPending:
		if f.RequesterID == viewerID {
			return FriendState{Status: FriendStatePendingSent}, nil
		}
		return FriendState{Status: FriendStatePendingReceived, FriendshipID: f.ID}, nil
	}
	return FriendState{Status: FriendStateNone}, nil
}
