package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/repository"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 50
)

// FeedService assembles the reverse-chronological drink feed
type FeedService struct {
	logs        DrinkLogStore
	friendships FriendshipStore
	cheers      CheerStore
	users       UserStore
	signer      *URLSigner
}

// NewFeedService creates a new feed service
func NewFeedService(
	logs DrinkLogStore,
	friendships FriendshipStore,
	cheers CheerStore,
	users UserStore,
	signer *URLSigner,
) *FeedService {
	return &FeedService{
		logs:        logs,
		friendships: friendships,
		cheers:      cheers,
		users:       users,
		signer:      signer,
	}
}

// PostView is a drink log ready for the client: author card, signed photo
// URL, and the viewer's cheer state.
type PostView struct {
	ID         string            `json:"id"`
	Author     UserCard          `json:"author"`
	PhotoURL   string            `json:"photo_url"`
	DrinkType  models.DrinkType  `json:"drink_type"`
	DrinkLabel string            `json:"drink_label"`
	DrinkName  *string           `json:"drink_name,omitempty"`
	Caption    *string           `json:"caption,omitempty"`
	Cheers     models.CheerState `json:"cheers"`
	CreatedAt  time.Time         `json:"created_at"`
}

// FeedPage is one page of posts. NextCursor is empty on the last page.
type FeedPage struct {
	Posts      []PostView `json:"posts"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func encodeCursor(c repository.Cursor) string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (*repository.Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", models.ErrInvalid)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: malformed cursor", models.ErrInvalid)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", models.ErrInvalid)
	}
	return &repository.Cursor{CreatedAt: createdAt, ID: parts[1]}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultFeedLimit
	}
	if limit > maxFeedLimit {
		return maxFeedLimit
	}
	return limit
}

// Feed returns a page of the viewer's feed: their own posts and their
// friends' posts, newest first.
func (s *FeedService) Feed(ctx context.Context, viewerID, cursor string, limit int) (*FeedPage, error) {
	before, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	friendIDs, err := s.friendships.ListFriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	userIDs := append(friendIDs, viewerID)

	return s.page(ctx, viewerID, userIDs, before, limit)
}

// UserPosts returns a page of one user's posts. Only the owner and
// accepted friends may look.
func (s *FeedService) UserPosts(ctx context.Context, viewerID, userID, cursor string, limit int) (*FeedPage, error) {
	before, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	if viewerID != userID {
		f, err := s.friendships.GetBetween(ctx, viewerID, userID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.ErrForbidden
			}
			return nil, err
		}
		if f.Status != models.FriendshipAccepted {
			return nil, models.ErrForbidden
		}
	}

	return s.page(ctx, viewerID, []string{userID}, before, limit)
}

func (s *FeedService) page(ctx context.Context, viewerID string, userIDs []string, before *repository.Cursor, limit int) (*FeedPage, error) {
	// Probe one past the limit to learn whether another page exists.
	logs, err := s.logs.ListByUsers(ctx, userIDs, before, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(logs) > limit
	if hasMore {
		logs = logs[:limit]
	}

	posts, err := s.buildPosts(ctx, viewerID, logs)
	if err != nil {
		return nil, err
	}

	page := &FeedPage{Posts: posts}
	if hasMore {
		last := logs[len(logs)-1]
		page.NextCursor = encodeCursor(repository.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func (s *FeedService) buildPosts(ctx context.Context, viewerID string, logs []*models.DrinkLog) ([]PostView, error) {
	posts := make([]PostView, 0, len(logs))
	if len(logs) == 0 {
		return posts, nil
	}

	authorIDs := make([]string, 0, len(logs))
	seenAuthors := make(map[string]bool, len(logs))
	logIDs := make([]string, 0, len(logs))
	for _, dl := range logs {
		logIDs = append(logIDs, dl.ID)
		if !seenAuthors[dl.UserID] {
			seenAuthors[dl.UserID] = true
			authorIDs = append(authorIDs, dl.UserID)
		}
	}

	authors, err := s.users.GetManyByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	cheerState, err := s.cheers.StateForLogs(ctx, logIDs, viewerID)
	if err != nil {
		return nil, err
	}

	for _, dl := range logs {
		author, ok := authors[dl.UserID]
		if !ok {
			continue
		}
		photoURL, err := s.signer.SignedURL(ctx, dl.PhotoKey)
		if err != nil {
			return nil, err
		}
		posts = append(posts, PostView{
			ID:         dl.ID,
			Author:     newUserCard(ctx, s.signer, author),
			PhotoURL:   photoURL,
			DrinkType:  dl.DrinkType,
			DrinkLabel: dl.DrinkType.Label(),
			DrinkName:  dl.DrinkName,
			Caption:    dl.Caption,
			Cheers:     cheerState[dl.ID],
			CreatedAt:  dl.CreatedAt,
		})
	}
	return posts, nil
}
