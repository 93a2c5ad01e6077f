// Package testutil provides in-memory store implementations backing the
// service and handler tests. Each fake mirrors the behavior of its
// database-backed counterpart, including counter maintenance and ordering.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/repository"
)

// FakeUserStore is an in-memory UserStore.
type FakeUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewFakeUserStore creates an empty fake user store.
func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{users: make(map[string]*models.User)}
}

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.ShowcaseIDs = append([]string{}, u.ShowcaseIDs...)
	return &cp
}

// Add seeds a user directly, bypassing validation.
func (s *FakeUserStore) Add(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = copyUser(u)
}

func (s *FakeUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return models.ErrConflict
		}
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *FakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *FakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *FakeUserStore) GetManyByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = copyUser(u)
		}
	}
	return out, nil
}

func (s *FakeUserStore) UsernameExists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *FakeUserStore) UpdateProfile(_ context.Context, userID string, displayName, avatarKey *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	if displayName != nil {
		u.DisplayName = *displayName
	}
	if avatarKey != nil {
		if *avatarKey == "" {
			u.AvatarKey = nil
		} else {
			key := *avatarKey
			u.AvatarKey = &key
		}
	}
	return nil
}

func (s *FakeUserStore) UpdateShowcase(_ context.Context, userID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.ShowcaseIDs = append([]string{}, ids...)
	return nil
}

func (s *FakeUserStore) UpdateAPNSToken(_ context.Context, userID string, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.APNSToken = token
	return nil
}

func (s *FakeUserStore) SearchByUsername(_ context.Context, prefix string, limit int) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.User
	for _, u := range s.users {
		if len(u.Username) >= len(prefix) && u.Username[:len(prefix)] == prefix {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *FakeUserStore) adjustFriendCount(ids []string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			u.FriendCount += delta
			if u.FriendCount < 0 {
				u.FriendCount = 0
			}
		}
	}
}

func (s *FakeUserStore) adjustDrinkCount(id string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.DrinkCount += delta
		if u.DrinkCount < 0 {
			u.DrinkCount = 0
		}
	}
}

// FakeDrinkLogStore is an in-memory DrinkLogStore. It keeps the owner's
// drink counter in step, like the transactional repository does.
type FakeDrinkLogStore struct {
	mu    sync.RWMutex
	logs  map[string]*models.DrinkLog
	users *FakeUserStore
}

// NewFakeDrinkLogStore creates an empty fake drink log store.
func NewFakeDrinkLogStore(users *FakeUserStore) *FakeDrinkLogStore {
	return &FakeDrinkLogStore{logs: make(map[string]*models.DrinkLog), users: users}
}

func copyLog(dl *models.DrinkLog) *models.DrinkLog {
	cp := *dl
	return &cp
}

func (s *FakeDrinkLogStore) Create(_ context.Context, dl *models.DrinkLog) error {
	s.mu.Lock()
	s.logs[dl.ID] = copyLog(dl)
	s.mu.Unlock()
	s.users.adjustDrinkCount(dl.UserID, 1)
	return nil
}

func (s *FakeDrinkLogStore) GetByID(_ context.Context, id string) (*models.DrinkLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dl, ok := s.logs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyLog(dl), nil
}

func (s *FakeDrinkLogStore) ListByIDs(_ context.Context, ids []string) ([]*models.DrinkLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DrinkLog
	for _, id := range ids {
		if dl, ok := s.logs[id]; ok {
			out = append(out, copyLog(dl))
		}
	}
	return out, nil
}

func (s *FakeDrinkLogStore) Update(_ context.Context, id string, drinkType models.DrinkType, caption *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dl, ok := s.logs[id]
	if !ok {
		return models.ErrNotFound
	}
	dl.DrinkType = drinkType
	dl.Caption = caption
	return nil
}

func (s *FakeDrinkLogStore) Delete(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	dl, ok := s.logs[id]
	if !ok {
		s.mu.Unlock()
		return "", models.ErrNotFound
	}
	delete(s.logs, id)
	s.mu.Unlock()
	s.users.adjustDrinkCount(dl.UserID, -1)
	return dl.PhotoKey, nil
}

func (s *FakeDrinkLogStore) ListByUsers(_ context.Context, userIDs []string, before *repository.Cursor, limit int) ([]*models.DrinkLog, error) {
	owners := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		owners[id] = true
	}

	s.mu.RLock()
	var out []*models.DrinkLog
	for _, dl := range s.logs {
		if !owners[dl.UserID] {
			continue
		}
		if before != nil {
			if dl.CreatedAt.After(before.CreatedAt) {
				continue
			}
			if dl.CreatedAt.Equal(before.CreatedAt) && dl.ID >= before.ID {
				continue
			}
		}
		out = append(out, copyLog(dl))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *FakeDrinkLogStore) ListByUserSince(_ context.Context, userID string, since time.Time) ([]*models.DrinkLog, error) {
	s.mu.RLock()
	var out []*models.DrinkLog
	for _, dl := range s.logs {
		if dl.UserID == userID && !dl.CreatedAt.Before(since) {
			out = append(out, copyLog(dl))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// FakeFriendshipStore is an in-memory FriendshipStore. Accepting and
// unfriending adjust both users' friend counters, like the transactional
// repository does.
type FakeFriendshipStore struct {
	mu    sync.RWMutex
	edges map[string]*models.Friendship
	users *FakeUserStore
}

// NewFakeFriendshipStore creates an empty fake friendship store.
func NewFakeFriendshipStore(users *FakeUserStore) *FakeFriendshipStore {
	return &FakeFriendshipStore{edges: make(map[string]*models.Friendship), users: users}
}

func copyEdge(f *models.Friendship) *models.Friendship {
	cp := *f
	if f.RespondedAt != nil {
		at := *f.RespondedAt
		cp.RespondedAt = &at
	}
	return &cp
}

func samePair(f *models.Friendship, a, b string) bool {
	return (f.RequesterID == a && f.AddresseeID == b) || (f.RequesterID == b && f.AddresseeID == a)
}

func (s *FakeFriendshipStore) Create(_ context.Context, f *models.Friendship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.edges {
		if samePair(existing, f.RequesterID, f.AddresseeID) {
			return models.ErrConflict
		}
	}
	s.edges[f.ID] = copyEdge(f)
	return nil
}

func (s *FakeFriendshipStore) GetByID(_ context.Context, id string) (*models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.edges[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyEdge(f), nil
}

func (s *FakeFriendshipStore) GetBetween(_ context.Context, userA, userB string) (*models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.edges {
		if samePair(f, userA, userB) {
			return copyEdge(f), nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *FakeFriendshipStore) Accept(_ context.Context, id string, respondedAt time.Time) error {
	s.mu.Lock()
	f, ok := s.edges[id]
	if !ok || f.Status != models.FriendshipPending {
		s.mu.Unlock()
		return models.ErrNotFound
	}
	f.Status = models.FriendshipAccepted
	f.RespondedAt = &respondedAt
	requester, addressee := f.RequesterID, f.AddresseeID
	s.mu.Unlock()

	s.users.adjustFriendCount([]string{requester, addressee}, 1)
	return nil
}

func (s *FakeFriendshipStore) Reject(_ context.Context, id string, respondedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.edges[id]
	if !ok || f.Status != models.FriendshipPending {
		return models.ErrNotFound
	}
	f.Status = models.FriendshipRejected
	f.RespondedAt = &respondedAt
	return nil
}

func (s *FakeFriendshipStore) Repend(_ context.Context, id, requesterID, addresseeID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.edges[id]
	if !ok {
		return models.ErrNotFound
	}
	f.RequesterID = requesterID
	f.AddresseeID = addresseeID
	f.Status = models.FriendshipPending
	f.CreatedAt = at
	f.RespondedAt = nil
	return nil
}

func (s *FakeFriendshipStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	f, ok := s.edges[id]
	if !ok {
		s.mu.Unlock()
		return models.ErrNotFound
	}
	delete(s.edges, id)
	wasAccepted := f.Status == models.FriendshipAccepted
	requester, addressee := f.RequesterID, f.AddresseeID
	s.mu.Unlock()

	if wasAccepted {
		s.users.adjustFriendCount([]string{requester, addressee}, -1)
	}
	return nil
}

func (s *FakeFriendshipStore) ListFriendIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, f := range s.edges {
		if f.Status != models.FriendshipAccepted {
			continue
		}
		switch userID {
		case f.RequesterID:
			ids = append(ids, f.AddresseeID)
		case f.AddresseeID:
			ids = append(ids, f.RequesterID)
		}
	}
	return ids, nil
}

func (s *FakeFriendshipStore) ListFriends(ctx context.Context, userID string) ([]*models.User, error) {
	ids, err := s.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID, err := s.users.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	friends := make([]*models.User, 0, len(byID))
	for _, u := range byID {
		friends = append(friends, u)
	}
	sort.Slice(friends, func(i, j int) bool { return friends[i].Username < friends[j].Username })
	return friends, nil
}

func (s *FakeFriendshipStore) ListPendingFor(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	return s.listRequests(ctx, userID, true)
}

func (s *FakeFriendshipStore) ListSentBy(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	return s.listRequests(ctx, userID, false)
}

func (s *FakeFriendshipStore) listRequests(ctx context.Context, userID string, incoming bool) ([]*models.FriendRequest, error) {
	s.mu.RLock()
	var edges []*models.Friendship
	for _, f := range s.edges {
		if f.Status != models.FriendshipPending {
			continue
		}
		if (incoming && f.AddresseeID == userID) || (!incoming && f.RequesterID == userID) {
			edges = append(edges, copyEdge(f))
		}
	}
	s.mu.RUnlock()

	sort.Slice(edges, func(i, j int) bool { return edges[i].CreatedAt.After(edges[j].CreatedAt) })

	reqs := make([]*models.FriendRequest, 0, len(edges))
	for _, f := range edges {
		otherID := f.RequesterID
		if !incoming {
			otherID = f.AddresseeID
		}
		other, err := s.users.GetByID(ctx, otherID)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, &models.FriendRequest{Friendship: *f, User: *other})
	}
	return reqs, nil
}

type fakeCheer struct {
	userID    string
	seen      bool
	createdAt time.Time
}

// FakeCheerStore is an in-memory CheerStore.
type FakeCheerStore struct {
	mu     sync.RWMutex
	cheers map[string][]fakeCheer // drink log ID -> cheers
	logs   *FakeDrinkLogStore
}

// NewFakeCheerStore creates an empty fake cheer store.
func NewFakeCheerStore(logs *FakeDrinkLogStore) *FakeCheerStore {
	return &FakeCheerStore{cheers: make(map[string][]fakeCheer), logs: logs}
}

func (s *FakeCheerStore) Toggle(_ context.Context, drinkLogID, userID string, now time.Time) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.cheers[drinkLogID]
	for i, c := range list {
		if c.userID == userID {
			s.cheers[drinkLogID] = append(list[:i], list[i+1:]...)
			return false, len(s.cheers[drinkLogID]), nil
		}
	}
	s.cheers[drinkLogID] = append(list, fakeCheer{userID: userID, createdAt: now})
	return true, len(s.cheers[drinkLogID]), nil
}

func (s *FakeCheerStore) StateForLogs(_ context.Context, logIDs []string, viewerID string) (map[string]models.CheerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := make(map[string]models.CheerState, len(logIDs))
	for _, id := range logIDs {
		list := s.cheers[id]
		if len(list) == 0 {
			continue
		}
		cs := models.CheerState{Count: len(list)}
		for _, c := range list {
			if c.userID == viewerID {
				cs.Cheered = true
				break
			}
		}
		state[id] = cs
	}
	return state, nil
}

func (s *FakeCheerStore) ownerCheers(ctx context.Context, ownerID string) []fakeCheer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []fakeCheer
	for logID, list := range s.cheers {
		dl, err := s.logs.GetByID(ctx, logID)
		if err != nil || dl.UserID != ownerID {
			continue
		}
		for _, c := range list {
			if c.userID != ownerID {
				out = append(out, c)
			}
		}
	}
	return out
}

func (s *FakeCheerStore) UnseenCountForOwner(ctx context.Context, ownerID string) (int, error) {
	count := 0
	for _, c := range s.ownerCheers(ctx, ownerID) {
		if !c.seen {
			count++
		}
	}
	return count, nil
}

func (s *FakeCheerStore) MarkSeenForOwner(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for logID, list := range s.cheers {
		dl, err := s.logs.GetByID(ctx, logID)
		if err != nil || dl.UserID != ownerID {
			continue
		}
		for i := range list {
			list[i].seen = true
		}
		s.cheers[logID] = list
	}
	return nil
}

func (s *FakeCheerStore) CountReceivedByOwner(ctx context.Context, ownerID string) (int, error) {
	return len(s.ownerCheers(ctx, ownerID)), nil
}

// FakeAchievementStore is an in-memory AchievementStore.
type FakeAchievementStore struct {
	mu       sync.RWMutex
	catalog  []*models.Achievement
	unlocked map[string]map[string]time.Time // user ID -> achievement ID -> at
}

// NewFakeAchievementStore creates a fake achievement store with the given
// catalog.
func NewFakeAchievementStore(catalog ...*models.Achievement) *FakeAchievementStore {
	return &FakeAchievementStore{
		catalog:  catalog,
		unlocked: make(map[string]map[string]time.Time),
	}
}

func (s *FakeAchievementStore) ListCatalog(_ context.Context) ([]*models.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Achievement, len(s.catalog))
	copy(out, s.catalog)
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *FakeAchievementStore) ListForUser(_ context.Context, userID string) ([]*models.UserAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UserAchievement
	for id, at := range s.unlocked[userID] {
		out = append(out, &models.UserAchievement{UserID: userID, AchievementID: id, UnlockedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnlockedAt.Before(out[j].UnlockedAt) })
	return out, nil
}

func (s *FakeAchievementStore) Unlock(_ context.Context, userID, achievementID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unlocked[userID] == nil {
		s.unlocked[userID] = make(map[string]time.Time)
	}
	if _, held := s.unlocked[userID][achievementID]; held {
		return false, nil
	}
	s.unlocked[userID][achievementID] = at
	return true, nil
}

// FakePhotoStorage is an in-memory PhotoStorage that hands out
// deterministic keys and URLs.
type FakePhotoStorage struct {
	mu      sync.Mutex
	counter int
	Deleted []string
}

// NewFakePhotoStorage creates a fake photo storage.
func NewFakePhotoStorage() *FakePhotoStorage {
	return &FakePhotoStorage{}
}

func (s *FakePhotoStorage) nextKey(prefix, userID, ext string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("%s/%s/%d%s", prefix, userID, s.counter, ext)
}

func (s *FakePhotoStorage) NewDrinkPhotoKey(userID, ext string) string {
	return s.nextKey("drinks", userID, ext)
}

func (s *FakePhotoStorage) NewAvatarKey(userID, ext string) string {
	return s.nextKey("avatars", userID, ext)
}

func hasPrefix(key, prefix string) bool {
	return len(key) > len(prefix) && key[:len(prefix)] == prefix
}

func (s *FakePhotoStorage) OwnsDrinkKey(userID, key string) bool {
	return hasPrefix(key, "drinks/"+userID+"/")
}

func (s *FakePhotoStorage) OwnsAvatarKey(userID, key string) bool {
	return hasPrefix(key, "avatars/"+userID+"/")
}

func (s *FakePhotoStorage) PresignUpload(_ context.Context, key, _ string) (string, int, error) {
	return "https://storage.test/upload/" + key, 300, nil
}

func (s *FakePhotoStorage) SignedGetURL(_ context.Context, key string) (string, error) {
	return "https://storage.test/signed/" + key, nil
}

func (s *FakePhotoStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, key)
	return nil
}
