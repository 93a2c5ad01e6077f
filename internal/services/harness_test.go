package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/cache"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	users       *testutil.FakeUserStore
	logs        *testutil.FakeDrinkLogStore
	friendships *testutil.FakeFriendshipStore
	cheerStore  *testutil.FakeCheerStore
	medals      *testutil.FakeAchievementStore
	photos      *testutil.FakePhotoStorage

	userSvc      *UserService
	logSvc       *DrinkLogService
	friendSvc    *FriendshipService
	cheerSvc     *CheerService
	achSvc       *AchievementService
	feedSvc      *FeedService
	analyticsSvc *AnalyticsService
}

func newTestEnv(t *testing.T, catalog ...*models.Achievement) *testEnv {
	t.Helper()

	users := testutil.NewFakeUserStore()
	logs := testutil.NewFakeDrinkLogStore(users)
	friendships := testutil.NewFakeFriendshipStore(users)
	cheerStore := testutil.NewFakeCheerStore(logs)
	medals := testutil.NewFakeAchievementStore(catalog...)
	photos := testutil.NewFakePhotoStorage()

	mem := cache.NewMemoryCache()
	t.Cleanup(mem.Close)
	signer := NewURLSigner(photos, mem)
	hub := NewWSHub()

	achSvc := NewAchievementService(medals, logs, cheerStore, users, hub, nil)
	return &testEnv{
		users:        users,
		logs:         logs,
		friendships:  friendships,
		cheerStore:   cheerStore,
		medals:       medals,
		photos:       photos,
		userSvc:      NewUserService(users, medals, photos, signer, "test-secret", time.Hour),
		logSvc:       NewDrinkLogService(logs, friendships, photos, achSvc),
		friendSvc:    NewFriendshipService(friendships, users, achSvc, hub, nil, signer),
		cheerSvc:     NewCheerService(cheerStore, logs, friendships, users, achSvc, hub, nil, signer),
		achSvc:       achSvc,
		feedSvc:      NewFeedService(logs, friendships, cheerStore, users, signer),
		analyticsSvc: NewAnalyticsService(logs, users, friendships, signer),
	}
}

func (e *testEnv) addUser(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{
		ID:          uuid.New().String(),
		Username:    username,
		DisplayName: username,
		ShowcaseIDs: []string{},
		CreatedAt:   time.Now(),
	}
	e.users.Add(u)
	return u
}

func (e *testEnv) makeFriends(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	f, err := e.friendSvc.Request(ctx, a.ID, b.Username)
	require.NoError(t, err)
	_, err = e.friendSvc.Accept(ctx, b.ID, f.ID)
	require.NoError(t, err)
}

func (e *testEnv) addLog(t *testing.T, owner *models.User, at time.Time, drinkType models.DrinkType) *models.DrinkLog {
	t.Helper()
	dl := &models.DrinkLog{
		ID:        uuid.New().String(),
		UserID:    owner.ID,
		PhotoKey:  fmt.Sprintf("drinks/%s/%s.jpg", owner.ID, uuid.New().String()),
		DrinkType: drinkType,
		CreatedAt: at,
	}
	require.NoError(t, e.logs.Create(context.Background(), dl))
	return dl
}
