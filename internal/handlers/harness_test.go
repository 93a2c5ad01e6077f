package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/cache"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/middleware"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// testServer wires the real handlers and services over in-memory stores
// and serves them through the same route table the binary uses.
type testServer struct {
	users       *testutil.FakeUserStore
	logs        *testutil.FakeDrinkLogStore
	friendships *testutil.FakeFriendshipStore
	cheerStore  *testutil.FakeCheerStore
	medals      *testutil.FakeAchievementStore
	photos      *testutil.FakePhotoStorage

	userSvc   *services.UserService
	friendSvc *services.FriendshipService
	cheerSvc  *services.CheerService
	hub       *services.WSHub

	router chi.Router
}

func newTestServer(t *testing.T, catalog ...*models.Achievement) *testServer {
	t.Helper()

	users := testutil.NewFakeUserStore()
	logs := testutil.NewFakeDrinkLogStore(users)
	friendships := testutil.NewFakeFriendshipStore(users)
	cheerStore := testutil.NewFakeCheerStore(logs)
	medals := testutil.NewFakeAchievementStore(catalog...)
	photos := testutil.NewFakePhotoStorage()

	mem := cache.NewMemoryCache()
	t.Cleanup(mem.Close)
	signer := services.NewURLSigner(photos, mem)
	hub := services.NewWSHub()

	achSvc := services.NewAchievementService(medals, logs, cheerStore, users, hub, nil)
	userSvc := services.NewUserService(users, medals, photos, signer, "test-secret", time.Hour)
	logSvc := services.NewDrinkLogService(logs, friendships, photos, achSvc)
	friendSvc := services.NewFriendshipService(friendships, users, achSvc, hub, nil, signer)
	cheerSvc := services.NewCheerService(cheerStore, logs, friendships, users, achSvc, hub, nil, signer)
	feedSvc := services.NewFeedService(logs, friendships, cheerStore, users, signer)
	analyticsSvc := services.NewAnalyticsService(logs, users, friendships, signer)

	authHandler := NewAuthHandler(userSvc)
	userHandler := NewUserHandler(userSvc, friendSvc, feedSvc, analyticsSvc)
	friendHandler := NewFriendHandler(friendSvc)
	postHandler := NewPostHandler(logSvc, cheerSvc)
	feedHandler := NewFeedHandler(feedSvc)
	cheerHandler := NewCheerHandler(cheerSvc)
	achievementHandler := NewAchievementHandler(achSvc)
	wsHandler := NewWebSocketHandler(hub, userSvc, cheerSvc)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userSvc))

			r.Get("/feed", feedHandler.Get)

			r.Get("/profile/me", userHandler.Me)
			r.Patch("/profile/me", userHandler.UpdateMe)
			r.Put("/profile/me/showcase", userHandler.UpdateShowcase)
			r.Put("/profile/me/push-token", userHandler.UpdatePushToken)
			r.Get("/profile/me/analytics", userHandler.Analytics)
			r.Get("/profile/{username}", userHandler.Profile)
			r.Get("/profile/{username}/versus", userHandler.Versus)
			r.Get("/users/search", userHandler.Search)
			r.Get("/avatar/upload-url", userHandler.AvatarUploadURL)

			r.Post("/friends/add", friendHandler.Add)
			r.Post("/friends/{friendship_id}/accept", friendHandler.Accept)
			r.Post("/friends/{friendship_id}/reject", friendHandler.Reject)
			r.Delete("/friends/{username}", friendHandler.Unfriend)
			r.Get("/friends", friendHandler.List)
			r.Get("/friends/requests", friendHandler.Requests)
			r.Get("/friends/sent", friendHandler.Sent)

			r.Post("/posts/upload-url", postHandler.UploadURL)
			r.Post("/posts", postHandler.Create)
			r.Get("/posts/{post_id}", postHandler.Get)
			r.Patch("/posts/{post_id}", postHandler.Update)
			r.Delete("/posts/{post_id}", postHandler.Delete)
			r.Post("/posts/{post_id}/cheer", postHandler.Cheer)

			r.Post("/cheers/state", cheerHandler.State)
			r.Get("/cheers/unseen", cheerHandler.Unseen)
			r.Post("/cheers/seen", cheerHandler.MarkSeen)

			r.Get("/achievements", achievementHandler.Catalog)
		})
	})
	r.Get("/ws", wsHandler.HandleWebSocket)

	return &testServer{
		users:       users,
		logs:        logs,
		friendships: friendships,
		cheerStore:  cheerStore,
		medals:      medals,
		photos:      photos,
		userSvc:     userSvc,
		friendSvc:   friendSvc,
		cheerSvc:    cheerSvc,
		hub:         hub,
		router:      r,
	}
}

// do performs a request against the router. An empty token leaves the
// request unauthenticated.
func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), "body: %s", w.Body.String())
}

// addUser seeds an account directly, skipping the bcrypt work of the
// register endpoint, and returns it with a valid session token.
func (ts *testServer) addUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	u := &models.User{
		ID:          uuid.New().String(),
		Username:    username,
		DisplayName: username,
		ShowcaseIDs: []string{},
		CreatedAt:   time.Now(),
	}
	ts.users.Add(u)
	token, err := ts.userSvc.GenerateJWT(u.ID)
	require.NoError(t, err)
	return u, token
}

func (ts *testServer) makeFriends(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	f, err := ts.friendSvc.Request(ctx, a.ID, b.Username)
	require.NoError(t, err)
	_, err = ts.friendSvc.Accept(ctx, b.ID, f.ID)
	require.NoError(t, err)
}

func (ts *testServer) addLog(t *testing.T, owner *models.User, at time.Time, drinkType models.DrinkType) *models.DrinkLog {
	t.Helper()
	dl := &models.DrinkLog{
		ID:        uuid.New().String(),
		UserID:    owner.ID,
		PhotoKey:  fmt.Sprintf("drinks/%s/%s.jpg", owner.ID, uuid.New().String()),
		DrinkType: drinkType,
		CreatedAt: at,
	}
	require.NoError(t, ts.logs.Create(context.Background(), dl))
	return dl
}
