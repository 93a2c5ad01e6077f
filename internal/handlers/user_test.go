package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileMe(t *testing.T) {
	ts := newTestServer(t)
	alice, token := ts.addUser(t, "alice")
	ts.addLog(t, alice, time.Now(), models.DrinkBeer)
	ts.addLog(t, alice, time.Now(), models.DrinkWine)

	w := ts.do(t, http.MethodGet, "/api/v1/profile/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var profile services.ProfileView
	decodeBody(t, w, &profile)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, 2, profile.DrinkCount)
	assert.Empty(t, profile.Showcase)
}

func TestUpdateProfile(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.addUser(t, "alice")

	name := "Alice in Baden"
	w := ts.do(t, http.MethodPatch, "/api/v1/profile/me", token, UpdateProfileRequest{DisplayName: &name})
	require.Equal(t, http.StatusOK, w.Code)

	var profile services.ProfileView
	decodeBody(t, w, &profile)
	assert.Equal(t, "Alice in Baden", profile.DisplayName)

	blank := "   "
	w = ts.do(t, http.MethodPatch, "/api/v1/profile/me", token, UpdateProfileRequest{DisplayName: &blank})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateShowcase_RequiresUnlockedMedal(t *testing.T) {
	medal := &models.Achievement{
		ID: "first-sip", Name: "First Sip", Tier: models.TierBronze,
		RequirementKind: models.ReqTotalLogs, RequirementValue: 1, SortOrder: 1,
	}
	ts := newTestServer(t, medal)
	alice, token := ts.addUser(t, "alice")

	w := ts.do(t, http.MethodPut, "/api/v1/profile/me/showcase", token, UpdateShowcaseRequest{
		AchievementIDs: []string{"first-sip"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "locked medals cannot be showcased")

	_, err := ts.medals.Unlock(context.Background(), alice.ID, "first-sip", time.Now())
	require.NoError(t, err)

	w = ts.do(t, http.MethodPut, "/api/v1/profile/me/showcase", token, UpdateShowcaseRequest{
		AchievementIDs: []string{"first-sip"},
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/profile/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile services.ProfileView
	decodeBody(t, w, &profile)
	require.Len(t, profile.Showcase, 1)
	assert.Equal(t, "First Sip", profile.Showcase[0].Name)
}

func TestProfileOther_PostsGatedByFriendship(t *testing.T) {
	ts := newTestServer(t)
	alice, _ := ts.addUser(t, "alice")
	bob, bobToken := ts.addUser(t, "bob")
	ts.addLog(t, alice, time.Now(), models.DrinkBeer)

	// Stranger sees the card but not the posts.
	w := ts.do(t, http.MethodGet, "/api/v1/profile/alice", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ProfileResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, services.FriendStateNone, resp.Friendship.Status)
	assert.False(t, resp.PostsVisible)
	assert.Empty(t, resp.Posts)

	// Friend sees the posts.
	ts.makeFriends(t, bob, alice)

	w = ts.do(t, http.MethodGet, "/api/v1/profile/alice", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp = ProfileResponse{}
	decodeBody(t, w, &resp)
	assert.Equal(t, services.FriendStateFriends, resp.Friendship.Status)
	assert.True(t, resp.PostsVisible)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "alice", resp.Posts[0].Author.Username)
	assert.NotEmpty(t, resp.Posts[0].PhotoURL)
}

func TestProfileOther_Unknown404(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.addUser(t, "alice")

	w := ts.do(t, http.MethodGet, "/api/v1/profile/ghost", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyticsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	alice, token := ts.addUser(t, "alice")
	now := time.Now().UTC()
	ts.addLog(t, alice, now.Add(-2*time.Hour), models.DrinkBeer)
	ts.addLog(t, alice, now.Add(-26*time.Hour), models.DrinkBeer)

	w := ts.do(t, http.MethodGet, "/api/v1/profile/me/analytics?range=1w", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view services.AnalyticsView
	decodeBody(t, w, &view)
	assert.Equal(t, "1W", string(view.Range))
	assert.Equal(t, 2, view.Summary.Total)

	w = ts.do(t, http.MethodGet, "/api/v1/profile/me/analytics?range=2Q", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/profile/me/analytics?tz=Mars%2FOlympus", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVersusEndpoint(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.addUser(t, "alice")
	bob, _ := ts.addUser(t, "bob")
	now := time.Now().UTC()
	ts.addLog(t, alice, now.Add(-time.Hour), models.DrinkBeer)
	ts.addLog(t, alice, now.Add(-2*time.Hour), models.DrinkWine)
	ts.addLog(t, bob, now.Add(-time.Hour), models.DrinkBeer)

	// Versus is friends-only.
	w := ts.do(t, http.MethodGet, "/api/v1/profile/bob/versus", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	ts.makeFriends(t, alice, bob)

	w = ts.do(t, http.MethodGet, "/api/v1/profile/bob/versus", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view services.VersusView
	decodeBody(t, w, &view)
	assert.Equal(t, "alice", view.Me.Username)
	assert.Equal(t, "bob", view.Them.Username)
	assert.Greater(t, view.Comparison.MyWins, 0)
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.addUser(t, "alice")
	ts.addUser(t, "alfred")
	ts.addUser(t, "bob")

	w := ts.do(t, http.MethodGet, "/api/v1/users/search?q=al", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Users []services.UserCard `json:"users"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp.Users, 1, "search excludes the caller")
	assert.Equal(t, "alfred", resp.Users[0].Username)

	w = ts.do(t, http.MethodGet, "/api/v1/users/search?q=a", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvatarUploadURL(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.addUser(t, "alice")

	w := ts.do(t, http.MethodGet, "/api/v1/avatar/upload-url?content_type=image%2Fpng", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var grant services.UploadGrant
	decodeBody(t, w, &grant)
	assert.Contains(t, grant.PhotoKey, "avatars/")
	assert.NotEmpty(t, grant.UploadURL)
	assert.Greater(t, grant.ExpiresIn, 0)

	w = ts.do(t, http.MethodGet, "/api/v1/avatar/upload-url?content_type=application%2Fpdf", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAchievementCatalogEndpoint(t *testing.T) {
	medals := []*models.Achievement{
		{ID: "first-sip", Name: "First Sip", Tier: models.TierBronze, RequirementKind: models.ReqTotalLogs, RequirementValue: 1, SortOrder: 1},
		{ID: "century", Name: "Century", Tier: models.TierGold, RequirementKind: models.ReqTotalLogs, RequirementValue: 100, SortOrder: 2},
	}
	ts := newTestServer(t, medals...)
	alice, token := ts.addUser(t, "alice")

	w := ts.do(t, http.MethodGet, "/api/v1/achievements", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Achievements []services.AchievementView `json:"achievements"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp.Achievements, 2)
	assert.Equal(t, "First Sip", resp.Achievements[0].Name)
	assert.False(t, resp.Achievements[0].Unlocked)

	_, err := ts.medals.Unlock(context.Background(), alice.ID, "first-sip", time.Now())
	require.NoError(t, err)

	w = ts.do(t, http.MethodGet, "/api/v1/achievements", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp.Achievements = nil
	decodeBody(t, w, &resp)
	require.Len(t, resp.Achievements, 2)
	assert.True(t, resp.Achievements[0].Unlocked)
	assert.NotNil(t, resp.Achievements[0].UnlockedAt)
	assert.False(t, resp.Achievements[1].Unlocked)
}
