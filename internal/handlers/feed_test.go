package handlers

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_ShowsCircleNewestFirst(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.addUser(t, "alice")
	bob, _ := ts.addUser(t, "bob")
	carol, _ := ts.addUser(t, "carol")
	ts.makeFriends(t, alice, bob)

	now := time.Now().UTC()
	oldest := ts.addLog(t, alice, now.Add(-3*time.Hour), models.DrinkBeer)
	middle := ts.addLog(t, bob, now.Add(-2*time.Hour), models.DrinkWine)
	newest := ts.addLog(t, alice, now.Add(-time.Hour), models.DrinkShot)
	ts.addLog(t, carol, now, models.DrinkBeer) // stranger, never shown

	w := ts.do(t, http.MethodGet, "/api/v1/feed", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page services.FeedPage
	decodeBody(t, w, &page)
	require.Len(t, page.Posts, 3)
	assert.Equal(t, newest.ID, page.Posts[0].ID)
	assert.Equal(t, middle.ID, page.Posts[1].ID)
	assert.Equal(t, oldest.ID, page.Posts[2].ID)
	assert.Empty(t, page.NextCursor)

	// Posts come fully aggregated.
	assert.Equal(t, "bob", page.Posts[1].Author.Username)
	assert.NotEmpty(t, page.Posts[1].PhotoURL)
	assert.Equal(t, "Wine", page.Posts[1].DrinkLabel)
}

func TestFeed_Pagination(t *testing.T) {
	ts := newTestServer(t)
	alice, token := ts.addUser(t, "alice")

	now := time.Now().UTC()
	var ids []string
	for i := 0; i < 5; i++ {
		dl := ts.addLog(t, alice, now.Add(time.Duration(-i)*time.Minute), models.DrinkBeer)
		ids = append(ids, dl.ID)
	}

	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		path := "/api/v1/feed?limit=2"
		if cursor != "" {
			path += "&cursor=" + url.QueryEscape(cursor)
		}
		w := ts.do(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page services.FeedPage
		decodeBody(t, w, &page)
		for _, p := range page.Posts {
			require.False(t, seen[p.ID], "post %s served twice", p.ID)
			seen[p.ID] = true
		}
		pages++
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, seen, len(ids))
}

func TestFeed_MalformedCursor(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.addUser(t, "alice")

	w := ts.do(t, http.MethodGet, "/api/v1/feed?cursor=%21%21%21", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeed_CheerStateReflectsViewer(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.addUser(t, "alice")
	bob, bobToken := ts.addUser(t, "bob")
	ts.makeFriends(t, alice, bob)
	post := ts.addLog(t, alice, time.Now(), models.DrinkBeer)

	w := ts.do(t, http.MethodPost, "/api/v1/posts/"+post.ID+"/cheer", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Bob sees his own cheer on the post.
	var page services.FeedPage
	w = ts.do(t, http.MethodGet, "/api/v1/feed", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &page)
	require.Len(t, page.Posts, 1)
	assert.True(t, page.Posts[0].Cheers.Cheered)
	assert.Equal(t, 1, page.Posts[0].Cheers.Count)

	// Alice sees the count but not a cheer of her own.
	page = services.FeedPage{}
	w = ts.do(t, http.MethodGet, "/api/v1/feed", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &page)
	require.Len(t, page.Posts, 1)
	assert.False(t, page.Posts[0].Cheers.Cheered)
	assert.Equal(t, 1, page.Posts[0].Cheers.Count)
}
