package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocket_RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/ws?token=garbage", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebSocket_PushesCheerEvents(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.addUser(t, "alice")
	bob, bobToken := ts.addUser(t, "bob")
	ts.makeFriends(t, alice, bob)
	post := ts.addLog(t, alice, time.Now(), models.DrinkBeer)

	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + aliceToken
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	readMessage := func() services.WSMessage {
		var msg services.WSMessage
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	// A fresh connection starts with the unseen badge.
	msg := readMessage()
	assert.Equal(t, services.EventUnseenCheers, msg.Type)

	// A friend cheering lands as a push.
	w := ts.do(t, http.MethodPost, "/api/v1/posts/"+post.ID+"/cheer", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	msg = readMessage()
	assert.Equal(t, services.EventCheer, msg.Type)

	// Toggling off pushes the removal.
	w = ts.do(t, http.MethodPost, "/api/v1/posts/"+post.ID+"/cheer", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	msg = readMessage()
	assert.Equal(t, services.EventCheerRemoved, msg.Type)
}
