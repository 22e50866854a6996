package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubBroadcast(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", hub.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	all := dialHub(t, srv, "")
	filtered := dialHub(t, srv, "?device_id=other")
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(&LiveUpdate{Kind: UpdateSummary, DeviceID: "strap-01", SessionID: "s-1"})

	_ = all.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := all.ReadMessage()
	require.NoError(t, err)
	var got LiveUpdate
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "strap-01", got.DeviceID)
	assert.Equal(t, UpdateSummary, got.Kind)

	// клиент с фильтром другого устройства ничего не получает
	_ = filtered.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = filtered.ReadMessage()
	assert.Error(t, err)
}

func TestHubRemovesClosedClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", hub.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn := dialHub(t, srv, "")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	_ = conn.Close()
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubCloseAllClosesFilteredClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", hub.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	filtered := dialHub(t, srv, "?device_id=strap-01")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.CloseAll()
	assert.Equal(t, 0, hub.Count())

	// сервер закрыл соединение: чтение падает сразу, а не по таймауту
	_ = filtered.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := filtered.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	assert.False(t, errors.As(err, &netErr) && netErr.Timeout(), "read timed out: %v", err)
}
