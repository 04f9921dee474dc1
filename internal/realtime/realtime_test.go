package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firstindallas/backend/internal/auth"
	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/internal/syncjobs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authenticator(tokens map[string]models.Role) Authenticator {
	return func(token string) (auth.Session, error) {
		role, ok := tokens[token]
		if !ok {
			return auth.Session{}, errors.New("bad token")
		}
		return auth.Session{UserID: uuid.New(), Role: role}, nil
	}
}

func newServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	e := gin.New()
	e.GET("/admin/ws", ServeWs(hub, NewUpgrader(nil), nil, authenticator(map[string]models.Role{
		"admin-token":     models.RoleAdmin,
		"organizer-token": models.RoleOrganizer,
	})))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func dial(srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/ws?token=" + token
	return websocket.DefaultDialer.Dial(u, nil)
}

func TestServeWs_AdminReceivesPublishedEvents(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	srv := newServer(t, hub)

	conn, _, err := dial(srv, "admin-token")
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count(RoomAdmin) == 1 }, time.Second, 5*time.Millisecond)

	n := NewNotifier(hub)
	require.NoError(t, n.SubmissionsChanged(context.Background(), 3))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventSubmissionsChanged, msg.Event)
	assert.JSONEq(t, `{"pending_count":3}`, string(msg.Data))

	require.NoError(t, conn.WriteJSON(WSMessage{Event: "ping"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Event)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Count(RoomAdmin) == 0 }, time.Second, 5*time.Millisecond)
}

func TestServeWs_Rejections(t *testing.T) {
	srv := newServer(t, NewHub(nil, nil, nil))
	tests := []struct {
		token string
		code  int
	}{
		{"", http.StatusUnauthorized},
		{"forged", http.StatusUnauthorized},
		{"organizer-token", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			_, resp, err := dial(srv, tt.token)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) PublishRoomEvent(_ context.Context, room, event string, _ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, room+"/"+event)
	return nil
}

func TestPublish_GoesThroughRedisWhenConfigured(t *testing.T) {
	pub := &recordingPublisher{}
	hub := NewHub(nil, pub, nil)
	n := NewNotifier(hub)

	require.NoError(t, n.TaskUpdated(context.Background(), syncjobs.TaskView{SyncTask: models.SyncTask{ID: 4}}))
	assert.Equal(t, []string{"admin/task_update"}, pub.events)
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	up := NewUpgrader([]string{"https://admin.firstindallas.com/"})
	req := httptest.NewRequest(http.MethodGet, "http://api.firstindallas.com/admin/ws", nil)

	req.Header.Set("Origin", "https://admin.firstindallas.com")
	assert.True(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "http://api.firstindallas.com")
	assert.True(t, up.CheckOrigin(req))
}
