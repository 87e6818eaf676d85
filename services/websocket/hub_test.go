package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newHubServer mounts ServeWS behind a plain HTTP test server. The user id
// rides on the query string so each dialed connection registers as its own
// client.
func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := strconv.ParseUint(r.URL.Query().Get("user"), 10, 64)
		hub.ServeWS(w, r, uint(userID), r.URL.Query().Get("role"))
	}))
	t.Cleanup(server.Close)
	return hub, server
}

func dialHub(t *testing.T, server *httptest.Server, userID uint, role string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") +
		"?user=" + strconv.FormatUint(uint64(userID), 10) + "&role=" + role
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing hub: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decoding event %q: %v", raw, err)
	}
	return msg
}

func TestHubBroadcastReachesEveryClient(t *testing.T) {
	hub, server := newHubServer(t)

	admin := dialHub(t, server, 1, "admin")
	professor := dialHub(t, server, 2, "professor")
	waitForClients(t, hub, 2)

	hub.Broadcast(Message{Type: "timetable_published", Data: map[string]interface{}{"year_id": float64(3)}})

	for _, conn := range []*websocket.Conn{admin, professor} {
		msg := readEvent(t, conn)
		if msg.Type != "timetable_published" {
			t.Fatalf("event type = %q, want timetable_published", msg.Type)
		}
		payload, ok := msg.Data.(map[string]interface{})
		if !ok || payload["year_id"] != float64(3) {
			t.Fatalf("event payload = %v, want year_id 3", msg.Data)
		}
	}
}

func TestHubBroadcastToUserTargetsOneUser(t *testing.T) {
	hub, server := newHubServer(t)

	target := dialHub(t, server, 7, "professor")
	bystander := dialHub(t, server, 8, "professor")
	waitForClients(t, hub, 2)

	hub.BroadcastToUser(7, Message{Type: "class_status_changed", Data: map[string]interface{}{"entry_id": float64(42)}})

	msg := readEvent(t, target)
	if msg.Type != "class_status_changed" {
		t.Fatalf("event type = %q, want class_status_changed", msg.Type)
	}

	bystander.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := bystander.ReadMessage(); err == nil {
		t.Fatal("bystander received an event addressed to another user")
	}
}

func TestHubUnregistersClosedConnections(t *testing.T) {
	hub, server := newHubServer(t)

	conn := dialHub(t, server, 1, "admin")
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}
