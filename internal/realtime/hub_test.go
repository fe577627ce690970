package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	hub.Register("user-1", conn1)
	hub.Register("user-1", conn2)

	if got := hub.ConnCount("user-1"); got != 2 {
		t.Errorf("ConnCount = %d, want 2", got)
	}

	hub.Unregister("user-1", conn1)
	if got := hub.ConnCount("user-1"); got != 1 {
		t.Errorf("ConnCount after unregister = %d, want 1", got)
	}

	hub.Unregister("user-1", conn2)
	if got := hub.ConnCount("user-1"); got != 0 {
		t.Errorf("ConnCount after all unregistered = %d, want 0", got)
	}
}

func TestHub_PushToUserWithoutConnectionsIsNoop(t *testing.T) {
	hub := NewHub()

	// 接続がないユーザーへのプッシュは何も起きない（通知はDB経由で届く）
	hub.Push(context.Background(), &model.Notification{ID: "n-1", UserID: "offline-user"})
}

func TestHub_PushDeliversNotificationToConnectedClient(t *testing.T) {
	hub := NewHub()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("Accept failed: %v", err)
			return
		}

		hub.Register("user-1", conn)
		defer hub.Unregister("user-1", conn)

		// クライアントが切断するまで保持
		conn.Read(r.Context())
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+server.URL[len("http"):], nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// サーバー側の登録完了を待つ
	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnCount("user-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection was not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	want := &model.Notification{ID: "n-1", UserID: "user-1", Title: "test", Body: "hello"}
	hub.Push(ctx, want)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var got model.Notification
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("failed to decode pushed message: %v", err)
	}
	if got.ID != "n-1" || got.Title != "test" {
		t.Errorf("pushed notification = %+v, want ID n-1 / title test", got)
	}
}
