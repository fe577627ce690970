// Package realtime は通知のリアルタイム配信チャネルを提供する。
//
// HubはユーザーIDごとのWebSocket接続を管理し、通知作成時にJSONエンコード
// したメッセージを接続中のクライアントへプッシュする。接続がないユーザーへの
// プッシュは何もしない（通知はDBに残り、一覧APIで取得できる）。
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// writeTimeout は1接続への書き込みの上限時間。
// 詰まったクライアントが配信全体を止めないようにする。
const writeTimeout = 5 * time.Second

// Hub はユーザーIDごとのWebSocket接続レジストリ。
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]struct{}
}

// NewHub はHubを生成する。
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// Register はユーザーの接続を登録する。
// 同一ユーザーの複数接続（複数タブ）を許容する。
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
}

// Unregister はユーザーの接続を登録解除する。
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// ConnCount は指定ユーザーの接続数を返す。テストおよびメトリクス用。
func (h *Hub) ConnCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Push は通知を対象ユーザーの全接続へ配信する。
// 書き込みに失敗した接続はクローズして登録解除する。
func (h *Hub) Push(ctx context.Context, n *model.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		slog.Error("failed to encode notification", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(h.conns[n.UserID]))
	for conn := range h.conns[n.UserID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := h.write(ctx, conn, data); err != nil {
			slog.Warn("failed to push notification",
				slog.String("user_id", n.UserID),
				slog.String("error", err.Error()),
			)
			conn.Close(websocket.StatusInternalError, "write failed")
			h.Unregister(n.UserID, conn)
		}
	}
}

// write は1接続へタイムアウト付きで書き込む。
func (h *Hub) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}
