package handler

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/Emarwalker/project-back-deploy100/internal/auth"
	"github.com/Emarwalker/project-back-deploy100/internal/model"
	"github.com/Emarwalker/project-back-deploy100/internal/realtime"
)

// NotificationRepoInterface は通知ストアに要求する操作。
type NotificationRepoInterface interface {
	ListByUser(ctx context.Context, userID string) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// NotificationHandler は通知一覧・既読化とWebSocket購読を提供する。
type NotificationHandler struct {
	repo NotificationRepoInterface
	hub  *realtime.Hub
}

func NewNotificationHandler(repo NotificationRepoInterface, hub *realtime.Hub) *NotificationHandler {
	return &NotificationHandler{repo: repo, hub: hub}
}

// List は自分宛の通知を新しい順に返す。
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	notifications, err := h.repo.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, notifications)
}

// MarkRead は自分宛の通知を既読にする。他人の通知IDは404扱い。
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.repo.MarkRead(r.Context(), id, claims.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "notification marked as read")
}

// ServeWS は通知のリアルタイム購読用WebSocket接続を受け付ける。
// 接続はクライアントが閉じるまで保持し、切断時にハブから登録解除する。
func (h *NotificationHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		// Acceptが失敗した時点でレスポンスは書き込み済み
		return
	}

	h.hub.Register(claims.UserID, conn)
	defer h.hub.Unregister(claims.UserID, conn)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// クライアントからの送信は想定しない。読み取りループは切断検知のためだけに回す。
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

// Register は通知関連ルートをルーターに登録する。
func (h *NotificationHandler) Register(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/{id}/read", h.MarkRead)
	r.Get("/ws", h.ServeWS)
}
