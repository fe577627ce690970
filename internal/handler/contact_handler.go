package handler

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// ContactRepoInterface は問い合わせハンドラーが必要とする永続化インターフェース。
type ContactRepoInterface interface {
	Create(ctx context.Context, msg *model.ContactMessage) error
	List(ctx context.Context) ([]model.ContactMessage, error)
}

// ContactHandler は問い合わせメッセージのHTTPハンドラー。
type ContactHandler struct {
	repo ContactRepoInterface
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(repo ContactRepoInterface) *ContactHandler {
	return &ContactHandler{repo: repo}
}

// Submit は問い合わせメッセージを受け付ける。認証不要。
// POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	var fields []string
	if strings.TrimSpace(input.Name) == "" {
		fields = append(fields, "name is required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		fields = append(fields, "email is not a valid address")
	}
	if strings.TrimSpace(input.Body) == "" {
		fields = append(fields, "body is required")
	}
	if len(fields) > 0 {
		writeError(w, r, model.NewValidationError(fields...))
		return
	}

	msg := &model.ContactMessage{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Subject:   strings.TrimSpace(input.Subject),
		Body:      input.Body,
		CreatedAt: time.Now(),
	}

	if err := h.repo.Create(r.Context(), msg); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, msg)
}

// List は全問い合わせメッセージを返す（管理者用）。
// GET /api/contact
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.repo.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, msgs)
}

// Routes は共有ルートプレフィックス配下で公開するルート一覧を返す。
// Submitは未認証で受け付けるため、authMWは一覧のみに適用される。
func (h *ContactHandler) Routes(authMW, adminMW func(http.Handler) http.Handler) RouteSet {
	return RouteSet{
		Name: "contact",
		Routes: []Route{
			{Method: http.MethodPost, Pattern: "/contact", Handler: http.HandlerFunc(h.Submit)},
			{Method: http.MethodGet, Pattern: "/contact", Handler: authMW(adminMW(http.HandlerFunc(h.List)))},
		},
	}
}
