package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// ActivityRepoInterface は活動ハンドラーが必要とする永続化インターフェース。
type ActivityRepoInterface interface {
	Create(ctx context.Context, activity *model.Activity) error
	FindByID(ctx context.Context, id string) (*model.Activity, error)
	List(ctx context.Context, openOnly bool) ([]model.Activity, error)
	Update(ctx context.Context, activity *model.Activity) error
	Delete(ctx context.Context, id string) error
}

// activityInput は活動の作成・更新の入力。
type activityInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  string    `json:"categoryId"`
	Location    string    `json:"location"`
	Hours       int       `json:"hours"`
	MaxSeats    int       `json:"maxSeats"`
	StartAt     time.Time `json:"startAt"`
	EndAt       time.Time `json:"endAt"`
	Open        *bool     `json:"open"`
}

// validate は活動入力を検証し、フィールド単位のメッセージを返す。
func (in *activityInput) validate() []string {
	var fields []string
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, "title is required")
	}
	if in.Hours < 0 {
		fields = append(fields, "hours must not be negative")
	}
	if in.StartAt.IsZero() || in.EndAt.IsZero() {
		fields = append(fields, "startAt and endAt are required")
	} else if in.EndAt.Before(in.StartAt) {
		fields = append(fields, "endAt must not be before startAt")
	}
	return fields
}

// ActivityHandler はボランティア活動のHTTPハンドラー。
type ActivityHandler struct {
	repo ActivityRepoInterface
}

// NewActivityHandler はActivityHandlerを生成する。
func NewActivityHandler(repo ActivityRepoInterface) *ActivityHandler {
	return &ActivityHandler{repo: repo}
}

// List は全活動を返す。
// GET /api/activity
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	activities, err := h.repo.List(r.Context(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, activities)
}

// ListOpen は募集中の活動のみを返す。
// GET /api/activity/open
func (h *ActivityHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	activities, err := h.repo.List(r.Context(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, activities)
}

// Get は指定IDの活動を返す。
// GET /api/activity/{id}
func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	activity, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if activity == nil {
		writeError(w, r, model.NewNotFoundError())
		return
	}
	writeSuccess(w, http.StatusOK, activity)
}

// Create は活動を作成する。
// POST /api/activity
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input activityInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	if fields := input.validate(); len(fields) > 0 {
		writeError(w, r, model.NewValidationError(fields...))
		return
	}

	open := true
	if input.Open != nil {
		open = *input.Open
	}

	now := time.Now()
	activity := &model.Activity{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		CategoryID:  input.CategoryID,
		Location:    input.Location,
		Hours:       input.Hours,
		MaxSeats:    input.MaxSeats,
		StartAt:     input.StartAt,
		EndAt:       input.EndAt,
		Open:        open,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.repo.Create(r.Context(), activity); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, activity)
}

// Update は活動を更新する。
// PUT /api/activity/{id}
func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	activity, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if activity == nil {
		writeError(w, r, model.NewNotFoundError())
		return
	}

	var input activityInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	if fields := input.validate(); len(fields) > 0 {
		writeError(w, r, model.NewValidationError(fields...))
		return
	}

	activity.Title = strings.TrimSpace(input.Title)
	activity.Description = input.Description
	activity.CategoryID = input.CategoryID
	activity.Location = input.Location
	activity.Hours = input.Hours
	activity.MaxSeats = input.MaxSeats
	activity.StartAt = input.StartAt
	activity.EndAt = input.EndAt
	if input.Open != nil {
		activity.Open = *input.Open
	}
	activity.UpdatedAt = time.Now()

	if err := h.repo.Update(r.Context(), activity); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, activity)
}

// Delete は活動を削除する。
// DELETE /api/activity/{id}
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "activity deleted")
}

// Routes は共有ルートプレフィックス配下で公開するルート一覧を返す。
// 参照系は未認証で公開し、書き込み系は認証済み管理者のみに制限する。
func (h *ActivityHandler) Routes(authMW, adminMW func(http.Handler) http.Handler) RouteSet {
	admin := func(hf http.HandlerFunc) http.Handler { return authMW(adminMW(hf)) }

	return RouteSet{
		Name: "activity",
		Routes: []Route{
			{Method: http.MethodGet, Pattern: "/activity", Handler: http.HandlerFunc(h.List)},
			{Method: http.MethodGet, Pattern: "/activity/open", Handler: http.HandlerFunc(h.ListOpen)},
			{Method: http.MethodGet, Pattern: "/activity/{id}", Handler: http.HandlerFunc(h.Get)},
			{Method: http.MethodPost, Pattern: "/activity", Handler: admin(h.Create)},
			{Method: http.MethodPut, Pattern: "/activity/{id}", Handler: admin(h.Update)},
			{Method: http.MethodDelete, Pattern: "/activity/{id}", Handler: admin(h.Delete)},
		},
	}
}
