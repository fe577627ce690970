package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Emarwalker/project-back-deploy100/internal/auth"
	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// PlanServiceInterface は参加申請ハンドラーが必要とするサービスインターフェース。
type PlanServiceInterface interface {
	Join(ctx context.Context, userID, activityID string) (*model.ActivityPlan, error)
	ListForUser(ctx context.Context, userID string) ([]model.ActivityPlan, error)
	ListForActivity(ctx context.Context, activityID string) ([]model.ActivityPlan, error)
	Approve(ctx context.Context, planID string) (*model.ActivityPlan, error)
	Reject(ctx context.Context, planID string) (*model.ActivityPlan, error)
	AttachEvidence(ctx context.Context, planID, userID, fileID string) error
}

// PlanHandler は活動参加申請のHTTPハンドラー。
type PlanHandler struct {
	service PlanServiceInterface
}

// NewPlanHandler はPlanHandlerを生成する。
func NewPlanHandler(service PlanServiceInterface) *PlanHandler {
	return &PlanHandler{service: service}
}

// Join は活動への参加申請を登録する。
// POST /api/plan-activity
func (h *PlanHandler) Join(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input struct {
		ActivityID string `json:"activityId"`
	}
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(input.ActivityID) == "" {
		writeError(w, r, model.NewValidationError("activityId is required"))
		return
	}

	p, err := h.service.Join(r.Context(), claims.UserID, input.ActivityID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, p)
}

// ListMine は自分の参加申請一覧を返す。
// GET /api/plan-activity
func (h *PlanHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	plans, err := h.service.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, plans)
}

// ListByActivity は指定活動の参加申請一覧を返す（管理者用）。
// GET /api/plan-activity/activity/{activityID}
func (h *PlanHandler) ListByActivity(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListForActivity(r.Context(), chi.URLParam(r, "activityID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, plans)
}

// Approve は参加申請を承認する（管理者用）。
// PUT /api/plan-activity/{id}/approve
func (h *PlanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, p)
}

// Reject は参加申請を却下する（管理者用）。
// PUT /api/plan-activity/{id}/reject
func (h *PlanHandler) Reject(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, p)
}

// AttachEvidence は自分の参加申請に証憑ファイルを添付する。
// PUT /api/plan-activity/{id}/evidence
func (h *PlanHandler) AttachEvidence(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input struct {
		FileID string `json:"fileId"`
	}
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(input.FileID) == "" {
		writeError(w, r, model.NewValidationError("fileId is required"))
		return
	}

	if err := h.service.AttachEvidence(r.Context(), chi.URLParam(r, "id"), claims.UserID, input.FileID); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "evidence attached")
}

// Routes は共有ルートプレフィックス配下で公開するルート一覧を返す。
// 全ルート認証必須で、審査系は管理者のみに制限する。
func (h *PlanHandler) Routes(authMW, adminMW func(http.Handler) http.Handler) RouteSet {
	admin := func(hf http.HandlerFunc) http.Handler { return authMW(adminMW(hf)) }

	return RouteSet{
		Name: "plan-activity",
		Routes: []Route{
			{Method: http.MethodPost, Pattern: "/plan-activity", Handler: authMW(http.HandlerFunc(h.Join))},
			{Method: http.MethodGet, Pattern: "/plan-activity", Handler: authMW(http.HandlerFunc(h.ListMine))},
			{Method: http.MethodGet, Pattern: "/plan-activity/activity/{activityID}", Handler: admin(h.ListByActivity)},
			{Method: http.MethodPut, Pattern: "/plan-activity/{id}/approve", Handler: admin(h.Approve)},
			{Method: http.MethodPut, Pattern: "/plan-activity/{id}/reject", Handler: admin(h.Reject)},
			{Method: http.MethodPut, Pattern: "/plan-activity/{id}/evidence", Handler: authMW(http.HandlerFunc(h.AttachEvidence))},
		},
	}
}
