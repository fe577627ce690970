package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Emarwalker/project-back-deploy100/internal/auth"
	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// ProfileRepoInterface はプロフィールハンドラーが必要とする永続化インターフェース。
type ProfileRepoInterface interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// ProfileHandler は自分自身のプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	repo ProfileRepoInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(repo ProfileRepoInterface) *ProfileHandler {
	return &ProfileHandler{repo: repo}
}

// Get は自分のプロフィールを返す。
// GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, user)
}

// Update は自分のプロフィールを更新する。
// PUT /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		FacultyID *string `json:"facultyId"`
	}
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.FacultyID != nil {
		user.FacultyID = *input.FacultyID
	}
	user.UpdatedAt = time.Now()

	if err := h.repo.Update(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, user)
}

// ChangePassword は自分のパスワードを変更する。
// 現在のパスワードの照合に失敗した場合は検証エラーを返す。
// PUT /api/profile/password
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	if len(input.NewPassword) < 8 {
		writeError(w, r, model.NewValidationError("newPassword must be at least 8 characters"))
		return
	}
	if !auth.CheckPassword(user.PasswordHash, input.CurrentPassword) {
		writeError(w, r, model.NewValidationError("current password is incorrect"))
		return
	}

	hash, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user.PasswordHash = hash
	user.UpdatedAt = time.Now()

	if err := h.repo.Update(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "password changed")
}

// currentUser はトークンの主体に対応するユーザーを取得する。
func (h *ProfileHandler) currentUser(r *http.Request) (*model.User, error) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		return nil, err
	}

	user, err := h.repo.FindByID(r.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewNotFoundError()
	}
	return user, nil
}
