package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// UserRepoInterface はユーザー管理ハンドラーが必要とする永続化インターフェース。
type UserRepoInterface interface {
	List(ctx context.Context) ([]model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// UserHandler はユーザー管理（管理者用）のHTTPハンドラー。
type UserHandler struct {
	repo UserRepoInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(repo UserRepoInterface) *UserHandler {
	return &UserHandler{repo: repo}
}

// List は全ユーザーを返す。
// GET /api/user
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, users)
}

// Get は指定IDのユーザーを返す。
// GET /api/user/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeError(w, r, model.NewNotFoundError())
		return
	}
	writeSuccess(w, http.StatusOK, user)
}

// Update は指定IDのユーザー属性を更新する。
// PUT /api/user/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeError(w, r, model.NewNotFoundError())
		return
	}

	var input struct {
		FirstName *string     `json:"firstName"`
		LastName  *string     `json:"lastName"`
		FacultyID *string     `json:"facultyId"`
		Role      *model.Role `json:"role"`
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
	if input.Role != nil {
		if *input.Role != model.RoleStudent && *input.Role != model.RoleAdmin {
			writeError(w, r, model.NewValidationError("role must be student or admin"))
			return
		}
		user.Role = *input.Role
	}

	if err := h.repo.Update(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, user)
}

// Delete は指定IDのユーザーを削除する。
// DELETE /api/user/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "user deleted")
}
