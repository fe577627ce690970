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

// FacultyRepoInterface は学部ハンドラーが必要とする永続化インターフェース。
type FacultyRepoInterface interface {
	Create(ctx context.Context, faculty *model.Faculty) error
	FindByID(ctx context.Context, id string) (*model.Faculty, error)
	List(ctx context.Context) ([]model.Faculty, error)
	Update(ctx context.Context, faculty *model.Faculty) error
	Delete(ctx context.Context, id string) error
}

// FacultyHandler は学部管理のHTTPハンドラー。
type FacultyHandler struct {
	repo FacultyRepoInterface
}

// NewFacultyHandler はFacultyHandlerを生成する。
func NewFacultyHandler(repo FacultyRepoInterface) *FacultyHandler {
	return &FacultyHandler{repo: repo}
}

// List は全学部を返す。
// GET /api/faculty
func (h *FacultyHandler) List(w http.ResponseWriter, r *http.Request) {
	faculties, err := h.repo.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, faculties)
}

// Get は指定IDの学部を返す。
// GET /api/faculty/{id}
func (h *FacultyHandler) Get(w http.ResponseWriter, r *http.Request) {
	faculty, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if faculty == nil {
		writeError(w, r, model.NewNotFoundError())
		return
	}
	writeSuccess(w, http.StatusOK, faculty)
}

// Create は学部を作成する。
// POST /api/faculty
func (h *FacultyHandler) Create(w http.ResponseWriter, r *http.Request) {
	name, err := decodeName(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := time.Now()
	faculty := &model.Faculty{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.repo.Create(r.Context(), faculty); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, faculty)
}

// Update は学部名を更新する。
// PUT /api/faculty/{id}
func (h *FacultyHandler) Update(w http.ResponseWriter, r *http.Request) {
	faculty, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if faculty == nil {
		writeError(w, r, model.NewNotFoundError())
		return
	}

	name, err := decodeName(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	faculty.Name = name
	faculty.UpdatedAt = time.Now()

	if err := h.repo.Update(r.Context(), faculty); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, faculty)
}

// Delete は学部を削除する。
// DELETE /api/faculty/{id}
func (h *FacultyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "faculty deleted")
}

// decodeName は {"name": "..."} 形式のボディを検証付きでデコードする。
func decodeName(r *http.Request) (string, error) {
	var input struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &input); err != nil {
		return "", err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", model.NewValidationError("name is required")
	}
	return name, nil
}
