package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// CategoryRepoInterface はカテゴリハンドラーが必要とする永続化インターフェース。
type CategoryRepoInterface interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id string) error
}

// CategoryHandler は活動カテゴリ管理のHTTPハンドラー。
type CategoryHandler struct {
	repo CategoryRepoInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(repo CategoryRepoInterface) *CategoryHandler {
	return &CategoryHandler{repo: repo}
}

// List は全カテゴリを返す。
// GET /api/category
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, categories)
}

// Get は指定IDのカテゴリを返す。
// GET /api/category/{id}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if category == nil {
		writeError(w, r, model.NewNotFoundError())
		return
	}
	writeSuccess(w, http.StatusOK, category)
}

// Create はカテゴリを作成する。
// POST /api/category
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	name, err := decodeName(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := time.Now()
	category := &model.Category{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.repo.Create(r.Context(), category); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, category)
}

// Update はカテゴリ名を更新する。
// PUT /api/category/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	category, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if category == nil {
		writeError(w, r, model.NewNotFoundError())
		return
	}

	name, err := decodeName(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	category.Name = name
	category.UpdatedAt = time.Now()

	if err := h.repo.Update(r.Context(), category); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, category)
}

// Delete はカテゴリを削除する。
// DELETE /api/category/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "category deleted")
}
