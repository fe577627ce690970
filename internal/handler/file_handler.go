package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Emarwalker/project-back-deploy100/internal/auth"
	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// FileRepoInterface はファイルハンドラーが必要とする永続化インターフェース。
type FileRepoInterface interface {
	Create(ctx context.Context, file *model.StoredFile) error
	FindByID(ctx context.Context, id string) (*model.StoredFile, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.StoredFile, error)
	Delete(ctx context.Context, id string) error
}

// FileHandlerConfig はファイルハンドラーの保存先設定。
type FileHandlerConfig struct {
	UploadDir     string // 画像等の保存先（/uploads で配信）
	UploadFileDir string // 書類等の保存先（/uploadsfile で配信）
	MaxFileBytes  int64  // multipartの1ファイル上限
}

// FileHandler はファイルアップロードのHTTPハンドラー。
type FileHandler struct {
	repo   FileRepoInterface
	config FileHandlerConfig
}

// NewFileHandler はFileHandlerを生成する。
func NewFileHandler(repo FileRepoInterface, config FileHandlerConfig) *FileHandler {
	return &FileHandler{
		repo:   repo,
		config: config,
	}
}

// Upload はmultipartフォームの"file"フィールドを保存し、メタデータを登録する。
// クエリパラメータtarget=fileの場合は書類用ディレクトリへ保存する。
// 保存ファイル名にはUUIDを使用し、クライアント指定の名前をパスに含めない。
// POST /api/file
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(h.config.MaxFileBytes); err != nil {
		writeError(w, r, model.NewPolicyError(http.StatusRequestEntityTooLarge, model.MsgBodyTooLarge))
		return
	}

	src, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, model.NewValidationError("file field is required"))
		return
	}
	defer src.Close()

	dir := h.config.UploadDir
	if r.URL.Query().Get("target") == "file" {
		dir = h.config.UploadFileDir
	}

	id := uuid.NewString()
	storedName := id + filepath.Ext(header.Filename)
	storedPath := filepath.Join(dir, storedName)

	size, err := h.saveFile(storedPath, src)
	if err != nil {
		writeError(w, r, fmt.Errorf("failed to store upload: %w", err))
		return
	}

	file := &model.StoredFile{
		ID:         id,
		OwnerID:    claims.UserID,
		FileName:   header.Filename,
		StoredPath: storedPath,
		MimeType:   header.Header.Get("Content-Type"),
		SizeBytes:  size,
		CreatedAt:  time.Now(),
	}

	if err := h.repo.Create(r.Context(), file); err != nil {
		os.Remove(storedPath)
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, file)
}

// ListMine は自分のファイル一覧を返す。
// GET /api/file
func (h *FileHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	files, err := h.repo.ListByOwner(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, files)
}

// Delete は自分のファイルを削除する。実体とメタデータの両方を消す。
// 管理者は他ユーザーのファイルも削除できる。
// DELETE /api/file/{id}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	file, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if file == nil || (file.OwnerID != claims.UserID && claims.Role != model.RoleAdmin) {
		writeError(w, r, model.NewNotFoundError())
		return
	}

	if err := h.repo.Delete(r.Context(), file.ID); err != nil {
		writeError(w, r, err)
		return
	}

	if err := os.Remove(file.StoredPath); err != nil && !os.IsNotExist(err) {
		// メタデータは削除済みのため、実体の残骸はログに残すのみ
		slog.Warn("failed to remove stored file",
			slog.String("path", file.StoredPath),
			slog.String("error", err.Error()),
		)
	}

	writeMessage(w, http.StatusOK, "file deleted")
}

// saveFile はアップロード内容をディスクへ書き込み、書き込んだバイト数を返す。
func (h *FileHandler) saveFile(path string, src io.Reader) (int64, error) {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return size, nil
}

// Routes は共有ルートプレフィックス配下で公開するルート一覧を返す。
// ファイル操作は全て認証済みユーザーに限定する。
func (h *FileHandler) Routes(authMW func(http.Handler) http.Handler) RouteSet {
	return RouteSet{
		Name: "file",
		Routes: []Route{
			{Method: http.MethodPost, Pattern: "/file", Handler: authMW(http.HandlerFunc(h.Upload))},
			{Method: http.MethodGet, Pattern: "/file", Handler: authMW(http.HandlerFunc(h.ListMine))},
			{Method: http.MethodDelete, Pattern: "/file/{id}", Handler: authMW(http.HandlerFunc(h.Delete))},
		},
	}
}
