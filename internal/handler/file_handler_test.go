package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Emarwalker/project-back-deploy100/internal/auth"
	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

func authedRequest(r *http.Request, userID string, role model.Role) *http.Request {
	ctx := auth.ContextWithClaims(r.Context(), &auth.TokenClaims{UserID: userID, Role: role})
	return r.WithContext(ctx)
}

func newMultipartRequest(t *testing.T, url, fieldName, fileName, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	io.WriteString(fw, content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestFileHandler(t *testing.T, repo FileRepoInterface) (*FileHandler, FileHandlerConfig) {
	t.Helper()

	cfg := FileHandlerConfig{
		UploadDir:     t.TempDir(),
		UploadFileDir: t.TempDir(),
		MaxFileBytes:  1 << 20,
	}
	return NewFileHandler(repo, cfg), cfg
}

func TestFileHandler_UploadStoresFileWithUUIDName(t *testing.T) {
	var created *model.StoredFile
	repo := &mockFileRepo{
		createFn: func(ctx context.Context, file *model.StoredFile) error {
			created = file
			return nil
		},
	}
	h, cfg := newTestFileHandler(t, repo)

	req := authedRequest(newMultipartRequest(t, "/api/file", "file", "evidence.pdf", "pdf-bytes"), "user-1", model.RoleStudent)
	w := httptest.NewRecorder()
	h.Upload(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", w.Result().StatusCode, http.StatusCreated, w.Body.String())
	}
	if created == nil {
		t.Fatal("file metadata was not persisted")
	}
	if created.OwnerID != "user-1" {
		t.Errorf("owner = %q, want user-1", created.OwnerID)
	}
	if created.FileName != "evidence.pdf" {
		t.Errorf("file name = %q, want evidence.pdf", created.FileName)
	}

	// 保存名はクライアント指定の名前を含まない（UUID + 拡張子）
	base := filepath.Base(created.StoredPath)
	if base == "evidence.pdf" {
		t.Error("stored name must not reuse the client file name")
	}
	if filepath.Ext(base) != ".pdf" {
		t.Errorf("stored name ext = %q, want .pdf", filepath.Ext(base))
	}

	// 実体がデフォルトディレクトリに書き込まれている
	if filepath.Dir(created.StoredPath) != cfg.UploadDir {
		t.Errorf("stored dir = %q, want %q", filepath.Dir(created.StoredPath), cfg.UploadDir)
	}
	data, err := os.ReadFile(created.StoredPath)
	if err != nil {
		t.Fatalf("stored file is not readable: %v", err)
	}
	if string(data) != "pdf-bytes" {
		t.Errorf("stored content = %q, want %q", data, "pdf-bytes")
	}
}

func TestFileHandler_UploadTargetFileUsesDocumentDir(t *testing.T) {
	repo := &mockFileRepo{
		createFn: func(ctx context.Context, file *model.StoredFile) error { return nil },
	}
	h, cfg := newTestFileHandler(t, repo)

	req := authedRequest(newMultipartRequest(t, "/api/file?target=file", "file", "report.docx", "doc"), "user-1", model.RoleStudent)
	w := httptest.NewRecorder()
	h.Upload(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}

	entries, err := os.ReadDir(cfg.UploadFileDir)
	if err != nil {
		t.Fatalf("failed to read document dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("document dir entry count = %d, want 1", len(entries))
	}
}

func TestFileHandler_UploadRequiresFileField(t *testing.T) {
	h, _ := newTestFileHandler(t, &mockFileRepo{})

	req := authedRequest(newMultipartRequest(t, "/api/file", "wrong-field", "x.txt", "x"), "user-1", model.RoleStudent)
	w := httptest.NewRecorder()
	h.Upload(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestFileHandler_UploadRemovesFileWhenMetadataFails(t *testing.T) {
	repo := &mockFileRepo{
		createFn: func(ctx context.Context, file *model.StoredFile) error {
			return model.NewUnexpectedError(os.ErrClosed)
		},
	}
	h, cfg := newTestFileHandler(t, repo)

	req := authedRequest(newMultipartRequest(t, "/api/file", "file", "x.txt", "x"), "user-1", model.RoleStudent)
	w := httptest.NewRecorder()
	h.Upload(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}

	// メタデータ登録に失敗したら実体も残さない
	entries, err := os.ReadDir(cfg.UploadDir)
	if err != nil {
		t.Fatalf("failed to read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("upload dir entry count = %d, want 0", len(entries))
	}
}

func deleteRequestWithID(id string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/api/file/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestFileHandler_DeleteRejectsOtherUsersFile(t *testing.T) {
	repo := &mockFileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.StoredFile, error) {
			return &model.StoredFile{ID: id, OwnerID: "someone-else"}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			t.Error("Delete was called for another user's file")
			return nil
		},
	}
	h, _ := newTestFileHandler(t, repo)

	req := authedRequest(deleteRequestWithID("file-1"), "user-1", model.RoleStudent)
	w := httptest.NewRecorder()
	h.Delete(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestFileHandler_AdminCanDeleteAnyFile(t *testing.T) {
	deleted := false
	repo := &mockFileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.StoredFile, error) {
			return &model.StoredFile{ID: id, OwnerID: "someone-else", StoredPath: filepath.Join(os.TempDir(), "missing-file")}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	h, _ := newTestFileHandler(t, repo)

	req := authedRequest(deleteRequestWithID("file-1"), "admin-1", model.RoleAdmin)
	w := httptest.NewRecorder()
	h.Delete(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if !deleted {
		t.Error("file metadata was not deleted")
	}
}
