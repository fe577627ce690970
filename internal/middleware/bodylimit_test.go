package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimitMiddleware_RejectsDeclaredOversizeBody(t *testing.T) {
	handlerCalled := false
	handler := NewBodyLimitMiddleware(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/activity", strings.NewReader(strings.Repeat("a", 100)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
	if handlerCalled {
		t.Error("handler was called for oversize body")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Success {
		t.Error("success = true, want false")
	}
}

func TestBodyLimitMiddleware_AllowsBodyWithinLimit(t *testing.T) {
	handler := NewBodyLimitMiddleware(1024)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/activity", strings.NewReader(`{"name":"x"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestBodyLimitMiddleware_AllowsBodylessGetRequests(t *testing.T) {
	handler := NewBodyLimitMiddleware(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestBodyLimitMiddleware_RejectsOversizeBodyOnGet(t *testing.T) {
	// メソッドによる抜け道はない。ボディ付きGETも上限の対象
	handlerCalled := false
	handler := NewBodyLimitMiddleware(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/activity", strings.NewReader(strings.Repeat("a", 100)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusRequestEntityTooLarge)
	}
	if handlerCalled {
		t.Error("handler was called for oversize GET body")
	}
}

func TestBodyLimitMiddleware_SkipsMultipartUploads(t *testing.T) {
	// multipartはファイルアップロード側の上限で制御するため対象外
	handler := NewBodyLimitMiddleware(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/file", strings.NewReader(strings.Repeat("a", 100)))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestBodyLimitMiddleware_DetectsUndeclaredOversizeOnRead(t *testing.T) {
	// Content-Length申告なし（chunked相当）はMaxBytesReaderが読み取り時に検出する
	handler := NewBodyLimitMiddleware(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/activity", strings.NewReader(strings.Repeat("a", 100)))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusRequestEntityTooLarge)
	}
}
