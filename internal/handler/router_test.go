package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Emarwalker/project-back-deploy100/internal/auth"
	"github.com/Emarwalker/project-back-deploy100/internal/config"
	"github.com/Emarwalker/project-back-deploy100/internal/metrics"
	"github.com/Emarwalker/project-back-deploy100/internal/middleware"
	"github.com/Emarwalker/project-back-deploy100/internal/model"
	"github.com/Emarwalker/project-back-deploy100/internal/realtime"
	"github.com/Emarwalker/project-back-deploy100/internal/security"
)

// --- verifyRouteSets のテスト ---

func TestVerifyRouteSets_AcceptsDistinctRoutes(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	sets := []RouteSet{
		{Name: "activity", Routes: []Route{
			{Method: http.MethodGet, Pattern: "/activity", Handler: okHandler},
			{Method: http.MethodPost, Pattern: "/activity", Handler: okHandler},
		}},
		{Name: "file", Routes: []Route{
			{Method: http.MethodGet, Pattern: "/file", Handler: okHandler},
		}},
	}

	if err := verifyRouteSets(sets); err != nil {
		t.Errorf("verifyRouteSets returned error for distinct routes: %v", err)
	}
}

func TestVerifyRouteSets_DetectsDuplicateMethodAndPattern(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	sets := []RouteSet{
		{Name: "activity", Routes: []Route{
			{Method: http.MethodGet, Pattern: "/activity", Handler: okHandler},
		}},
		{Name: "rogue", Routes: []Route{
			{Method: http.MethodGet, Pattern: "/activity", Handler: okHandler},
		}},
	}

	err := verifyRouteSets(sets)
	if err == nil {
		t.Fatal("verifyRouteSets did not detect duplicate route")
	}
}

func TestVerifyRouteSets_AllowsSamePatternWithDifferentMethods(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	sets := []RouteSet{
		{Name: "a", Routes: []Route{{Method: http.MethodGet, Pattern: "/x", Handler: okHandler}}},
		{Name: "b", Routes: []Route{{Method: http.MethodDelete, Pattern: "/x", Handler: okHandler}}},
	}

	if err := verifyRouteSets(sets); err != nil {
		t.Errorf("verifyRouteSets returned error: %v", err)
	}
}

// --- ルーター統合テスト用モック ---

type mockAuthService struct {
	registerFn    func(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	loginFn       func(ctx context.Context, email, password string) (*model.User, string, error)
	currentUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
	return m.registerFn(ctx, input)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	return m.currentUserFn(ctx, userID)
}

type mockUserRepo struct {
	listFn     func(ctx context.Context) ([]model.User, error)
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
	updateFn   func(ctx context.Context, user *model.User) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockUserRepo) List(ctx context.Context) ([]model.User, error) {
	return m.listFn(ctx)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	return m.updateFn(ctx, user)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

type mockNameRepo[T any] struct {
	createFn   func(ctx context.Context, v *T) error
	findByIDFn func(ctx context.Context, id string) (*T, error)
	listFn     func(ctx context.Context) ([]T, error)
	updateFn   func(ctx context.Context, v *T) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockNameRepo[T]) Create(ctx context.Context, v *T) error { return m.createFn(ctx, v) }
func (m *mockNameRepo[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockNameRepo[T]) List(ctx context.Context) ([]T, error)  { return m.listFn(ctx) }
func (m *mockNameRepo[T]) Update(ctx context.Context, v *T) error { return m.updateFn(ctx, v) }
func (m *mockNameRepo[T]) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

type mockActivityRepo struct {
	createFn   func(ctx context.Context, activity *model.Activity) error
	findByIDFn func(ctx context.Context, id string) (*model.Activity, error)
	listFn     func(ctx context.Context, openOnly bool) ([]model.Activity, error)
	updateFn   func(ctx context.Context, activity *model.Activity) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockActivityRepo) Create(ctx context.Context, activity *model.Activity) error {
	return m.createFn(ctx, activity)
}

func (m *mockActivityRepo) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockActivityRepo) List(ctx context.Context, openOnly bool) ([]model.Activity, error) {
	return m.listFn(ctx, openOnly)
}

func (m *mockActivityRepo) Update(ctx context.Context, activity *model.Activity) error {
	return m.updateFn(ctx, activity)
}

func (m *mockActivityRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

type mockPlanService struct {
	joinFn            func(ctx context.Context, userID, activityID string) (*model.ActivityPlan, error)
	listForUserFn     func(ctx context.Context, userID string) ([]model.ActivityPlan, error)
	listForActivityFn func(ctx context.Context, activityID string) ([]model.ActivityPlan, error)
	approveFn         func(ctx context.Context, planID string) (*model.ActivityPlan, error)
	rejectFn          func(ctx context.Context, planID string) (*model.ActivityPlan, error)
	attachEvidenceFn  func(ctx context.Context, planID, userID, fileID string) error
}

func (m *mockPlanService) Join(ctx context.Context, userID, activityID string) (*model.ActivityPlan, error) {
	return m.joinFn(ctx, userID, activityID)
}

func (m *mockPlanService) ListForUser(ctx context.Context, userID string) ([]model.ActivityPlan, error) {
	return m.listForUserFn(ctx, userID)
}

func (m *mockPlanService) ListForActivity(ctx context.Context, activityID string) ([]model.ActivityPlan, error) {
	return m.listForActivityFn(ctx, activityID)
}

func (m *mockPlanService) Approve(ctx context.Context, planID string) (*model.ActivityPlan, error) {
	return m.approveFn(ctx, planID)
}

func (m *mockPlanService) Reject(ctx context.Context, planID string) (*model.ActivityPlan, error) {
	return m.rejectFn(ctx, planID)
}

func (m *mockPlanService) AttachEvidence(ctx context.Context, planID, userID, fileID string) error {
	return m.attachEvidenceFn(ctx, planID, userID, fileID)
}

type mockFileRepo struct {
	createFn      func(ctx context.Context, file *model.StoredFile) error
	findByIDFn    func(ctx context.Context, id string) (*model.StoredFile, error)
	listByOwnerFn func(ctx context.Context, ownerID string) ([]model.StoredFile, error)
	deleteFn      func(ctx context.Context, id string) error
}

func (m *mockFileRepo) Create(ctx context.Context, file *model.StoredFile) error {
	return m.createFn(ctx, file)
}

func (m *mockFileRepo) FindByID(ctx context.Context, id string) (*model.StoredFile, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockFileRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.StoredFile, error) {
	return m.listByOwnerFn(ctx, ownerID)
}

func (m *mockFileRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

type mockContactRepo struct {
	createFn func(ctx context.Context, msg *model.ContactMessage) error
	listFn   func(ctx context.Context) ([]model.ContactMessage, error)
}

func (m *mockContactRepo) Create(ctx context.Context, msg *model.ContactMessage) error {
	return m.createFn(ctx, msg)
}

func (m *mockContactRepo) List(ctx context.Context) ([]model.ContactMessage, error) {
	return m.listFn(ctx)
}

type mockNotificationRepo struct {
	listByUserFn func(ctx context.Context, userID string) ([]model.Notification, error)
	markReadFn   func(ctx context.Context, id, userID string) error
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	return m.listByUserFn(ctx, userID)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	return m.markReadFn(ctx, id, userID)
}

// --- ルーター統合テスト ---

const testJWTSecret = "router-test-secret"

// newTestRouter は統合テスト用に全依存をモックで構成したルーターを返す。
func newTestRouter(t *testing.T, activityRepo *mockActivityRepo) http.Handler {
	t.Helper()
	return newTestRouterWithHub(t, activityRepo, realtime.NewHub())
}

// newTestRouterWithHub は通知配信ハブを差し込んでルーターを構成する。
func newTestRouterWithHub(t *testing.T, activityRepo *mockActivityRepo, hub *realtime.Hub) http.Handler {
	t.Helper()

	cfg := &config.Config{
		AllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitMax:    1000,
		RateLimitWindow: time.Minute,
		BodyLimitBytes:  1 << 20,
		RequestTimeout:  5 * time.Second,
		UploadDir:       t.TempDir(),
		UploadFileDir:   t.TempDir(),
	}

	issuer := auth.NewTokenIssuer(testJWTSecret, time.Hour)
	store := middleware.NewMemoryCounterStore(0)
	registry := prometheus.NewRegistry()

	if activityRepo == nil {
		activityRepo = &mockActivityRepo{
			listFn: func(ctx context.Context, openOnly bool) ([]model.Activity, error) {
				return []model.Activity{}, nil
			},
		}
	}

	deps := &RouterDeps{
		Config: cfg,

		Auth: NewAuthHandler(&mockAuthService{}, AuthHandlerConfig{}),
		User: NewUserHandler(&mockUserRepo{
			listFn: func(ctx context.Context) ([]model.User, error) { return []model.User{}, nil },
		}),
		Faculty:  NewFacultyHandler(&mockNameRepo[model.Faculty]{}),
		Category: NewCategoryHandler(&mockNameRepo[model.Category]{}),
		Profile:  NewProfileHandler(&mockUserRepo{}),
		Activity: NewActivityHandler(activityRepo),
		Plan:     NewPlanHandler(&mockPlanService{}),
		File: NewFileHandler(&mockFileRepo{}, FileHandlerConfig{
			UploadDir:     cfg.UploadDir,
			UploadFileDir: cfg.UploadFileDir,
			MaxFileBytes:  1 << 20,
		}),
		Contact:      NewContactHandler(&mockContactRepo{}),
		Notification: NewNotificationHandler(&mockNotificationRepo{}, hub),

		AuthMW:  auth.NewAuthMiddleware(issuer),
		AdminMW: auth.NewAdminMiddleware(),

		Collector:   metrics.NewCollector(registry),
		Gatherer:    registry,
		RateLimiter: middleware.NewRateLimiter(middleware.RateLimiterConfig{Max: 1000, Window: time.Minute}, store),
		Sanitizer:   security.NewRequestSanitizer(),
	}

	router, err := NewRouter(deps)
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	return router
}

func TestRouter_HealthzReturnsOK(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_UnknownRouteReturnsEnvelope404(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Success {
		t.Error("success = true, want false")
	}
	if body.Message != model.MsgNotFound {
		t.Errorf("message = %q, want %q", body.Message, model.MsgNotFound)
	}
}

func TestRouter_ActivityListIsPublic(t *testing.T) {
	activityRepo := &mockActivityRepo{
		listFn: func(ctx context.Context, openOnly bool) ([]model.Activity, error) {
			return []model.Activity{{Title: "beach cleanup"}}, nil
		},
	}
	router := newTestRouter(t, activityRepo)

	req := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_AdminRouteRequiresToken(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/user/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestRouter_AdminRouteRejectsStudentRole(t *testing.T) {
	router := newTestRouter(t, nil)

	issuer := auth.NewTokenIssuer(testJWTSecret, time.Hour)
	token, err := issuer.Issue("user-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestRouter_AdminRouteAllowsAdminRole(t *testing.T) {
	router := newTestRouter(t, nil)

	issuer := auth.NewTokenIssuer(testJWTSecret, time.Hour)
	token, err := issuer.Issue("admin-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_DeniedOriginIsRejectedBeforeRouting(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestRouter_NotificationChannelUpgradesThroughMiddlewareChain(t *testing.T) {
	// WebSocketアップグレードは全ミドルウェアを通した実サーバー経由で成立すること
	hub := realtime.NewHub()
	router := newTestRouterWithHub(t, nil, hub)

	server := httptest.NewServer(router)
	defer server.Close()

	issuer := auth.NewTokenIssuer(testJWTSecret, time.Hour)
	token, err := issuer.Issue("user-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + server.URL[len("http"):] + "/api/notifications/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		t.Fatalf("websocket upgrade failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// サーバー側の登録完了を待つ
	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnCount("user-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection was not registered in the hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Push(ctx, &model.Notification{ID: "n-1", UserID: "user-1", Title: "approved"})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var got model.Notification
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("failed to decode pushed message: %v", err)
	}
	if got.ID != "n-1" || got.Title != "approved" {
		t.Errorf("pushed notification = %+v, want ID n-1 / title approved", got)
	}
}

func TestRouter_SecurityHeadersOnErrorResponses(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Result().Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
}
