package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Emarwalker/project-back-deploy100/internal/config"
	"github.com/Emarwalker/project-back-deploy100/internal/metrics"
	"github.com/Emarwalker/project-back-deploy100/internal/middleware"
	"github.com/Emarwalker/project-back-deploy100/internal/security"
)

// Route は1エンドポイントの宣言。メソッドとパターンの組で一意でなければならない。
type Route struct {
	Method  string
	Pattern string
	Handler http.Handler
}

// RouteSet は共有プレフィックス配下にマウントするルート群。
// Nameは衝突検出時のエラーメッセージに使う。
type RouteSet struct {
	Name   string
	Routes []Route
}

// verifyRouteSets は全ルート集合を横断してメソッド+パターンの重複を検出する。
// 重複があればどの集合同士が衝突したかを示すエラーを返す。
func verifyRouteSets(sets []RouteSet) error {
	seen := make(map[string]string)
	for _, set := range sets {
		for _, route := range set.Routes {
			key := route.Method + " " + route.Pattern
			if owner, ok := seen[key]; ok {
				return fmt.Errorf("route conflict: %q is declared by both %q and %q", key, owner, set.Name)
			}
			seen[key] = set.Name
		}
	}
	return nil
}

// RouterDeps はルーター組み立てに必要な依存一式。
type RouterDeps struct {
	Config *config.Config

	Auth         *AuthHandler
	User         *UserHandler
	Faculty      *FacultyHandler
	Category     *CategoryHandler
	Profile      *ProfileHandler
	Activity     *ActivityHandler
	Plan         *PlanHandler
	File         *FileHandler
	Contact      *ContactHandler
	Notification *NotificationHandler

	AuthMW  func(http.Handler) http.Handler
	AdminMW func(http.Handler) http.Handler

	Collector   *metrics.Collector
	Gatherer    prometheus.Gatherer
	RateLimiter *middleware.RateLimiter
	Sanitizer   security.RequestSanitizer

	// Healthy はヘルスチェック時に呼ばれる。nilなら常に健全とみなす。
	Healthy func() error
}

// NewRouter は全ミドルウェアとルートを組み立てたハンドラーを返す。
// 共有プレフィックス配下のルート宣言に衝突がある場合は起動前にエラーを返す。
func NewRouter(deps *RouterDeps) (http.Handler, error) {
	cfg := deps.Config

	sets := []RouteSet{
		deps.Activity.Routes(deps.AuthMW, deps.AdminMW),
		deps.Plan.Routes(deps.AuthMW, deps.AdminMW),
		deps.File.Routes(deps.AuthMW),
		deps.Contact.Routes(deps.AuthMW, deps.AdminMW),
	}
	if err := verifyRouteSets(sets); err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// ミドルウェアはここに並べた順で適用される。
	// ボディ制限はサニタイズより前に置く（サニタイズがボディを読むため）。
	r.Use(middleware.NewRealIPMiddleware(cfg.TrustProxy))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewTimeoutMiddleware(cfg.RequestTimeout))
	r.Use(middleware.NewCORSMiddleware(cfg.AllowedOrigins))
	r.Use(deps.RateLimiter.Middleware())
	r.Use(middleware.NewBodyLimitMiddleware(cfg.BodyLimitBytes))
	r.Use(middleware.NewSanitizeMiddleware(deps.Sanitizer, middleware.SanitizeConfig{
		DuplicateKeyAllowlist: cfg.SanitizeAllowKey,
	}))

	r.NotFound(middleware.NewNotFoundHandler())
	r.MethodNotAllowed(middleware.NewMethodNotAllowedHandler())

	r.Get("/healthz", newHealthzHandler(deps.Healthy))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", deps.Auth.Register)
			ar.Post("/login", deps.Auth.Login)
			ar.Post("/logout", deps.Auth.Logout)
			ar.With(deps.AuthMW).Get("/me", deps.Auth.Me)
		})

		api.Route("/user", func(ur chi.Router) {
			ur.Use(deps.AuthMW, deps.AdminMW)
			ur.Get("/", deps.User.List)
			ur.Get("/{id}", deps.User.Get)
			ur.Put("/{id}", deps.User.Update)
			ur.Delete("/{id}", deps.User.Delete)
		})

		api.Route("/faculty", func(fr chi.Router) {
			fr.Get("/", deps.Faculty.List)
			fr.Get("/{id}", deps.Faculty.Get)
			fr.With(deps.AuthMW, deps.AdminMW).Post("/", deps.Faculty.Create)
			fr.With(deps.AuthMW, deps.AdminMW).Put("/{id}", deps.Faculty.Update)
			fr.With(deps.AuthMW, deps.AdminMW).Delete("/{id}", deps.Faculty.Delete)
		})

		api.Route("/category", func(cr chi.Router) {
			cr.Get("/", deps.Category.List)
			cr.Get("/{id}", deps.Category.Get)
			cr.With(deps.AuthMW, deps.AdminMW).Post("/", deps.Category.Create)
			cr.With(deps.AuthMW, deps.AdminMW).Put("/{id}", deps.Category.Update)
			cr.With(deps.AuthMW, deps.AdminMW).Delete("/{id}", deps.Category.Delete)
		})

		api.Route("/profile", func(pr chi.Router) {
			pr.Use(deps.AuthMW)
			pr.Get("/", deps.Profile.Get)
			pr.Put("/", deps.Profile.Update)
			pr.Put("/password", deps.Profile.ChangePassword)
		})

		api.Route("/notifications", func(nr chi.Router) {
			nr.Use(deps.AuthMW)
			deps.Notification.Register(nr)
		})

		// 衝突検証済みの共有プレフィックスルート群
		for _, set := range sets {
			for _, route := range set.Routes {
				api.Method(route.Method, route.Pattern, route.Handler)
			}
		}
	})

	// アップロード済みファイルの静的配信
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	r.Handle("/uploadsfile/*", http.StripPrefix("/uploadsfile/", http.FileServer(http.Dir(cfg.UploadFileDir))))

	return r, nil
}

// newHealthzHandler は依存の疎通確認付きヘルスチェックハンドラを返す。
func newHealthzHandler(healthy func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if healthy != nil {
			if err := healthy(); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","time":%q}`, time.Now().UTC().Format(time.RFC3339))
	}
}
