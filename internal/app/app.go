package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Emarwalker/project-back-deploy100/internal/auth"
	"github.com/Emarwalker/project-back-deploy100/internal/config"
	"github.com/Emarwalker/project-back-deploy100/internal/database"
	"github.com/Emarwalker/project-back-deploy100/internal/handler"
	"github.com/Emarwalker/project-back-deploy100/internal/logger"
	"github.com/Emarwalker/project-back-deploy100/internal/metrics"
	"github.com/Emarwalker/project-back-deploy100/internal/middleware"
	"github.com/Emarwalker/project-back-deploy100/internal/plan"
	"github.com/Emarwalker/project-back-deploy100/internal/realtime"
	"github.com/Emarwalker/project-back-deploy100/internal/repository"
	"github.com/Emarwalker/project-back-deploy100/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "5000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続・マイグレーション・アップロードディレクトリの準備を行ったうえで
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = database.Ping(ctx, db)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. スキーマの同期（未適用マイグレーションの適用）
	if err := database.RunMigrations(cfg.MigrateURL()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	slog.Info("database schema is up to date")

	// 3. アップロードディレクトリの準備
	for _, dir := range []string{cfg.UploadDir, cfg.UploadFileDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create upload directory %s: %w", dir, err)
		}
	}

	// 4. リポジトリの初期化
	userRepo := repository.NewGormUserRepo(db)
	facultyRepo := repository.NewGormFacultyRepo(db)
	categoryRepo := repository.NewGormCategoryRepo(db)
	activityRepo := repository.NewGormActivityRepo(db)
	planRepo := repository.NewGormPlanRepo(db)
	fileRepo := repository.NewGormFileRepo(db)
	notificationRepo := repository.NewGormNotificationRepo(db)
	contactRepo := repository.NewGormContactRepo(db)

	// 5. 認証・ドメインサービスの初期化
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := auth.NewService(userRepo, issuer)
	authMW := auth.NewAuthMiddleware(issuer)
	adminMW := auth.NewAdminMiddleware()

	hub := realtime.NewHub()
	planService := plan.NewService(planRepo, activityRepo, userRepo, notificationRepo, hub)

	// 6. レート制限カウンタストアの選択
	// REDIS_ADDRが設定されていれば複数インスタンス間で共有できるRedisストアを使う。
	var counterStore middleware.CounterStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		counterStore = middleware.NewRedisCounterStore(redisClient)
		slog.Info("rate limit counter store: redis", slog.String("addr", cfg.RedisAddr))
	} else {
		memStore := middleware.NewMemoryCounterStore(time.Minute)
		defer memStore.Stop()
		counterStore = memStore
		slog.Info("rate limit counter store: memory")
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    cfg.RateLimitMax,
		Window: cfg.RateLimitWindow,
	}, counterStore)

	// 7. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 8. ルーターの構築
	deps := &handler.RouterDeps{
		Config: cfg,

		Auth: handler.NewAuthHandler(authService, handler.AuthHandlerConfig{
			CookieSecure:        cfg.CookieSecure,
			CookieMaxAgeSeconds: int(cfg.TokenTTL / time.Second),
		}),
		User:     handler.NewUserHandler(userRepo),
		Faculty:  handler.NewFacultyHandler(facultyRepo),
		Category: handler.NewCategoryHandler(categoryRepo),
		Profile:  handler.NewProfileHandler(userRepo),
		Activity: handler.NewActivityHandler(activityRepo),
		Plan:     handler.NewPlanHandler(planService),
		File: handler.NewFileHandler(fileRepo, handler.FileHandlerConfig{
			UploadDir:     cfg.UploadDir,
			UploadFileDir: cfg.UploadFileDir,
			MaxFileBytes:  cfg.MaxFileBytes,
		}),
		Contact:      handler.NewContactHandler(contactRepo),
		Notification: handler.NewNotificationHandler(notificationRepo, hub),

		AuthMW:  authMW,
		AdminMW: adminMW,

		Collector:   collector,
		Gatherer:    registry,
		RateLimiter: rateLimiter,
		Sanitizer:   security.NewRequestSanitizer(),

		Healthy: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return database.Ping(ctx, db)
		},
	}

	router, err := handler.NewRouter(deps)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	return serveUntilSignal(server, stop)
}

// serveUntilSignal はHTTPサーバーを起動し、シグナル受信まで待機する。
// リッスンに失敗した場合は待機せず、そのエラーを返して非ゼロ終了につなげる。
func serveUntilSignal(server *http.Server, stop <-chan os.Signal) error {
	listenErr := make(chan error, 1)

	Go("http-server", func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	})

	select {
	case err := <-listenErr:
		return fmt.Errorf("server listen failed: %w", err)
	case <-stop:
	}

	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("host", cfg.DBHost),
		slog.String("database", cfg.DBName),
	)

	if err := database.RunMigrations(cfg.MigrateURL()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
