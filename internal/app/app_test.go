package app

import (
	"io"
	"net/http"
	"os"
	"strings"
	"syscall"
	"testing"
)

func TestRun_FailsWhenRequiredConfigIsMissing(t *testing.T) {
	for _, name := range []string{"DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PORT", "JWT_SECRET"} {
		t.Setenv(name, "")
	}

	err := Run(io.Discard, []string{"serve"})
	if err == nil {
		t.Fatal("Run did not fail with missing configuration")
	}
	if !strings.Contains(err.Error(), "initialization failed") {
		t.Errorf("error = %v, want initialization failure", err)
	}
}

func TestServeUntilSignal_ReturnsListenError(t *testing.T) {
	// 不正なアドレスでリッスンに失敗した場合はシグナルを待たずにエラーを返す
	server := &http.Server{Addr: "127.0.0.1:-1"}
	stop := make(chan os.Signal, 1)

	err := serveUntilSignal(server, stop)
	if err == nil {
		t.Fatal("serveUntilSignal did not return the listen error")
	}
	if !strings.Contains(err.Error(), "listen") {
		t.Errorf("error = %v, want listen failure", err)
	}
}

func TestServeUntilSignal_ShutsDownGracefullyOnSignal(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:0"}
	stop := make(chan os.Signal, 1)
	stop <- syscall.SIGTERM

	if err := serveUntilSignal(server, stop); err != nil {
		t.Errorf("serveUntilSignal returned error: %v", err)
	}
}

func TestRun_HealthcheckFailsWhenServerIsDown(t *testing.T) {
	t.Setenv("SERVER_PORT", "1") // 接続できないポート

	err := Run(io.Discard, []string{"healthcheck"})
	if err == nil {
		t.Fatal("healthcheck did not fail against a down server")
	}
}
