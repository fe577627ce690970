package app

import (
	"log/slog"
	"os"
	"runtime/debug"
)

// exit はテストで差し替え可能にしたプロセス終了関数。
var exit = os.Exit

// Go はバックグラウンドgoroutineをpanic監視付きで起動する。
//
// リクエスト処理中のpanicはリカバリーミドルウェアが捕捉して500に変換するが、
// バックグラウンド処理のpanicは回復不能な状態とみなし、スタックトレースを
// ログに残してプロセスを終了する。再起動はスーパーバイザー（コンテナ
// ランタイム等）に委ねる。
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("background goroutine panicked",
					slog.String("name", name),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				exit(1)
			}
		}()
		fn()
	}()
}
