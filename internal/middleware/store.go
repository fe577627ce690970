package middleware

import (
	"context"
	"sync"
	"time"
)

// CounterStore はクライアントキーごとの固定ウィンドウカウンタを管理する。
// プロセス内メモリ実装と分散ストア（Redis）実装を差し替え可能にするための
// インターフェース。
type CounterStore interface {
	// Incr はキーのカウンタをインクリメントし、ウィンドウ内の現在値を返す。
	// キーが未登録またはウィンドウが経過している場合は1にリセットする。
	Incr(ctx context.Context, key string, window time.Duration) (int, error)
}

// counterEntry はキーごとのカウント値とウィンドウのリセット時刻を保持する。
type counterEntry struct {
	count   int
	resetAt time.Time
}

// MemoryCounterStore はプロセス内メモリの固定ウィンドウカウンタ実装。
// 再起動をまたいで永続化されない。
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*counterEntry

	now    func() time.Time // テストで差し替え可能
	stopCh chan struct{}
}

// NewMemoryCounterStore はMemoryCounterStoreを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewMemoryCounterStore(cleanupInterval time.Duration) *MemoryCounterStore {
	s := &MemoryCounterStore{
		entries: make(map[string]*counterEntry),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}

	return s
}

// Incr はCounterStoreを実装する。
func (s *MemoryCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || now.After(ent.resetAt) {
		s.entries[key] = &counterEntry{count: 1, resetAt: now.Add(window)}
		return 1, nil
	}

	ent.count++
	return ent.count, nil
}

// Len は現在管理されているカウンタのエントリ数を返す。
// テストおよびメトリクス用。
func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (s *MemoryCounterStore) Stop() {
	close(s.stopCh)
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的に削除する。
func (s *MemoryCounterStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup はリセット時刻を経過したエントリをすべて削除する。
func (s *MemoryCounterStore) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, ent := range s.entries {
		if now.After(ent.resetAt) {
			delete(s.entries, key)
		}
	}
}
