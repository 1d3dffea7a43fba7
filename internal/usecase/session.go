package usecase

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound は存在しない、または期限切れのセッションを指定した場合に返されます
var ErrSessionNotFound = errors.New("session not found")

// LoaderFactory は新しいセッション用の ListLoader を作ります
type LoaderFactory func() *ListLoader

type session struct {
	loader   *ListLoader
	lastSeen time.Time
}

// SessionRegistry は一覧閲覧セッションごとの ListLoader を保持します
// 一定時間アクセスのないセッションはアクセス時にまとめて破棄します
type SessionRegistry struct {
	newLoader   LoaderFactory
	idleTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger

	mu          sync.Mutex
	sessions    map[string]*session
	lastCleanup time.Time
}

// NewSessionRegistry は新しいSessionRegistryインスタンスを作成します
// idleTimeout が0以下ならセッションは Close されるまで残ります
func NewSessionRegistry(newLoader LoaderFactory, idleTimeout time.Duration, logger *slog.Logger) *SessionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionRegistry{
		newLoader:   newLoader,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger.With("component", "sessions"),
		sessions:    make(map[string]*session),
	}
}

// Open は新しいセッションを作成し、IDとローダーを返します
func (r *SessionRegistry) Open() (string, *ListLoader) {
	id := uuid.New().String()
	loader := r.newLoader()

	r.mu.Lock()
	now := r.now()
	r.evictIdleLocked(now)
	r.sessions[id] = &session{loader: loader, lastSeen: now}
	r.mu.Unlock()

	r.logger.Info("session opened", "session_id", id)
	return id, loader
}

// Get はセッションのローダーを返し、最終アクセス時刻を更新します
func (r *SessionRegistry) Get(id string) (*ListLoader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictIdleLocked(now)

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if r.idleTimeout > 0 && now.Sub(s.lastSeen) > r.idleTimeout {
		delete(r.sessions, id)
		return nil, ErrSessionNotFound
	}
	s.lastSeen = now
	return s.loader, nil
}

// Close はセッションを破棄します
func (r *SessionRegistry) Close(id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	r.logger.Info("session closed", "session_id", id)
	return nil
}

// Len は保持しているセッション数を返します
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle は now 時点で期限切れのセッションを破棄し、破棄した数を返します
func (r *SessionRegistry) EvictIdle(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCleanup = time.Time{}
	return r.evictIdleLocked(now)
}

func (r *SessionRegistry) evictIdleLocked(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}
	// 掃除はタイムアウトの1/4間隔までに抑える
	if !r.lastCleanup.IsZero() && now.Sub(r.lastCleanup) < r.idleTimeout/4 {
		return 0
	}
	r.lastCleanup = now

	evicted := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.idleTimeout {
			delete(r.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.Info("idle sessions evicted", "count", evicted)
	}
	return evicted
}
