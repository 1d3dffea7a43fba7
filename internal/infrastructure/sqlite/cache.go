// Package sqlite はカタログ応答の読み込みキャッシュを SQLite に保存します
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // CGO不要の SQLite ドライバ

	"jo3qma.com/pokedex/internal/domain/model"
	"jo3qma.com/pokedex/internal/domain/repository"
)

// Store は SQLite に保存されたキャッシュ表です
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open は dsn で SQLite を開き、キャッシュ表を作成します
// ":memory:" を渡すとプロセス内だけのキャッシュになります。Open ごとに別のデータベースです
func Open(dsn string) (*Store, error) {
	connStr := dsn
	if dsn == ":memory:" {
		connStr = "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dsn != ":memory:" {
		if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure database: %w", err)
		}
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS catalog_cache (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close はデータベース接続を閉じます
func (s *Store) Close() error {
	return s.db.Close()
}

// Get は key の値を返します。ttl より古い値は見つからなかった扱いです（ttl が0なら無期限）
func (s *Store) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	var payload []byte
	var fetchedAt int64
	row := s.db.QueryRowContext(ctx, `SELECT payload, fetched_at FROM catalog_cache WHERE key = ?`, key)
	if err := row.Scan(&payload, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if ttl > 0 && s.now().Sub(time.Unix(fetchedAt, 0)) > ttl {
		return nil, false, nil
	}
	return payload, true, nil
}

// Put は key の値を上書き保存します
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO catalog_cache(key, payload, fetched_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, payload, s.now().Unix())
	return err
}

// Purge は ttl より古い行を削除し、削除件数を返します
// ttl が0以下なら無期限なので何も削除しません
func (s *Store) Purge(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-ttl).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CachedCatalog は CatalogRepository を読み込みキャッシュで包むデコレーターです
// キャッシュの失敗はログに残してリモート取得に切り替えます。リモートのエラーは保存しません
type CachedCatalog struct {
	next   repository.CatalogRepository
	store  *Store
	ttl    time.Duration
	logger *slog.Logger
}

var _ repository.CatalogRepository = (*CachedCatalog)(nil)

// NewCachedCatalog は next の前段にキャッシュを置いた CatalogRepository を作成します
func NewCachedCatalog(next repository.CatalogRepository, store *Store, ttl time.Duration, logger *slog.Logger) *CachedCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedCatalog{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "catalog_cache"),
	}
}

// FetchPage はキャッシュにあればそれを返し、なければリモートから取得して保存します
func (c *CachedCatalog) FetchPage(ctx context.Context, limit, offset int) (*model.RemoteListPage, error) {
	key := fmt.Sprintf("page:%d:%d", limit, offset)

	var page model.RemoteListPage
	if c.lookup(ctx, key, &page) {
		return &page, nil
	}

	fetched, err := c.next.FetchPage(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, fetched)
	return fetched, nil
}

// FetchDetail はキャッシュにあればそれを返し、なければリモートから取得して保存します
func (c *CachedCatalog) FetchDetail(ctx context.Context, name string) (*model.EntryDetail, error) {
	key := "detail:" + strings.ToLower(name)

	var detail model.EntryDetail
	if c.lookup(ctx, key, &detail) {
		return &detail, nil
	}

	fetched, err := c.next.FetchDetail(ctx, name)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, fetched)
	return fetched, nil
}

func (c *CachedCatalog) lookup(ctx context.Context, key string, out any) bool {
	payload, ok, err := c.store.Get(ctx, key, c.ttl)
	if err != nil {
		c.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		c.logger.WarnContext(ctx, "cache entry corrupted", "key", key, "error", err)
		return false
	}
	c.logger.DebugContext(ctx, "cache hit", "key", key)
	return true
}

func (c *CachedCatalog) save(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Put(ctx, key, payload); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}
