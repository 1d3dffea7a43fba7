package repository

import (
	"context"
	"errors"

	"jo3qma.com/pokedex/internal/domain/model"
)

// ErrNotFound は指定したエントリがカタログに存在しない場合に返されます
var ErrNotFound = errors.New("entry not found")

// CatalogRepository はカタログの取得方法を抽象化します。
// 実装がREST APIなのか、キャッシュ付きなのかはドメイン層は知りません。
// これにより、腐敗防止層（Anti-Corruption Layer）のパターンを実現します。
type CatalogRepository interface {
	// FetchPage は limit/offset で指定した1ページ分の一覧を取得します
	FetchPage(ctx context.Context, limit, offset int) (*model.RemoteListPage, error)

	// FetchDetail は名前（小文字）を指定してエントリの詳細を取得します
	FetchDetail(ctx context.Context, name string) (*model.EntryDetail, error)
}
