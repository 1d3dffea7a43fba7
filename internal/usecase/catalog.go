package usecase

import (
	"context"
	"log/slog"
	"strings"

	"jo3qma.com/pokedex/internal/domain/model"
	"jo3qma.com/pokedex/internal/domain/repository"
)

// defaultErrorMessage はエラーに説明文がない場合に使うメッセージです
const defaultErrorMessage = "An error occurred"

// CatalogUsecase はカタログ取得のビジネスロジックを担当します
// リポジトリが返す error をここで Result に変換し、これより上の層には error を漏らしません
type CatalogUsecase struct {
	repo   repository.CatalogRepository
	logger *slog.Logger
}

// NewCatalogUsecase は新しいCatalogUsecaseインスタンスを作成します
func NewCatalogUsecase(repo repository.CatalogRepository, logger *slog.Logger) *CatalogUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogUsecase{
		repo:   repo,
		logger: logger.With("component", "catalog"),
	}
}

// GetPage は limit/offset で一覧の1ページを取得します
// リトライは行いません。再試行するかどうかは呼び出し側が決めます
func (u *CatalogUsecase) GetPage(ctx context.Context, limit, offset int) model.Result[*model.RemoteListPage] {
	if limit <= 0 {
		return model.Error[*model.RemoteListPage]("limit must be positive")
	}
	if offset < 0 {
		return model.Error[*model.RemoteListPage]("offset must not be negative")
	}

	page, err := u.repo.FetchPage(ctx, limit, offset)
	if err != nil {
		u.logger.WarnContext(ctx, "page fetch failed", "limit", limit, "offset", offset, "error", err)
		return model.Error[*model.RemoteListPage](errorMessage(err))
	}
	return model.Success(page)
}

// GetDetail は名前を指定してエントリの詳細を取得します
// 名前は前後の空白を除いて小文字にそろえます
func (u *CatalogUsecase) GetDetail(ctx context.Context, name string) model.Result[*model.EntryDetail] {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return model.Error[*model.EntryDetail]("name is required")
	}

	detail, err := u.repo.FetchDetail(ctx, name)
	if err != nil {
		u.logger.WarnContext(ctx, "detail fetch failed", "name", name, "error", err)
		return model.Error[*model.EntryDetail](errorMessage(err))
	}
	return model.Success(detail)
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return defaultErrorMessage
}
