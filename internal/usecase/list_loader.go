package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"jo3qma.com/pokedex/internal/domain/model"
)

// DefaultPageSize は1回の取得で要求する件数です
const DefaultPageSize = 20

// PageFetcher は一覧の1ページを Result で返す取得元です
// CatalogUsecase がこのインターフェースを満たします
type PageFetcher interface {
	GetPage(ctx context.Context, limit, offset int) model.Result[*model.RemoteListPage]
}

// LoaderState は ListLoader の状態のスナップショットです
type LoaderState struct {
	Entries     []model.DisplayEntry `json:"entries"`
	PageOffset  int                  `json:"page_offset"` // 次に取得するページ番号（0始まり）
	IsLoading   bool                 `json:"is_loading"`
	EndReached  bool                 `json:"end_reached"`
	LastError   string               `json:"last_error,omitempty"`
	IsSearching bool                 `json:"is_searching"`
	Query       string               `json:"query,omitempty"`
	Version     uint64               `json:"version"` // 状態が変わるたびに1増えます
}

// LoaderOption は ListLoader の設定を変更します
type LoaderOption func(*ListLoader)

// WithPageSize は1ページの件数を設定します。0以下は無視します
func WithPageSize(n int) LoaderOption {
	return func(l *ListLoader) {
		if n > 0 {
			l.pageSize = n
		}
	}
}

// WithTransformer は表示用エントリへの変換方法を設定します
func WithTransformer(t model.EntryTransformer) LoaderOption {
	return func(l *ListLoader) {
		l.transformer = t
	}
}

// WithLogger はロガーを設定します
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *ListLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLegacyEndDetection は終端判定を「加算前のページ番号 * 件数 >= 総件数」にします
// この判定では、終端の検出に最後のページの次のページを1回余分に取得します
// 既定の判定は取得したページを数に含めるため、総件数がページ件数以下なら最初のページで終端になります
func WithLegacyEndDetection() LoaderOption {
	return func(l *ListLoader) {
		l.legacyEnd = true
	}
}

// ListLoader はページ単位の一覧取得と、取得済み一覧のローカル検索を担当します
// 状態を変える操作（ページ取得の完了と検索）はすべて mu で直列化されます
// isLoading は同じページの二重取得を防ぐ唯一のガードです
type ListLoader struct {
	fetcher     PageFetcher
	pageSize    int
	transformer model.EntryTransformer
	legacyEnd   bool
	logger      *slog.Logger

	mu          sync.Mutex
	entries     []model.DisplayEntry
	preSearch   []model.DisplayEntry
	pageOffset  int
	isLoading   bool
	endReached  bool
	lastError   string
	isSearching bool
	query       string
	version     uint64
	listeners   map[int]func(LoaderState)
	nextID      int

	// notifyMu はリスナー呼び出しを直列化します
	notifyMu     sync.Mutex
	lastNotified uint64
}

// NewListLoader は新しいListLoaderインスタンスを作成します
// 作成しただけでは取得しません。最初のページは LoadNextPage で読み込みます
func NewListLoader(fetcher PageFetcher, opts ...LoaderOption) *ListLoader {
	l := &ListLoader{
		fetcher:   fetcher,
		pageSize:  DefaultPageSize,
		logger:    slog.Default(),
		listeners: make(map[int]func(LoaderState)),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "list_loader")
	return l
}

// PageSize は1ページの件数を返します
func (l *ListLoader) PageSize() int {
	return l.pageSize
}

// Snapshot は現在の状態のコピーを返します
func (l *ListLoader) Snapshot() LoaderState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Subscribe は状態が変わるたびに呼ばれるリスナーを登録し、解除関数を返します
// リスナーは変更の順に1つずつ呼ばれます。古い状態が新しい状態の後に届くことはありません
// リスナーの中から LoadNextPage や Search を同期的に呼んではいけません
func (l *ListLoader) Subscribe(fn func(LoaderState)) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

// LoadNextPage は次のページを取得して一覧の末尾に追加します
// 取得中、または終端に達している場合は何もせず false を返します
// 失敗した場合は LastError を設定し、ページ番号と一覧は変更しません（再試行で同じページを取得します）
func (l *ListLoader) LoadNextPage(ctx context.Context) bool {
	l.mu.Lock()
	if l.isLoading || l.endReached {
		l.mu.Unlock()
		return false
	}
	l.isLoading = true
	pageOffset := l.pageOffset
	l.commitLocked()
	l.mu.Unlock()
	l.flush()

	result := l.fetcher.GetPage(ctx, l.pageSize, pageOffset*l.pageSize)

	l.mu.Lock()
	result.Match(
		func() {
			l.failLocked("page fetch finished without a result")
		},
		func(page *model.RemoteListPage) {
			l.applyPageLocked(pageOffset, page)
		},
		func(message string) {
			l.failLocked(message)
		},
	)
	l.mu.Unlock()

	l.flush()
	return true
}

// Search は取得済みの一覧を query で絞り込みます。リモートへの問い合わせは行いません
// 空の query は検索の終了を意味し、検索前の一覧に戻します
func (l *ListLoader) Search(query string) {
	l.mu.Lock()
	if query == "" {
		if l.isSearching {
			l.entries = l.preSearch
			l.preSearch = nil
		}
		l.isSearching = false
		l.query = ""
	} else {
		// 検索開始時に一度だけ検索前の一覧を退避する
		if !l.isSearching {
			l.preSearch = slices.Clone(l.entries)
			l.isSearching = true
		}
		l.query = query
		l.entries = FilterEntries(l.preSearch, query)
	}
	l.commitLocked()
	l.mu.Unlock()

	l.flush()
}

// applyPageLocked は取得したページを状態に反映します
func (l *ListLoader) applyPageLocked(pageOffset int, page *model.RemoteListPage) {
	if page == nil {
		l.failLocked("empty page response")
		return
	}

	fetched := make([]model.DisplayEntry, 0, len(page.Results))
	for _, raw := range page.Results {
		entry, err := l.transformer.Transform(raw)
		if err != nil {
			l.failLocked(err.Error())
			return
		}
		fetched = append(fetched, entry)
	}

	if l.legacyEnd {
		l.endReached = pageOffset*l.pageSize >= page.Count
	} else {
		l.endReached = (pageOffset+1)*l.pageSize >= page.Count
	}

	// 検索中に届いたページは検索前の一覧に追加し、表示中の一覧には現在の検索条件を適用し直す
	if l.isSearching {
		l.preSearch = append(l.preSearch, fetched...)
		l.entries = FilterEntries(l.preSearch, l.query)
	} else {
		l.entries = append(l.entries, fetched...)
	}

	l.pageOffset = pageOffset + 1
	l.lastError = ""
	l.isLoading = false
	l.commitLocked()

	l.logger.Debug("page loaded",
		"page", pageOffset,
		"fetched", len(fetched),
		"count", page.Count,
		"end_reached", l.endReached,
	)
}

func (l *ListLoader) failLocked(message string) {
	l.lastError = message
	l.isLoading = false
	l.commitLocked()

	l.logger.Warn("page load failed", "page", l.pageOffset, "error", message)
}

// commitLocked は状態の版を進めます
func (l *ListLoader) commitLocked() {
	l.version++
}

func (l *ListLoader) snapshotLocked() LoaderState {
	return LoaderState{
		Entries:     slices.Clone(l.entries),
		PageOffset:  l.pageOffset,
		IsLoading:   l.isLoading,
		EndReached:  l.endReached,
		LastError:   l.lastError,
		IsSearching: l.isSearching,
		Query:       l.query,
		Version:     l.version,
	}
}

// flush は最新の状態をリスナーに届けます
// 複数の変更が重なった場合は最新の状態だけが届くことがあります
func (l *ListLoader) flush() {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	if l.version <= l.lastNotified || len(l.listeners) == 0 {
		l.lastNotified = l.version
		l.mu.Unlock()
		return
	}
	state := l.snapshotLocked()
	listeners := make([]func(LoaderState), 0, len(l.listeners))
	for _, fn := range l.listeners {
		listeners = append(listeners, fn)
	}
	l.mu.Unlock()

	l.lastNotified = state.Version
	for _, fn := range listeners {
		fn(state)
	}
}

// String はログ出力用の要約を返します
func (s LoaderState) String() string {
	return fmt.Sprintf("entries=%d page=%d loading=%t end=%t searching=%t error=%q",
		len(s.Entries), s.PageOffset, s.IsLoading, s.EndReached, s.IsSearching, s.LastError)
}
