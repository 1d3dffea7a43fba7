package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/getsentry/sentry-go"
	pokedexv1 "jo3qma.com/pokedex/internal/api/pokedexv1"
	"jo3qma.com/pokedex/internal/api/pokedexv1/pokedexv1connect"
	"jo3qma.com/pokedex/internal/domain/model"
	"jo3qma.com/pokedex/internal/usecase"
)

// CatalogReader はカタログ取得のユースケースです
type CatalogReader interface {
	GetPage(ctx context.Context, limit, offset int) model.Result[*model.RemoteListPage]
	GetDetail(ctx context.Context, name string) model.Result[*model.EntryDetail]
}

// SessionStore は一覧セッションの保持先です
type SessionStore interface {
	Open() (string, *usecase.ListLoader)
	Get(id string) (*usecase.ListLoader, error)
	Close(id string) error
}

// PokedexHandler は Connect のハンドラー実装です
// プロトコル層（pokedexv1）とドメイン層（usecase）を橋渡しします
type PokedexHandler struct {
	catalog     CatalogReader
	sessions    SessionStore
	transformer model.EntryTransformer
	pageSize    int
	logger      *slog.Logger
}

var _ pokedexv1connect.PokedexServiceHandler = (*PokedexHandler)(nil)

// NewPokedexHandler は新しいPokedexHandlerインスタンスを作成します
func NewPokedexHandler(catalog CatalogReader, sessions SessionStore, transformer model.EntryTransformer, pageSize int, logger *slog.Logger) *PokedexHandler {
	if pageSize <= 0 {
		pageSize = usecase.DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PokedexHandler{
		catalog:     catalog,
		sessions:    sessions,
		transformer: transformer,
		pageSize:    pageSize,
		logger:      logger.With("component", "handler"),
	}
}

// ListEntries は1ページ分の一覧を返すRPCハンドラーです。セッションの状態は変更しません
func (h *PokedexHandler) ListEntries(
	ctx context.Context,
	req *connect.Request[pokedexv1.ListEntriesRequest],
) (*connect.Response[pokedexv1.ListEntriesResponse], error) {
	limit, offset := int(req.Msg.Limit), int(req.Msg.Offset)
	if limit == 0 {
		limit = h.pageSize
	}
	if limit < 0 || offset < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("limit and offset must not be negative"))
	}

	var resp *pokedexv1.ListEntriesResponse
	var rpcErr error
	h.catalog.GetPage(ctx, limit, offset).Match(
		func() {
			rpcErr = connect.NewError(connect.CodeUnavailable, errors.New("page fetch did not complete"))
		},
		func(page *model.RemoteListPage) {
			resp = &pokedexv1.ListEntriesResponse{
				Entries: make([]*pokedexv1.Entry, 0, len(page.Results)),
				Count:   int64(page.Count),
			}
			for _, raw := range page.Results {
				entry, err := h.transformer.Transform(raw)
				if err != nil {
					rpcErr = connect.NewError(connect.CodeInternal, err)
					return
				}
				resp.Entries = append(resp.Entries, toEntry(entry))
			}
		},
		func(message string) {
			h.report(ctx, "list entries failed", message)
			rpcErr = connect.NewError(connect.CodeUnavailable, errors.New(message))
		},
	)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return connect.NewResponse(resp), nil
}

// GetEntry はエントリの詳細を返すRPCハンドラーです
func (h *PokedexHandler) GetEntry(
	ctx context.Context,
	req *connect.Request[pokedexv1.GetEntryRequest],
) (*connect.Response[pokedexv1.GetEntryResponse], error) {
	var resp *pokedexv1.GetEntryResponse
	var rpcErr error
	h.catalog.GetDetail(ctx, req.Msg.Name).Match(
		func() {
			rpcErr = connect.NewError(connect.CodeUnavailable, errors.New("detail fetch did not complete"))
		},
		func(detail *model.EntryDetail) {
			resp = toGetEntryResponse(detail)
		},
		func(message string) {
			h.report(ctx, "get entry failed", message)
			rpcErr = connect.NewError(connect.CodeNotFound, errors.New(message))
		},
	)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return connect.NewResponse(resp), nil
}

// OpenSession は一覧セッションを作成するRPCハンドラーです
func (h *PokedexHandler) OpenSession(
	ctx context.Context,
	req *connect.Request[pokedexv1.OpenSessionRequest],
) (*connect.Response[pokedexv1.OpenSessionResponse], error) {
	id, loader := h.sessions.Open()
	if req.Msg.Preload {
		loader.LoadNextPage(ctx)
	}

	return connect.NewResponse(&pokedexv1.OpenSessionResponse{
		SessionId: id,
		State:     toListState(loader.Snapshot()),
	}), nil
}

// LoadNextPage はセッションの次のページを読み込むRPCハンドラーです
// 取得の失敗は RPC のエラーではなく state.lastError で返します
func (h *PokedexHandler) LoadNextPage(
	ctx context.Context,
	req *connect.Request[pokedexv1.LoadNextPageRequest],
) (*connect.Response[pokedexv1.LoadNextPageResponse], error) {
	loader, err := h.session(req.Msg.SessionId)
	if err != nil {
		return nil, err
	}

	started := loader.LoadNextPage(ctx)
	state := loader.Snapshot()
	// 取得しなかった呼び出しでは、前回の失敗を報告し直さない
	if started && state.LastError != "" {
		h.report(ctx, "session page load failed", state.LastError)
	}

	return connect.NewResponse(&pokedexv1.LoadNextPageResponse{
		Started: started,
		State:   toListState(state),
	}), nil
}

// Search は取得済みの一覧を絞り込むRPCハンドラーです
func (h *PokedexHandler) Search(
	ctx context.Context,
	req *connect.Request[pokedexv1.SearchRequest],
) (*connect.Response[pokedexv1.SearchResponse], error) {
	loader, err := h.session(req.Msg.SessionId)
	if err != nil {
		return nil, err
	}

	loader.Search(req.Msg.Query)

	return connect.NewResponse(&pokedexv1.SearchResponse{
		State: toListState(loader.Snapshot()),
	}), nil
}

// GetState はセッションの現在の状態を返すRPCハンドラーです
func (h *PokedexHandler) GetState(
	ctx context.Context,
	req *connect.Request[pokedexv1.GetStateRequest],
) (*connect.Response[pokedexv1.GetStateResponse], error) {
	loader, err := h.session(req.Msg.SessionId)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&pokedexv1.GetStateResponse{
		State: toListState(loader.Snapshot()),
	}), nil
}

// CloseSession はセッションを破棄するRPCハンドラーです
func (h *PokedexHandler) CloseSession(
	ctx context.Context,
	req *connect.Request[pokedexv1.CloseSessionRequest],
) (*connect.Response[pokedexv1.CloseSessionResponse], error) {
	if req.Msg.SessionId == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("session_id is required"))
	}
	if err := h.sessions.Close(req.Msg.SessionId); err != nil {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewResponse(&pokedexv1.CloseSessionResponse{}), nil
}

func (h *PokedexHandler) session(id string) (*usecase.ListLoader, error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("session_id is required"))
	}
	loader, err := h.sessions.Get(id)
	if err != nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("%s: %w", id, err))
	}
	return loader, nil
}

// report は上流の取得失敗をログに残し、Sentry が有効なら送信します
func (h *PokedexHandler) report(ctx context.Context, msg, detail string) {
	h.logger.WarnContext(ctx, msg, "error", detail)
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureMessage(fmt.Sprintf("%s: %s", msg, detail))
	}
}
