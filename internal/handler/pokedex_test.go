package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"

	"connectrpc.com/connect"
	pokedexv1 "jo3qma.com/pokedex/internal/api/pokedexv1"
	"jo3qma.com/pokedex/internal/api/pokedexv1/pokedexv1connect"
	"jo3qma.com/pokedex/internal/domain/model"
	"jo3qma.com/pokedex/internal/usecase"
)

type fakeCatalog struct {
	page   model.Result[*model.RemoteListPage]
	detail model.Result[*model.EntryDetail]
}

func (f fakeCatalog) GetPage(ctx context.Context, limit, offset int) model.Result[*model.RemoteListPage] {
	return f.page
}

func (f fakeCatalog) GetDetail(ctx context.Context, name string) model.Result[*model.EntryDetail] {
	return f.detail
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func twoEntryPage() *model.RemoteListPage {
	return &model.RemoteListPage{
		Count: 2,
		Results: []model.RemoteEntry{
			{Name: "bulbasaur", URL: "https://pokeapi.co/api/v2/pokemon/1/"},
			{Name: "charmander", URL: "https://pokeapi.co/api/v2/pokemon/4/"},
		},
	}
}

func newTestHandler(catalog fakeCatalog) *PokedexHandler {
	sessions := usecase.NewSessionRegistry(func() *usecase.ListLoader {
		return usecase.NewListLoader(catalog, usecase.WithPageSize(20), usecase.WithLogger(discardLogger()))
	}, 0, discardLogger())
	return NewPokedexHandler(catalog, sessions, model.EntryTransformer{}, 20, discardLogger())
}

func requireCode(t *testing.T, err error, want connect.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error")
	}
	var ce *connect.Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *connect.Error, got %T: %v", err, err)
	}
	if ce.Code() != want {
		t.Fatalf("code got %v, want %v", ce.Code(), want)
	}
}

func TestPokedexHandler_ListEntries_mapsDomainToMessage(t *testing.T) {
	t.Parallel()

	h := newTestHandler(fakeCatalog{page: model.Success(twoEntryPage())})

	resp, err := h.ListEntries(context.Background(), connect.NewRequest(&pokedexv1.ListEntriesRequest{Limit: 20}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Msg.Count != 2 {
		t.Fatalf("Count got %d, want 2", resp.Msg.Count)
	}
	if len(resp.Msg.Entries) != 2 {
		t.Fatalf("Entries len got %d, want 2", len(resp.Msg.Entries))
	}
	if resp.Msg.Entries[1].Id != 4 || resp.Msg.Entries[1].Name != "Charmander" {
		t.Errorf("Entries[1] got %+v, want {4 Charmander}", resp.Msg.Entries[1])
	}
	if resp.Msg.Entries[0].ImageUrl != "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/1.png" {
		t.Errorf("Entries[0].ImageUrl got %q", resp.Msg.Entries[0].ImageUrl)
	}
}

func TestPokedexHandler_ListEntries_returnsUnavailableOnFetchError(t *testing.T) {
	t.Parallel()

	h := newTestHandler(fakeCatalog{page: model.Error[*model.RemoteListPage]("connection refused")})

	_, err := h.ListEntries(context.Background(), connect.NewRequest(&pokedexv1.ListEntriesRequest{}))
	requireCode(t, err, connect.CodeUnavailable)
}

func TestPokedexHandler_ListEntries_rejectsNegativeOffset(t *testing.T) {
	t.Parallel()

	h := newTestHandler(fakeCatalog{page: model.Success(twoEntryPage())})

	_, err := h.ListEntries(context.Background(), connect.NewRequest(&pokedexv1.ListEntriesRequest{Offset: -20}))
	requireCode(t, err, connect.CodeInvalidArgument)
}

func TestPokedexHandler_GetEntry_mapsDetail(t *testing.T) {
	t.Parallel()

	detail := &model.EntryDetail{
		ID:     25,
		Name:   "pikachu",
		Height: 4,
		Weight: 60,
		Types:  []string{"electric"},
		Stats: []model.Stat{
			{Name: "hp", BaseStat: 35},
			{Name: "speed", BaseStat: 90},
		},
		SpriteURL: "https://example.com/25.png",
	}
	h := newTestHandler(fakeCatalog{detail: model.Success(detail)})

	resp, err := h.GetEntry(context.Background(), connect.NewRequest(&pokedexv1.GetEntryRequest{Name: "pikachu"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Msg.DisplayName != "#25 Pikachu" {
		t.Errorf("DisplayName got %q, want %q", resp.Msg.DisplayName, "#25 Pikachu")
	}
	if resp.Msg.WeightKg != 6 || resp.Msg.HeightM != 0.4 {
		t.Errorf("WeightKg/HeightM got %v/%v, want 6/0.4", resp.Msg.WeightKg, resp.Msg.HeightM)
	}
	if resp.Msg.MaxBaseStat != 90 {
		t.Errorf("MaxBaseStat got %d, want 90", resp.Msg.MaxBaseStat)
	}
	if len(resp.Msg.Stats) != 2 || resp.Msg.Stats[1].Abbreviation != "Spd" {
		t.Errorf("Stats got %+v", resp.Msg.Stats)
	}
}

func TestPokedexHandler_GetEntry_returnsNotFoundOnError(t *testing.T) {
	t.Parallel()

	h := newTestHandler(fakeCatalog{detail: model.Error[*model.EntryDetail]("entry not found")})

	_, err := h.GetEntry(context.Background(), connect.NewRequest(&pokedexv1.GetEntryRequest{Name: "missingno"}))
	requireCode(t, err, connect.CodeNotFound)
}

func TestPokedexHandler_sessionLifecycle(t *testing.T) {
	t.Parallel()

	h := newTestHandler(fakeCatalog{page: model.Success(twoEntryPage())})
	ctx := context.Background()

	opened, err := h.OpenSession(ctx, connect.NewRequest(&pokedexv1.OpenSessionRequest{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := opened.Msg.SessionId
	if len(opened.Msg.State.Entries) != 0 {
		t.Fatalf("new session should start empty")
	}

	loaded, err := h.LoadNextPage(ctx, connect.NewRequest(&pokedexv1.LoadNextPageRequest{SessionId: id}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loaded.Msg.Started || len(loaded.Msg.State.Entries) != 2 || !loaded.Msg.State.EndReached {
		t.Fatalf("LoadNextPage got %+v", loaded.Msg)
	}

	again, err := h.LoadNextPage(ctx, connect.NewRequest(&pokedexv1.LoadNextPageRequest{SessionId: id}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Msg.Started {
		t.Errorf("LoadNextPage after end should not start a fetch")
	}

	searched, err := h.Search(ctx, connect.NewRequest(&pokedexv1.SearchRequest{SessionId: id, Query: "char"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(searched.Msg.State.Entries) != 1 || searched.Msg.State.Entries[0].Id != 4 {
		t.Errorf("Search got %+v", searched.Msg.State.Entries)
	}

	state, err := h.GetState(ctx, connect.NewRequest(&pokedexv1.GetStateRequest{SessionId: id}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.Msg.State.IsSearching || state.Msg.State.Query != "char" {
		t.Errorf("GetState got %+v", state.Msg.State)
	}

	if _, err := h.CloseSession(ctx, connect.NewRequest(&pokedexv1.CloseSessionRequest{SessionId: id})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = h.GetState(ctx, connect.NewRequest(&pokedexv1.GetStateRequest{SessionId: id}))
	requireCode(t, err, connect.CodeNotFound)
}

func TestPokedexHandler_LoadNextPage_reportsFailureInState(t *testing.T) {
	t.Parallel()

	h := newTestHandler(fakeCatalog{page: model.Error[*model.RemoteListPage]("timeout")})
	ctx := context.Background()

	opened, err := h.OpenSession(ctx, connect.NewRequest(&pokedexv1.OpenSessionRequest{Preload: true}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opened.Msg.State.LastError != "timeout" {
		t.Errorf("LastError got %q, want %q", opened.Msg.State.LastError, "timeout")
	}
	if opened.Msg.State.PageOffset != 0 {
		t.Errorf("PageOffset got %d, want 0", opened.Msg.State.PageOffset)
	}
}

func TestPokedexHandler_LoadNextPage_reportsOnlyFetchesItStarted(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	first := true
	release := make(chan struct{})
	fetcher := pageFetcherFunc(func(ctx context.Context, limit, offset int) model.Result[*model.RemoteListPage] {
		if first {
			first = false
			return model.Error[*model.RemoteListPage]("timeout")
		}
		<-release
		return model.Success(twoEntryPage())
	})
	sessions := usecase.NewSessionRegistry(func() *usecase.ListLoader {
		return usecase.NewListLoader(fetcher, usecase.WithLogger(discardLogger()))
	}, 0, discardLogger())
	h := NewPokedexHandler(fakeCatalog{}, sessions, model.EntryTransformer{}, 20, logger)
	ctx := context.Background()

	opened, err := h.OpenSession(ctx, connect.NewRequest(&pokedexv1.OpenSessionRequest{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := opened.Msg.SessionId

	// 1回目: 取得して失敗する
	if _, err := h.LoadNextPage(ctx, connect.NewRequest(&pokedexv1.LoadNextPageRequest{SessionId: id})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2回目: 再試行が取得中のまま止まる
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.LoadNextPage(ctx, connect.NewRequest(&pokedexv1.LoadNextPageRequest{SessionId: id}))
	}()
	loader, err := sessions.Get(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for !loader.Snapshot().IsLoading {
		runtime.Gosched()
	}

	// 3回目: 取得中なので何もせず、前回のエラーだけが残っている
	resp, err := h.LoadNextPage(ctx, connect.NewRequest(&pokedexv1.LoadNextPageRequest{SessionId: id}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Msg.Started || resp.Msg.State.LastError != "timeout" {
		t.Fatalf("expected skipped call with stale error, got %+v", resp.Msg)
	}

	close(release)
	<-done

	if got := strings.Count(logs.String(), "session page load failed"); got != 1 {
		t.Errorf("failure reported %d times, want 1: %s", got, logs.String())
	}
}

type pageFetcherFunc func(ctx context.Context, limit, offset int) model.Result[*model.RemoteListPage]

func (f pageFetcherFunc) GetPage(ctx context.Context, limit, offset int) model.Result[*model.RemoteListPage] {
	return f(ctx, limit, offset)
}

func TestPokedexHandler_requiresSessionID(t *testing.T) {
	t.Parallel()

	h := newTestHandler(fakeCatalog{})

	_, err := h.Search(context.Background(), connect.NewRequest(&pokedexv1.SearchRequest{Query: "x"}))
	requireCode(t, err, connect.CodeInvalidArgument)

	_, err = h.LoadNextPage(context.Background(), connect.NewRequest(&pokedexv1.LoadNextPageRequest{SessionId: "unknown"}))
	requireCode(t, err, connect.CodeNotFound)
}

func TestRouter_servesConnectOverHTTP(t *testing.T) {
	t.Parallel()

	h := newTestHandler(fakeCatalog{page: model.Success(twoEntryPage())})
	srv := httptest.NewServer(NewRouter(h, discardLogger()))
	t.Cleanup(srv.Close)

	client := pokedexv1connect.NewPokedexServiceClient(srv.Client(), srv.URL)
	ctx := context.Background()

	opened, err := client.OpenSession(ctx, connect.NewRequest(&pokedexv1.OpenSessionRequest{Preload: true}))
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	if len(opened.Msg.State.Entries) != 2 {
		t.Fatalf("Entries len got %d, want 2", len(opened.Msg.State.Entries))
	}
	if opened.Header().Get(requestIDHeader) == "" {
		t.Errorf("expected %s response header", requestIDHeader)
	}

	_, err = client.GetState(ctx, connect.NewRequest(&pokedexv1.GetStateRequest{SessionId: "unknown"}))
	requireCode(t, err, connect.CodeNotFound)

	res, err := srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz failed: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("healthz status got %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestSanitizeRequestID(t *testing.T) {
	t.Parallel()

	if got := sanitizeRequestID(" abc-123 "); got != "abc-123" {
		t.Errorf("got %q, want %q", got, "abc-123")
	}
	if got := sanitizeRequestID("bad id!"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
