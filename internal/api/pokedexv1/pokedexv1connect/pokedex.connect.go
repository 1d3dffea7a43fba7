// Package pokedexv1connect は pokedex.v1.PokedexService の Connect ハンドラーとクライアントです
package pokedexv1connect

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	pokedexv1 "jo3qma.com/pokedex/internal/api/pokedexv1"
)

const (
	// PokedexServiceName はサービスの完全修飾名です
	PokedexServiceName = "pokedex.v1.PokedexService"
)

// 各RPCのパスです
const (
	PokedexServiceListEntriesProcedure  = "/pokedex.v1.PokedexService/ListEntries"
	PokedexServiceGetEntryProcedure     = "/pokedex.v1.PokedexService/GetEntry"
	PokedexServiceOpenSessionProcedure  = "/pokedex.v1.PokedexService/OpenSession"
	PokedexServiceLoadNextPageProcedure = "/pokedex.v1.PokedexService/LoadNextPage"
	PokedexServiceSearchProcedure       = "/pokedex.v1.PokedexService/Search"
	PokedexServiceGetStateProcedure     = "/pokedex.v1.PokedexService/GetState"
	PokedexServiceCloseSessionProcedure = "/pokedex.v1.PokedexService/CloseSession"
)

// Codec はメッセージを encoding/json で送受信する connect.Codec です
// メッセージは protobuf ではなく普通の Go 構造体なので、既定の json コーデックを置き換えます
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// PokedexServiceHandler はサーバー側の実装が満たすインターフェースです
type PokedexServiceHandler interface {
	ListEntries(context.Context, *connect.Request[pokedexv1.ListEntriesRequest]) (*connect.Response[pokedexv1.ListEntriesResponse], error)
	GetEntry(context.Context, *connect.Request[pokedexv1.GetEntryRequest]) (*connect.Response[pokedexv1.GetEntryResponse], error)
	OpenSession(context.Context, *connect.Request[pokedexv1.OpenSessionRequest]) (*connect.Response[pokedexv1.OpenSessionResponse], error)
	LoadNextPage(context.Context, *connect.Request[pokedexv1.LoadNextPageRequest]) (*connect.Response[pokedexv1.LoadNextPageResponse], error)
	Search(context.Context, *connect.Request[pokedexv1.SearchRequest]) (*connect.Response[pokedexv1.SearchResponse], error)
	GetState(context.Context, *connect.Request[pokedexv1.GetStateRequest]) (*connect.Response[pokedexv1.GetStateResponse], error)
	CloseSession(context.Context, *connect.Request[pokedexv1.CloseSessionRequest]) (*connect.Response[pokedexv1.CloseSessionResponse], error)
}

// NewPokedexServiceHandler はサービスの http.Handler と、それをマウントするパスを返します
func NewPokedexServiceHandler(svc PokedexServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	routes := map[string]http.Handler{
		PokedexServiceListEntriesProcedure:  connect.NewUnaryHandler(PokedexServiceListEntriesProcedure, svc.ListEntries, opts...),
		PokedexServiceGetEntryProcedure:     connect.NewUnaryHandler(PokedexServiceGetEntryProcedure, svc.GetEntry, opts...),
		PokedexServiceOpenSessionProcedure:  connect.NewUnaryHandler(PokedexServiceOpenSessionProcedure, svc.OpenSession, opts...),
		PokedexServiceLoadNextPageProcedure: connect.NewUnaryHandler(PokedexServiceLoadNextPageProcedure, svc.LoadNextPage, opts...),
		PokedexServiceSearchProcedure:       connect.NewUnaryHandler(PokedexServiceSearchProcedure, svc.Search, opts...),
		PokedexServiceGetStateProcedure:     connect.NewUnaryHandler(PokedexServiceGetStateProcedure, svc.GetState, opts...),
		PokedexServiceCloseSessionProcedure: connect.NewUnaryHandler(PokedexServiceCloseSessionProcedure, svc.CloseSession, opts...),
	}

	return "/" + PokedexServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// PokedexServiceClient はサービスのクライアントです
type PokedexServiceClient interface {
	ListEntries(context.Context, *connect.Request[pokedexv1.ListEntriesRequest]) (*connect.Response[pokedexv1.ListEntriesResponse], error)
	GetEntry(context.Context, *connect.Request[pokedexv1.GetEntryRequest]) (*connect.Response[pokedexv1.GetEntryResponse], error)
	OpenSession(context.Context, *connect.Request[pokedexv1.OpenSessionRequest]) (*connect.Response[pokedexv1.OpenSessionResponse], error)
	LoadNextPage(context.Context, *connect.Request[pokedexv1.LoadNextPageRequest]) (*connect.Response[pokedexv1.LoadNextPageResponse], error)
	Search(context.Context, *connect.Request[pokedexv1.SearchRequest]) (*connect.Response[pokedexv1.SearchResponse], error)
	GetState(context.Context, *connect.Request[pokedexv1.GetStateRequest]) (*connect.Response[pokedexv1.GetStateResponse], error)
	CloseSession(context.Context, *connect.Request[pokedexv1.CloseSessionRequest]) (*connect.Response[pokedexv1.CloseSessionResponse], error)
}

// NewPokedexServiceClient は baseURL（例: http://localhost:8080）に接続するクライアントを作成します
func NewPokedexServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PokedexServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)

	return &pokedexServiceClient{
		listEntries:  connect.NewClient[pokedexv1.ListEntriesRequest, pokedexv1.ListEntriesResponse](httpClient, baseURL+PokedexServiceListEntriesProcedure, opts...),
		getEntry:     connect.NewClient[pokedexv1.GetEntryRequest, pokedexv1.GetEntryResponse](httpClient, baseURL+PokedexServiceGetEntryProcedure, opts...),
		openSession:  connect.NewClient[pokedexv1.OpenSessionRequest, pokedexv1.OpenSessionResponse](httpClient, baseURL+PokedexServiceOpenSessionProcedure, opts...),
		loadNextPage: connect.NewClient[pokedexv1.LoadNextPageRequest, pokedexv1.LoadNextPageResponse](httpClient, baseURL+PokedexServiceLoadNextPageProcedure, opts...),
		search:       connect.NewClient[pokedexv1.SearchRequest, pokedexv1.SearchResponse](httpClient, baseURL+PokedexServiceSearchProcedure, opts...),
		getState:     connect.NewClient[pokedexv1.GetStateRequest, pokedexv1.GetStateResponse](httpClient, baseURL+PokedexServiceGetStateProcedure, opts...),
		closeSession: connect.NewClient[pokedexv1.CloseSessionRequest, pokedexv1.CloseSessionResponse](httpClient, baseURL+PokedexServiceCloseSessionProcedure, opts...),
	}
}

type pokedexServiceClient struct {
	listEntries  *connect.Client[pokedexv1.ListEntriesRequest, pokedexv1.ListEntriesResponse]
	getEntry     *connect.Client[pokedexv1.GetEntryRequest, pokedexv1.GetEntryResponse]
	openSession  *connect.Client[pokedexv1.OpenSessionRequest, pokedexv1.OpenSessionResponse]
	loadNextPage *connect.Client[pokedexv1.LoadNextPageRequest, pokedexv1.LoadNextPageResponse]
	search       *connect.Client[pokedexv1.SearchRequest, pokedexv1.SearchResponse]
	getState     *connect.Client[pokedexv1.GetStateRequest, pokedexv1.GetStateResponse]
	closeSession *connect.Client[pokedexv1.CloseSessionRequest, pokedexv1.CloseSessionResponse]
}

func (c *pokedexServiceClient) ListEntries(ctx context.Context, req *connect.Request[pokedexv1.ListEntriesRequest]) (*connect.Response[pokedexv1.ListEntriesResponse], error) {
	return c.listEntries.CallUnary(ctx, req)
}

func (c *pokedexServiceClient) GetEntry(ctx context.Context, req *connect.Request[pokedexv1.GetEntryRequest]) (*connect.Response[pokedexv1.GetEntryResponse], error) {
	return c.getEntry.CallUnary(ctx, req)
}

func (c *pokedexServiceClient) OpenSession(ctx context.Context, req *connect.Request[pokedexv1.OpenSessionRequest]) (*connect.Response[pokedexv1.OpenSessionResponse], error) {
	return c.openSession.CallUnary(ctx, req)
}

func (c *pokedexServiceClient) LoadNextPage(ctx context.Context, req *connect.Request[pokedexv1.LoadNextPageRequest]) (*connect.Response[pokedexv1.LoadNextPageResponse], error) {
	return c.loadNextPage.CallUnary(ctx, req)
}

func (c *pokedexServiceClient) Search(ctx context.Context, req *connect.Request[pokedexv1.SearchRequest]) (*connect.Response[pokedexv1.SearchResponse], error) {
	return c.search.CallUnary(ctx, req)
}

func (c *pokedexServiceClient) GetState(ctx context.Context, req *connect.Request[pokedexv1.GetStateRequest]) (*connect.Response[pokedexv1.GetStateResponse], error) {
	return c.getState.CallUnary(ctx, req)
}

func (c *pokedexServiceClient) CloseSession(ctx context.Context, req *connect.Request[pokedexv1.CloseSessionRequest]) (*connect.Response[pokedexv1.CloseSessionResponse], error) {
	return c.closeSession.CallUnary(ctx, req)
}
