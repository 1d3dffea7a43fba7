package pokeapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"jo3qma.com/pokedex/internal/domain/model"
	"jo3qma.com/pokedex/internal/domain/repository"
)

const (
	// DefaultBaseURL は PokeAPI v2 のベースURLです
	DefaultBaseURL = "https://pokeapi.co/api/v2"

	userAgent = "pokedex-catalog/1.0 (+https://pokeapi.co/docs/v2)"
)

// Config は PokeAPI クライアントの設定です
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	// RatePerSecond と Burst は送信側のトークンバケットです。RatePerSecond が0以下なら無制限
	RatePerSecond float64
	Burst         int
}

// pokeAPIClient は PokeAPI のJSONを取得してドメインモデルに変換する実装です
// 腐敗防止層として、外部APIのレスポンス構造をドメインモデルに閉じ込めます
type pokeAPIClient struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient は新しい CatalogRepository の実装を作成します
func NewClient(cfg Config, logger *slog.Logger) repository.CatalogRepository {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return newClient(&http.Client{Timeout: cfg.RequestTimeout}, cfg.BaseURL, limiter, logger)
}

// newClient はテスト容易性のための内部コンストラクタです。
// 本番コードは NewClient を利用し、テストでは http.Client/baseURL を注入します。
func newClient(client *http.Client, baseURL string, limiter *rate.Limiter, logger *slog.Logger) *pokeAPIClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &pokeAPIClient{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		limiter: limiter,
		logger:  logger.With("component", "pokeapi"),
	}
}

// listResponse は GET /pokemon のレスポンスです
type listResponse struct {
	Count   int `json:"count"`
	Results []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"results"`
}

// detailResponse は GET /pokemon/{name} のレスポンスのうち利用する項目です
type detailResponse struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Height         int    `json:"height"`
	Weight         int    `json:"weight"`
	BaseExperience int    `json:"base_experience"`
	Types          []struct {
		Slot int `json:"slot"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Stats []struct {
		BaseStat int `json:"base_stat"`
		Stat     struct {
			Name string `json:"name"`
		} `json:"stat"`
	} `json:"stats"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
	} `json:"sprites"`
}

// FetchPage は limit/offset で一覧の1ページを取得します
func (c *pokeAPIClient) FetchPage(ctx context.Context, limit, offset int) (*model.RemoteListPage, error) {
	u, err := url.Parse(c.baseURL + "/pokemon")
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var resp listResponse
	if err := fetchJSON(ctx, c.client, c.logger, u.String(), &resp); err != nil {
		return nil, err
	}

	page := &model.RemoteListPage{
		Count:   resp.Count,
		Results: make([]model.RemoteEntry, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		page.Results = append(page.Results, model.RemoteEntry{Name: r.Name, URL: r.URL})
	}

	c.logger.DebugContext(ctx, "fetched page", "limit", limit, "offset", offset, "results", len(page.Results), "count", page.Count)
	return page, nil
}

// FetchDetail は名前を指定してエントリの詳細を取得します
func (c *pokeAPIClient) FetchDetail(ctx context.Context, name string) (*model.EntryDetail, error) {
	target := fmt.Sprintf("%s/pokemon/%s", c.baseURL, url.PathEscape(name))

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var resp detailResponse
	if err := fetchJSON(ctx, c.client, c.logger, target, &resp); err != nil {
		return nil, err
	}

	return toEntryDetail(&resp), nil
}

// toEntryDetail はレスポンスからドメインモデルを構築します
func toEntryDetail(resp *detailResponse) *model.EntryDetail {
	detail := &model.EntryDetail{
		ID:             resp.ID,
		Name:           resp.Name,
		Height:         resp.Height,
		Weight:         resp.Weight,
		BaseExperience: resp.BaseExperience,
		SpriteURL:      resp.Sprites.FrontDefault,
		Types:          make([]string, 0, len(resp.Types)),
		Stats:          make([]model.Stat, 0, len(resp.Stats)),
	}

	// タイプはスロット順に並べる
	types := resp.Types
	sort.SliceStable(types, func(i, j int) bool { return types[i].Slot < types[j].Slot })
	for _, t := range types {
		detail.Types = append(detail.Types, t.Type.Name)
	}

	for _, s := range resp.Stats {
		detail.Stats = append(detail.Stats, model.Stat{Name: s.Stat.Name, BaseStat: s.BaseStat})
	}

	return detail
}
