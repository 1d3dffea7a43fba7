package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"jo3qma.com/pokedex/internal/domain/repository"
)

// fetchJSON は指定されたURLからJSONを取得して out にデコードします
// 共通のヘッダー設定やエラーハンドリングを行います
func fetchJSON(ctx context.Context, client *http.Client, logger *slog.Logger, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", "url", url, "error", closeErr)
		}
	}()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("failed to fetch %s: %w", url, repository.ErrNotFound)
	case res.StatusCode != http.StatusOK:
		return fmt.Errorf("failed to fetch %s: status %d", url, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return nil
}
