package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"jo3qma.com/pokedex/internal/api/pokedexv1/pokedexv1connect"
)

// NewRouter は Connect サービスとヘルスチェックをまとめたルーターを作成します
func NewRouter(svc pokedexv1connect.PokedexServiceHandler, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, LoggingMiddleware(logger))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)

	// Connectハンドラーの登録
	path, h := pokedexv1connect.NewPokedexServiceHandler(svc)
	r.PathPrefix(path).Handler(h)

	return r
}
