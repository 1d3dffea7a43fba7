// Package pokedexv1 は pokedex.v1.PokedexService のメッセージ定義です
// JSON コーデックで送受信するため、フィールド名は protojson と同じ lowerCamelCase にしています
package pokedexv1

// Entry は一覧の1件です
type Entry struct {
	Id       int64  `json:"id"`
	Name     string `json:"name"`
	ImageUrl string `json:"imageUrl"`
}

// Stat は種族値1項目です
type Stat struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	BaseStat     int64  `json:"baseStat"`
}

// ListState は一覧セッションの状態です
type ListState struct {
	Entries     []*Entry `json:"entries"`
	PageOffset  int64    `json:"pageOffset"`
	IsLoading   bool     `json:"isLoading"`
	EndReached  bool     `json:"endReached"`
	LastError   string   `json:"lastError,omitempty"`
	IsSearching bool     `json:"isSearching"`
	Query       string   `json:"query,omitempty"`
	Version     uint64   `json:"version"`
}

type ListEntriesRequest struct {
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

type ListEntriesResponse struct {
	Entries []*Entry `json:"entries"`
	Count   int64    `json:"count"`
}

type GetEntryRequest struct {
	Name string `json:"name"`
}

type GetEntryResponse struct {
	Id             int64    `json:"id"`
	Name           string   `json:"name"`
	DisplayName    string   `json:"displayName"`
	Types          []string `json:"types"`
	HeightM        float64  `json:"heightM"`
	WeightKg       float64  `json:"weightKg"`
	BaseExperience int64    `json:"baseExperience"`
	Stats          []*Stat  `json:"stats"`
	MaxBaseStat    int64    `json:"maxBaseStat"`
	SpriteUrl      string   `json:"spriteUrl"`
}

type OpenSessionRequest struct {
	// Preload が true なら最初のページを読み込んでから応答します
	Preload bool `json:"preload"`
}

type OpenSessionResponse struct {
	SessionId string     `json:"sessionId"`
	State     *ListState `json:"state"`
}

type LoadNextPageRequest struct {
	SessionId string `json:"sessionId"`
}

type LoadNextPageResponse struct {
	// Started は取得を実行したかどうかです。取得中や終端到達時は false になります
	Started bool       `json:"started"`
	State   *ListState `json:"state"`
}

type SearchRequest struct {
	SessionId string `json:"sessionId"`
	Query     string `json:"query"`
}

type SearchResponse struct {
	State *ListState `json:"state"`
}

type GetStateRequest struct {
	SessionId string `json:"sessionId"`
}

type GetStateResponse struct {
	State *ListState `json:"state"`
}

type CloseSessionRequest struct {
	SessionId string `json:"sessionId"`
}

type CloseSessionResponse struct{}
