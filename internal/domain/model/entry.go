package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultImageURLTemplate はスプライト画像URLのテンプレートです。%d に図鑑番号が入ります
const DefaultImageURLTemplate = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/%d.png"

// ErrMalformedEntryURL はリソースURLの末尾に数字のセグメントがない場合に返されます
var ErrMalformedEntryURL = errors.New("entry url has no trailing numeric segment")

// RemoteEntry は一覧APIが返す1件分の生データです
// URL は ".../pokemon/25/" のように数字のセグメントで終わります
type RemoteEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RemoteListPage は一覧APIの1ページ分の結果です
type RemoteListPage struct {
	Results []RemoteEntry `json:"results"`
	Count   int           `json:"count"` // サーバー側の総件数
}

// DisplayEntry は一覧表示用に変換済みのエントリです
type DisplayEntry struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	ID       int    `json:"id"`
}

// EntryTransformer は RemoteEntry を DisplayEntry に変換します
type EntryTransformer struct {
	// ImageURLTemplate は fmt 形式のテンプレートです。空なら DefaultImageURLTemplate を使います
	ImageURLTemplate string
}

// Transform は生データから表示用エントリを作ります
// ID はURL末尾の数字から決定的に求めるので、同じエントリなら再取得しても変わりません
func (t EntryTransformer) Transform(raw RemoteEntry) (DisplayEntry, error) {
	id, err := ParseEntryID(raw.URL)
	if err != nil {
		return DisplayEntry{}, err
	}

	tmpl := t.ImageURLTemplate
	if tmpl == "" {
		tmpl = DefaultImageURLTemplate
	}

	return DisplayEntry{
		Name:     capitalize(raw.Name),
		ImageURL: fmt.Sprintf(tmpl, id),
		ID:       id,
	}, nil
}

// ParseEntryID はリソースURLの末尾にある数字のセグメントを図鑑番号として取り出します
// 末尾のスラッシュは1つだけ取り除きます
func ParseEntryID(url string) (int, error) {
	s := strings.TrimSuffix(url, "/")

	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	digits := s[i:]
	if digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedEntryURL, url)
	}

	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedEntryURL, url, err)
	}
	return id, nil
}

// capitalize は先頭の1文字だけを大文字にします
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
