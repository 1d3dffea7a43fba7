package usecase

import (
	"strconv"
	"strings"

	"jo3qma.com/pokedex/internal/domain/model"
)

// FilterEntries は名前の部分一致（大文字小文字を区別しない）または図鑑番号の完全一致で絞り込みます
// query は前後の空白を除いてから比較します。entries は変更せず、順序を保った新しいスライスを返します
func FilterEntries(entries []model.DisplayEntry, query string) []model.DisplayEntry {
	q := strings.TrimSpace(query)
	lower := strings.ToLower(q)

	out := make([]model.DisplayEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), lower) || strconv.Itoa(e.ID) == q {
			out = append(out, e)
		}
	}
	return out
}
