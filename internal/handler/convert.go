package handler

import (
	pokedexv1 "jo3qma.com/pokedex/internal/api/pokedexv1"
	"jo3qma.com/pokedex/internal/domain/model"
	"jo3qma.com/pokedex/internal/usecase"
)

// ドメインモデルをレスポンスのメッセージに変換します

func toEntry(e model.DisplayEntry) *pokedexv1.Entry {
	return &pokedexv1.Entry{
		Id:       int64(e.ID),
		Name:     e.Name,
		ImageUrl: e.ImageURL,
	}
}

func toListState(s usecase.LoaderState) *pokedexv1.ListState {
	entries := make([]*pokedexv1.Entry, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, toEntry(e))
	}
	return &pokedexv1.ListState{
		Entries:     entries,
		PageOffset:  int64(s.PageOffset),
		IsLoading:   s.IsLoading,
		EndReached:  s.EndReached,
		LastError:   s.LastError,
		IsSearching: s.IsSearching,
		Query:       s.Query,
		Version:     s.Version,
	}
}

func toGetEntryResponse(d *model.EntryDetail) *pokedexv1.GetEntryResponse {
	resp := &pokedexv1.GetEntryResponse{
		Id:             int64(d.ID),
		Name:           d.Name,
		DisplayName:    d.DisplayName(),
		Types:          d.Types,
		HeightM:        d.HeightM(),
		WeightKg:       d.WeightKg(),
		BaseExperience: int64(d.BaseExperience),
		MaxBaseStat:    int64(d.MaxBaseStat()),
		SpriteUrl:      d.SpriteURL,
		Stats:          make([]*pokedexv1.Stat, 0, len(d.Stats)),
	}
	for _, s := range d.Stats {
		resp.Stats = append(resp.Stats, &pokedexv1.Stat{
			Name:         s.Name,
			Abbreviation: model.StatAbbreviation(s.Name),
			BaseStat:     int64(s.BaseStat),
		})
	}
	return resp
}
