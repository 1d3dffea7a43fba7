package model

import (
	"fmt"
	"math"
)

// EntryDetail は詳細APIから取得するエントリの情報です
// 外部APIのJSON構造を知らない、純粋なデータ構造を定義します
type EntryDetail struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Height         int      `json:"height"` // 単位：デシメートル
	Weight         int      `json:"weight"` // 単位：ヘクトグラム
	BaseExperience int      `json:"base_experience"`
	Types          []string `json:"types"` // スロット順
	Stats          []Stat   `json:"stats"`
	SpriteURL      string   `json:"sprite_url"`
}

// Stat は種族値1項目です
type Stat struct {
	Name     string `json:"name"`
	BaseStat int    `json:"base_stat"`
}

// statAbbreviations は詳細画面で使う種族値の略称です
var statAbbreviations = map[string]string{
	"hp":              "HP",
	"attack":          "Atk",
	"defense":         "Def",
	"special-attack":  "SpAtk",
	"special-defense": "SpDef",
	"speed":           "Spd",
}

// StatAbbreviation は種族値名の略称を返します。未知の名前はそのまま返します
func StatAbbreviation(name string) string {
	if abbr, ok := statAbbreviations[name]; ok {
		return abbr
	}
	return name
}

// WeightKg は重さをキログラムで返します（小数第1位まで）
func (d *EntryDetail) WeightKg() float64 {
	return math.Round(float64(d.Weight)*100) / 1000
}

// HeightM は高さをメートルで返します（小数第1位まで）
func (d *EntryDetail) HeightM() float64 {
	return math.Round(float64(d.Height)*100) / 1000
}

// MaxBaseStat は種族値の最大値を返します。種族値がなければ0です
func (d *EntryDetail) MaxBaseStat() int {
	max := 0
	for _, s := range d.Stats {
		if s.BaseStat > max {
			max = s.BaseStat
		}
	}
	return max
}

// DisplayName は "#25 Pikachu" 形式の見出しを返します
func (d *EntryDetail) DisplayName() string {
	return fmt.Sprintf("#%d %s", d.ID, capitalize(d.Name))
}
