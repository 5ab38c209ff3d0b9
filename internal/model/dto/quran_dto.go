package dto

import "github.com/qs3c/quran_app_server/internal/model"

// SurahDetail 单个章节及其全部经文
type SurahDetail struct {
	model.Surah
	Ayahs []model.Ayah `json:"ayahs"`
}

// SearchResponse 搜索结果
type SearchResponse struct {
	Query   string       `json:"query"`
	Count   int          `json:"count"`
	Results []model.Ayah `json:"results"`
}
