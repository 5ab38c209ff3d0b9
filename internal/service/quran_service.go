package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/qs3c/quran_app_server/internal/model"
	"github.com/qs3c/quran_app_server/internal/model/dto"
	"github.com/qs3c/quran_app_server/internal/pkg/apperr"
	"github.com/qs3c/quran_app_server/internal/repository"
)

const (
	SurahCount         = 114
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
	minQueryLength     = 2
)

var (
	ErrInvalidSurah  = apperr.Validation("INVALID_SURAH", "surah number must be between 1 and 114")
	ErrInvalidAyah   = apperr.Validation("INVALID_AYAH", "ayah number must be a positive integer")
	ErrInvalidQuery  = apperr.Validation("INVALID_QUERY", "search query must be at least 2 characters")
	ErrInvalidLimit  = apperr.Validation("INVALID_LIMIT", "limit must be between 1 and 50")
	ErrSurahNotFound = apperr.NotFound("SURAH_NOT_FOUND", "surah not found")
	ErrAyahNotFound  = apperr.NotFound("AYAH_NOT_FOUND", "ayah not found")
)

type QuranService struct {
	repo *repository.QuranRepository
}

func NewQuranService(repo *repository.QuranRepository) *QuranService {
	return &QuranService{repo: repo}
}

func (s *QuranService) ListSurahs() ([]model.Surah, error) {
	surahs, err := s.repo.ListSurahs()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if surahs == nil {
		surahs = []model.Surah{}
	}
	return surahs, nil
}

// GetSurah 章节信息及全部经文
func (s *QuranService) GetSurah(number int) (*dto.SurahDetail, error) {
	if number < 1 || number > SurahCount {
		return nil, ErrInvalidSurah
	}

	surah, err := s.repo.GetSurah(number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSurahNotFound
		}
		return nil, apperr.Internal(err)
	}

	ayahs, err := s.repo.ListAyahs(number)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if ayahs == nil {
		ayahs = []model.Ayah{}
	}

	return &dto.SurahDetail{Surah: *surah, Ayahs: ayahs}, nil
}

func (s *QuranService) GetAyah(surahNumber, ayahNumber int) (*model.Ayah, error) {
	if surahNumber < 1 || surahNumber > SurahCount {
		return nil, ErrInvalidSurah
	}
	if ayahNumber < 1 {
		return nil, ErrInvalidAyah
	}

	ayah, err := s.repo.GetAyah(surahNumber, ayahNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAyahNotFound
		}
		return nil, apperr.Internal(err)
	}
	return ayah, nil
}

// Search limit 为 0 时使用默认值，超过上限时截断
func (s *QuranService) Search(query string, limit int) (*dto.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		return nil, ErrInvalidQuery
	}

	switch {
	case limit < 0:
		return nil, ErrInvalidLimit
	case limit == 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	ayahs, err := s.repo.Search(query, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if ayahs == nil {
		ayahs = []model.Ayah{}
	}

	return &dto.SearchResponse{Query: query, Count: len(ayahs), Results: ayahs}, nil
}
