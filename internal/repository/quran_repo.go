package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/quran_app_server/internal/model"
)

type QuranRepository struct {
	db *gorm.DB
}

func NewQuranRepository(db *gorm.DB) *QuranRepository {
	return &QuranRepository{db: db}
}

func (r *QuranRepository) ListSurahs() ([]model.Surah, error) {
	var surahs []model.Surah
	err := r.db.Order("number ASC").Find(&surahs).Error
	return surahs, err
}

func (r *QuranRepository) GetSurah(number int) (*model.Surah, error) {
	var surah model.Surah
	err := r.db.Where("number = ?", number).First(&surah).Error
	if err != nil {
		return nil, err
	}
	return &surah, nil
}

func (r *QuranRepository) ListAyahs(surahNumber int) ([]model.Ayah, error) {
	var ayahs []model.Ayah
	err := r.db.Where("surah_number = ?", surahNumber).Order("ayah_number ASC").Find(&ayahs).Error
	return ayahs, err
}

func (r *QuranRepository) GetAyah(surahNumber, ayahNumber int) (*model.Ayah, error) {
	var ayah model.Ayah
	err := r.db.Where("surah_number = ? AND ayah_number = ?", surahNumber, ayahNumber).First(&ayah).Error
	if err != nil {
		return nil, err
	}
	return &ayah, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Search 译文大小写不敏感、原文按子串匹配
func (r *QuranRepository) Search(query string, limit int) ([]model.Ayah, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	raw := "%" + likeEscaper.Replace(query) + "%"

	var ayahs []model.Ayah
	err := r.db.
		Where("LOWER(text_translation) LIKE ? ESCAPE '!' OR text_arabic LIKE ? ESCAPE '!'", pattern, raw).
		Order("surah_number ASC, ayah_number ASC").
		Limit(limit).
		Find(&ayahs).Error
	return ayahs, err
}

func (r *QuranRepository) CountSurahs() (int64, error) {
	var count int64
	err := r.db.Model(&model.Surah{}).Count(&count).Error
	return count, err
}

// Upsert 导入章节与经文，重复导入时覆盖文本
func (r *QuranRepository) Upsert(surahs []model.Surah, ayahs []model.Ayah) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(surahs) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "number"}},
				DoUpdates: clause.AssignmentColumns([]string{"name_arabic", "name_transliterated", "name_english", "revelation_place", "ayah_count"}),
			}).CreateInBatches(surahs, 100).Error
			if err != nil {
				return err
			}
		}

		if len(ayahs) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "surah_number"}, {Name: "ayah_number"}},
				DoUpdates: clause.AssignmentColumns([]string{"juz", "text_arabic", "text_translation"}),
			}).CreateInBatches(ayahs, 200).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
