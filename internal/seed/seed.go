// Package seed 导入章节与经文数据。数据文件为 YAML，未指定文件时使用内置样例。
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qs3c/quran_app_server/internal/model"
	"github.com/qs3c/quran_app_server/internal/repository"
)

//go:embed data.yaml
var builtin []byte

const maxSurah = 114

type surahEntry struct {
	model.Surah `yaml:",inline"`
	Ayahs       []model.Ayah `yaml:"ayahs"`
}

type document struct {
	Surahs []surahEntry `yaml:"surahs"`
}

// Dataset 解析并校验后的数据
type Dataset struct {
	Surahs []model.Surah
	Ayahs  []model.Ayah
}

// Parse 解析 YAML 并校验章节编号、经文连续性
func Parse(r io.Reader) (*Dataset, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}
	if len(doc.Surahs) == 0 {
		return nil, fmt.Errorf("seed data contains no surahs")
	}

	ds := &Dataset{}
	seen := make(map[int]bool, len(doc.Surahs))
	for _, entry := range doc.Surahs {
		s := entry.Surah
		if s.Number < 1 || s.Number > maxSurah {
			return nil, fmt.Errorf("surah %d: number out of range", s.Number)
		}
		if seen[s.Number] {
			return nil, fmt.Errorf("surah %d: listed twice", s.Number)
		}
		seen[s.Number] = true

		if strings.TrimSpace(s.NameArabic) == "" || strings.TrimSpace(s.NameTransliterated) == "" {
			return nil, fmt.Errorf("surah %d: names are required", s.Number)
		}
		if s.AyahCount != len(entry.Ayahs) {
			return nil, fmt.Errorf("surah %d: ayah_count is %d but %d ayahs listed", s.Number, s.AyahCount, len(entry.Ayahs))
		}

		for i, a := range entry.Ayahs {
			if a.AyahNumber != i+1 {
				return nil, fmt.Errorf("surah %d: ayah %d out of order (got %d)", s.Number, i+1, a.AyahNumber)
			}
			if strings.TrimSpace(a.TextArabic) == "" {
				return nil, fmt.Errorf("surah %d ayah %d: text_arabic is required", s.Number, a.AyahNumber)
			}
			a.SurahNumber = s.Number
			ds.Ayahs = append(ds.Ayahs, a)
		}
		ds.Surahs = append(ds.Surahs, s)
	}

	return ds, nil
}

// Open 读取数据文件，path 为空时返回内置数据
func Open(path string) (*Dataset, error) {
	if path == "" {
		return Parse(bytes.NewReader(builtin))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Load 写入数据库，可重复执行
func Load(repo *repository.QuranRepository, ds *Dataset) error {
	if err := repo.Upsert(ds.Surahs, ds.Ayahs); err != nil {
		return fmt.Errorf("upsert seed data: %w", err)
	}
	return nil
}

// LoadIfEmpty 库中没有任何章节时导入，返回是否执行了导入
func LoadIfEmpty(repo *repository.QuranRepository, path string) (bool, error) {
	count, err := repo.CountSurahs()
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	ds, err := Open(path)
	if err != nil {
		return false, err
	}
	return true, Load(repo, ds)
}
