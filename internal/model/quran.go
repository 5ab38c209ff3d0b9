package model

type Surah struct {
	Number             int    `gorm:"primaryKey;autoIncrement:false" json:"number" yaml:"number"`
	NameArabic         string `gorm:"size:100;not null" json:"name_arabic" yaml:"name_arabic"`
	NameTransliterated string `gorm:"size:100;not null" json:"name_transliterated" yaml:"name_transliterated"`
	NameEnglish        string `gorm:"size:100" json:"name_english" yaml:"name_english"`
	RevelationPlace    string `gorm:"size:10" json:"revelation_place" yaml:"revelation_place"` // meccan, medinan
	AyahCount          int    `gorm:"not null" json:"ayah_count" yaml:"ayah_count"`
}

func (Surah) TableName() string {
	return "surahs"
}

type Ayah struct {
	ID              int64  `gorm:"primaryKey" json:"id" yaml:"-"`
	SurahNumber     int    `gorm:"not null;uniqueIndex:idx_ayah_position" json:"surah_number" yaml:"-"`
	AyahNumber      int    `gorm:"not null;uniqueIndex:idx_ayah_position" json:"ayah_number" yaml:"number"`
	Juz             int    `gorm:"index" json:"juz" yaml:"juz"`
	TextArabic      string `gorm:"type:text;not null" json:"text_arabic" yaml:"text_arabic"`
	TextTranslation string `gorm:"type:text" json:"text_translation" yaml:"text_translation"`
}

func (Ayah) TableName() string {
	return "ayahs"
}
