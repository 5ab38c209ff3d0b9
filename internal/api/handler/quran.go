package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/quran_app_server/internal/pkg/response"
	"github.com/qs3c/quran_app_server/internal/service"
)

type QuranHandler struct {
	quranService *service.QuranService
}

func NewQuranHandler(quranService *service.QuranService) *QuranHandler {
	return &QuranHandler{
		quranService: quranService,
	}
}

// ListSurahs GET /api/v1/quran/surahs
func (h *QuranHandler) ListSurahs(c *gin.Context) {
	surahs, err := h.quranService.ListSurahs()
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, surahs)
}

// GetSurah GET /api/v1/quran/surahs/:surah
func (h *QuranHandler) GetSurah(c *gin.Context) {
	number, ok := pathInt(c, "surah")
	if !ok {
		return
	}

	surah, err := h.quranService.GetSurah(number)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, surah)
}

// GetAyah GET /api/v1/quran/ayahs/:surah/:ayah
func (h *QuranHandler) GetAyah(c *gin.Context) {
	surah, ok := pathInt(c, "surah")
	if !ok {
		return
	}
	ayah, ok := pathInt(c, "ayah")
	if !ok {
		return
	}

	result, err := h.quranService.GetAyah(surah, ayah)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}

// Search GET /api/v1/quran/search?q=&limit=
func (h *QuranHandler) Search(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.FromError(c, service.ErrInvalidLimit)
			return
		}
		limit = n
	}

	result, err := h.quranService.Search(c.Query("q"), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}
