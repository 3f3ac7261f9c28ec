package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"cmspanel/internal/logger"
	"cmspanel/internal/models"
	"cmspanel/internal/services"
	helpers "cmspanel/internal/utils/helpers"

	"go.uber.org/zap"
)

const themeMaxUploadSize = 5 << 20 // 5 МБ на форму с логотипом и фавиконом

type ThemeHandler struct {
	svc *services.ThemeService
}

func NewThemeHandler(svc *services.ThemeService) *ThemeHandler {
	return &ThemeHandler{svc: svc}
}

// Get godoc
// @Summary Текущая тема оформления
// @Description Если тему ещё не настраивали — возвращаются значения по умолчанию.
// @Tags theme
// @Produce json
// @Success 200 {object} models.Theme
// @Router /api/theme [get]
func (h *ThemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context())
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка получения темы", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, t)
}

// Save godoc
// @Summary Сохранение темы оформления (админ)
// @Description Multipart-форма: текстовые поля темы плюс опциональные файлы logo и favicon.
// @Tags theme
// @Security ApiKeyAuth
// @Accept multipart/form-data
// @Produce json
// @Param name formData string false "Название темы"
// @Param primary_color formData string false "Основной цвет"
// @Param secondary_color formData string false "Вторичный цвет"
// @Param tertiary_color formData string false "Третичный цвет"
// @Param font formData string false "Шрифт"
// @Param background_color formData string false "Цвет фона"
// @Param text_color formData string false "Цвет текста"
// @Param mode formData string true "light | dark"
// @Param logo formData file false "Логотип"
// @Param favicon formData file false "Фавикон"
// @Success 200 {object} models.Theme
// @Failure 400 {object} map[string]string
// @Router /api/admin/theme [put]
func (h *ThemeHandler) Save(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	if err := r.ParseMultipartForm(themeMaxUploadSize); err != nil {
		log.Warn("Невалидная multipart-форма темы", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "bad multipart form")
		return
	}

	t := &models.Theme{
		Name:            r.FormValue("name"),
		PrimaryColor:    r.FormValue("primary_color"),
		SecondaryColor:  r.FormValue("secondary_color"),
		TertiaryColor:   r.FormValue("tertiary_color"),
		Font:            r.FormValue("font"),
		BackgroundColor: r.FormValue("background_color"),
		TextColor:       r.FormValue("text_color"),
		Mode:            r.FormValue("mode"),
	}

	logo, err := formThemeFile(r, "logo")
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad logo file")
		return
	}
	if logo != nil {
		defer logo.close()
	}

	favicon, err := formThemeFile(r, "favicon")
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad favicon file")
		return
	}
	if favicon != nil {
		defer favicon.close()
	}

	var logoFile, faviconFile *services.ThemeFile
	if logo != nil {
		logoFile = &logo.ThemeFile
	}
	if favicon != nil {
		faviconFile = &favicon.ThemeFile
	}

	saved, err := h.svc.Save(r.Context(), t, logoFile, faviconFile)
	if err != nil {
		if errors.Is(err, services.ErrBadThemeMode) {
			helpers.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("Ошибка сохранения темы", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	helpers.JSON(w, http.StatusOK, saved)
}

type formFile struct {
	services.ThemeFile
	f multipart.File
}

func (ff *formFile) close() { _ = ff.f.Close() }

// formThemeFile достаёт файл из формы; отсутствие файла — не ошибка.
func formThemeFile(r *http.Request, field string) (*formFile, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &formFile{
		ThemeFile: services.ThemeFile{
			Name:        hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Body:        f,
		},
		f: f,
	}, nil
}
