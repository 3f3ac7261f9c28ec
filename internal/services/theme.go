package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cmspanel/internal/logger"
	"cmspanel/internal/models"
	"cmspanel/internal/storage"

	"go.uber.org/zap"
)

var ErrBadThemeMode = errors.New("режим темы должен быть light или dark")

// ThemeRepo — контракт хранилища темы (единственная строка).
type ThemeRepo interface {
	Get(ctx context.Context) (*models.Theme, error)
	Upsert(ctx context.Context, t *models.Theme) error
}

type ThemeService struct {
	repo     ThemeRepo
	uploader storage.Uploader // nil, когда S3 не сконфигурирован
}

func NewThemeService(repo ThemeRepo, uploader storage.Uploader) *ThemeService {
	return &ThemeService{repo: repo, uploader: uploader}
}

// Get отдаёт тему; если её ещё не настраивали — дефолтную.
func (s *ThemeService) Get(ctx context.Context) (*models.Theme, error) {
	t, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return models.DefaultTheme(), nil
	}
	return t, nil
}

// ThemeFile — загружаемый файл (логотип или фавикон).
type ThemeFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Save валидирует и сохраняет тему. Непустые logo/favicon уходят в
// объектное хранилище, в базу пишутся публичные URL.
func (s *ThemeService) Save(ctx context.Context, t *models.Theme, logo, favicon *ThemeFile) (*models.Theme, error) {
	if t.Mode != models.ThemeModeLight && t.Mode != models.ThemeModeDark {
		return nil, ErrBadThemeMode
	}
	applyThemeDefaults(t)

	if logo != nil {
		url, err := s.uploadFile(ctx, "theme/logo", logo)
		if err != nil {
			logger.Log.Error("Не удалось загрузить логотип", zap.Error(err))
			return nil, err
		}
		t.LogoURL = &url
	}
	if favicon != nil {
		url, err := s.uploadFile(ctx, "theme/favicon", favicon)
		if err != nil {
			logger.Log.Error("Не удалось загрузить фавикон", zap.Error(err))
			return nil, err
		}
		t.FaviconURL = &url
	}

	if err := s.repo.Upsert(ctx, t); err != nil {
		logger.Log.Error("Ошибка сохранения темы", zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Тема обновлена", zap.String("name", t.Name), zap.String("mode", t.Mode))
	return s.Get(ctx)
}

func (s *ThemeService) uploadFile(ctx context.Context, prefix string, f *ThemeFile) (string, error) {
	if s.uploader == nil {
		return "", errors.New("объектное хранилище не настроено")
	}
	// В ключе — timestamp, чтобы CDN/браузер не отдавали старый файл
	key := fmt.Sprintf("%s-%d%s", prefix, time.Now().UnixNano(), strings.ToLower(filepath.Ext(f.Name)))
	return s.uploader.Upload(ctx, key, f.ContentType, f.Body)
}

// Пустые поля заполняем значениями дефолтной темы,
// чтобы фронт никогда не получил тему с дырками.
func applyThemeDefaults(t *models.Theme) {
	d := models.DefaultTheme()
	if t.Name == "" {
		t.Name = d.Name
	}
	if t.PrimaryColor == "" {
		t.PrimaryColor = d.PrimaryColor
	}
	if t.SecondaryColor == "" {
		t.SecondaryColor = d.SecondaryColor
	}
	if t.TertiaryColor == "" {
		t.TertiaryColor = d.TertiaryColor
	}
	if t.Font == "" {
		t.Font = d.Font
	}
	if t.BackgroundColor == "" {
		t.BackgroundColor = d.BackgroundColor
	}
	if t.TextColor == "" {
		t.TextColor = d.TextColor
	}
}
