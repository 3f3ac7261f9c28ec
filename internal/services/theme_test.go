package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"cmspanel/internal/models"
)

type mockThemeRepo struct {
	stored *models.Theme
}

func (m *mockThemeRepo) Get(_ context.Context) (*models.Theme, error) {
	if m.stored == nil {
		return nil, nil
	}
	cp := *m.stored
	return &cp, nil
}

func (m *mockThemeRepo) Upsert(_ context.Context, t *models.Theme) error {
	cp := *t
	cp.ID = 1
	m.stored = &cp
	return nil
}

type mockUploader struct {
	keys []string
}

func (m *mockUploader) Upload(_ context.Context, key, _ string, _ io.Reader) (string, error) {
	m.keys = append(m.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func TestThemeGet_DefaultsWhenEmpty(t *testing.T) {
	svc := NewThemeService(&mockThemeRepo{}, nil)

	got, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("ошибка получения темы: %v", err)
	}
	if got.Name != "Default Theme" || got.Mode != models.ThemeModeLight {
		t.Fatalf("ожидалась дефолтная тема, получено: %+v", got)
	}
}

func TestThemeSave_BadMode(t *testing.T) {
	svc := NewThemeService(&mockThemeRepo{}, nil)

	_, err := svc.Save(context.Background(), &models.Theme{Mode: "neon"}, nil, nil)
	if !errors.Is(err, ErrBadThemeMode) {
		t.Fatalf("ожидалась ErrBadThemeMode, получено: %v", err)
	}
}

func TestThemeSave_FillsDefaults(t *testing.T) {
	repo := &mockThemeRepo{}
	svc := NewThemeService(repo, nil)

	saved, err := svc.Save(context.Background(), &models.Theme{Mode: models.ThemeModeDark}, nil, nil)
	if err != nil {
		t.Fatalf("ошибка сохранения темы: %v", err)
	}
	if saved.PrimaryColor != "#3b82f6" || saved.Font != "inter" {
		t.Fatalf("пустые поля должны заполняться дефолтами, получено: %+v", saved)
	}
	if saved.Mode != models.ThemeModeDark {
		t.Fatal("выбранный режим не должен затираться дефолтом")
	}
}

func TestThemeSave_UploadsFiles(t *testing.T) {
	repo := &mockThemeRepo{}
	up := &mockUploader{}
	svc := NewThemeService(repo, up)

	logo := &ThemeFile{Name: "logo.png", ContentType: "image/png", Body: strings.NewReader("png")}
	fav := &ThemeFile{Name: "fav.ico", ContentType: "image/x-icon", Body: strings.NewReader("ico")}

	saved, err := svc.Save(context.Background(), &models.Theme{Mode: models.ThemeModeLight}, logo, fav)
	if err != nil {
		t.Fatalf("ошибка сохранения темы с файлами: %v", err)
	}
	if len(up.keys) != 2 {
		t.Fatalf("ожидались две загрузки, получено: %d", len(up.keys))
	}
	if saved.LogoURL == nil || !strings.HasPrefix(*saved.LogoURL, "https://cdn.example.com/theme/logo") {
		t.Fatalf("неверный URL логотипа: %v", saved.LogoURL)
	}
	if saved.FaviconURL == nil || !strings.HasPrefix(*saved.FaviconURL, "https://cdn.example.com/theme/favicon") {
		t.Fatalf("неверный URL фавикона: %v", saved.FaviconURL)
	}
}

func TestThemeSave_NoUploaderConfigured(t *testing.T) {
	svc := NewThemeService(&mockThemeRepo{}, nil)

	logo := &ThemeFile{Name: "logo.png", ContentType: "image/png", Body: strings.NewReader("png")}
	_, err := svc.Save(context.Background(), &models.Theme{Mode: models.ThemeModeLight}, logo, nil)
	if err == nil {
		t.Fatal("без объектного хранилища загрузка файлов должна падать")
	}
}
