package repository

import (
	"context"
	"errors"

	"cmspanel/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ThemeRepo struct {
	db *pgxpool.Pool
}

func NewThemeRepo(db *pgxpool.Pool) *ThemeRepo { return &ThemeRepo{db: db} }

// Get возвращает (nil, nil), если тема ещё не настраивалась.
func (r *ThemeRepo) Get(ctx context.Context) (*models.Theme, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, primary_color, secondary_color, tertiary_color, font,
		       background_color, text_color, mode, logo_url, favicon_url, updated_at
		FROM themes
		ORDER BY id
		LIMIT 1`)

	var t models.Theme
	err := row.Scan(
		&t.ID, &t.Name, &t.PrimaryColor, &t.SecondaryColor, &t.TertiaryColor, &t.Font,
		&t.BackgroundColor, &t.TextColor, &t.Mode, &t.LogoURL, &t.FaviconURL, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert создаёт либо обновляет единственную строку темы.
// logo_url/favicon_url затираются только если переданы (COALESCE).
func (r *ThemeRepo) Upsert(ctx context.Context, t *models.Theme) error {
	existing, err := r.Get(ctx)
	if err != nil {
		return err
	}

	if existing == nil {
		return r.db.QueryRow(ctx, `
			INSERT INTO themes (name, primary_color, secondary_color, tertiary_color, font,
			                    background_color, text_color, mode, logo_url, favicon_url)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id, updated_at`,
			t.Name, t.PrimaryColor, t.SecondaryColor, t.TertiaryColor, t.Font,
			t.BackgroundColor, t.TextColor, t.Mode, t.LogoURL, t.FaviconURL,
		).Scan(&t.ID, &t.UpdatedAt)
	}

	t.ID = existing.ID
	return r.db.QueryRow(ctx, `
		UPDATE themes
		SET name=$1, primary_color=$2, secondary_color=$3, tertiary_color=$4, font=$5,
		    background_color=$6, text_color=$7, mode=$8,
		    logo_url=COALESCE($9, logo_url), favicon_url=COALESCE($10, favicon_url),
		    updated_at=now()
		WHERE id=$11
		RETURNING updated_at`,
		t.Name, t.PrimaryColor, t.SecondaryColor, t.TertiaryColor, t.Font,
		t.BackgroundColor, t.TextColor, t.Mode, t.LogoURL, t.FaviconURL, t.ID,
	).Scan(&t.UpdatedAt)
}
