package models

import "time"

// Theme — единственная строка с настройками оформления сайта.
type Theme struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	PrimaryColor    string    `json:"primary_color"`
	SecondaryColor  string    `json:"secondary_color"`
	TertiaryColor   string    `json:"tertiary_color"`
	Font            string    `json:"font"`
	BackgroundColor string    `json:"background_color"`
	TextColor       string    `json:"text_color"`
	Mode            string    `json:"mode"` // light | dark
	LogoURL         *string   `json:"logo_url,omitempty"`
	FaviconURL      *string   `json:"favicon_url,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

const (
	ThemeModeLight = "light"
	ThemeModeDark  = "dark"
)

// DefaultTheme — дефолтное оформление, когда строка ещё не создана.
func DefaultTheme() *Theme {
	return &Theme{
		Name:            "Default Theme",
		PrimaryColor:    "#3b82f6",
		SecondaryColor:  "#10b981",
		TertiaryColor:   "#8b5cf6",
		Font:            "inter",
		BackgroundColor: "#ffffff",
		TextColor:       "#000000",
		Mode:            ThemeModeLight,
	}
}
