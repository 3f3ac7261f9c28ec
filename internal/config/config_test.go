package config

import "testing"

func TestValidate_IncompleteDBFatal(t *testing.T) {
	cfg := &Config{DbHost: "localhost", DbUser: "app"} // нет DB_NAME

	if _, err := cfg.Validate(); err == nil {
		t.Fatal("неполный конфиг БД должен быть фатальной ошибкой")
	}
}

func TestValidate_WarningsOnly(t *testing.T) {
	cfg := &Config{
		DbHost: "localhost",
		DbUser: "app",
		DbName: "cms",
		// JWT_SECRET, SMTP, S3, FRONTEND_URL пустые — только предупреждения
	}

	warnings, err := cfg.Validate()
	if err != nil {
		t.Fatalf("пустые необязательные поля не должны быть фатальными: %v", err)
	}
	if len(warnings) == 0 {
		t.Fatal("ожидались предупреждения о неполном конфиге")
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := &Config{AccessTokenTTL: "мусор", RefreshTokenTTL: "", PasswordResetTTLMin: "30", ForgotLimitPerHour: "0"}

	if got := cfg.AccessTokenDuration().Minutes(); got != 15 {
		t.Fatalf("мусорный TTL должен падать в дефолт 15m, получено: %v", got)
	}
	if got := cfg.RefreshTokenDuration().Hours(); got != 720 {
		t.Fatalf("пустой TTL должен падать в дефолт 720h, получено: %v", got)
	}
	if got := cfg.PasswordResetTTL().Minutes(); got != 30 {
		t.Fatalf("PASSWORD_RESET_TTL_MIN=30 должен давать 30 минут, получено: %v", got)
	}
	if got := cfg.ForgotLimit(); got != 5 {
		t.Fatalf("нулевой лимит должен падать в дефолт 5, получено: %d", got)
	}
}
