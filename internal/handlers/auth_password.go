package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"cmspanel/internal/logger"
	"cmspanel/internal/middleware"
	"cmspanel/internal/models"
	"cmspanel/internal/services"
	helpers "cmspanel/internal/utils/helpers"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"
)

// userReader — рядом с PasswordHandler: нужен только один метод.
type userReader interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

type PasswordHandler struct {
	svc         *services.PasswordService
	userRepo    userReader
	limiter     *services.RateLimiter
	forgotLimit int
}

func NewPasswordHandler(svc *services.PasswordService, userRepo userReader, limiter *services.RateLimiter, forgotLimit int) *PasswordHandler {
	return &PasswordHandler{svc: svc, userRepo: userRepo, limiter: limiter, forgotLimit: forgotLimit}
}

type forgotRequest struct {
	Email string `json:"email"`
}

func (r forgotRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// Forgot godoc
// @Summary Запрос восстановления пароля
// @Description Отправляет письмо со ссылкой для сброса. Ответ всегда одинаковый, даже если e-mail не найден.
// @Tags password
// @Accept json
// @Produce json
// @Param input body forgotRequest true "Email пользователя"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /api/password/forgot [post]
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req forgotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный JSON в Forgot", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		log.Warn("Невалидный email в Forgot", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if !h.limiter.AllowPerHour(r.Context(), "forgot:"+clientIP(r), h.forgotLimit) {
		log.Warn("Превышен лимит запросов на сброс пароля", zap.String("ip", clientIP(r)))
		helpers.Error(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	// Не раскрываем, существует ли email: ответ одинаковый в любом случае
	if err := h.svc.RequestReset(r.Context(), req.Email); err != nil {
		log.Error("Сбой при запросе восстановления пароля", zap.String("email_masked", maskEmail(req.Email)), zap.Error(err))
	} else {
		log.Info("Запрошено восстановление пароля", zap.String("email_masked", maskEmail(req.Email)))
	}

	helpers.JSON(w, http.StatusOK, map[string]string{"message": "If the email exists, a reset link has been sent."})
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r resetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 128)),
	)
}

// Reset godoc
// @Summary Сброс пароля по токену
// @Description Устанавливает новый пароль по одноразовому токену из письма.
// @Tags password
// @Accept json
// @Produce json
// @Param input body resetRequest true "Токен и новый пароль"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/password/reset [post]
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный JSON в Reset", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		log.Warn("Невалидный payload в Reset", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		log.Warn("Не удалось сбросить пароль по токену", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, resetErrorCode(err))
		return
	}

	log.Info("Пароль успешно сброшен")
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Password has been reset."})
}

// Коды для фронта: по ним показывается конкретная подсказка пользователю.
func resetErrorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, services.ErrTokenUsed):
		return "token_already_used"
	case errors.Is(err, services.ErrTokenInvalid):
		return "invalid_token"
	case errors.Is(err, services.ErrPasswordTooShort):
		return "password_too_short"
	default:
		return "invalid_token"
	}
}

type changeRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Change godoc
// @Summary Смена пароля (авторизованный пользователь)
// @Description Смена пароля по старому паролю. Требуется JWT-токен.
// @Tags password
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body changeRequest true "Старый и новый пароль"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/password/change [post]
func (h *PasswordHandler) Change(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == 0 {
		log.Warn("Нет user_id в контексте при смене пароля")
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.OldPassword) == "" || strings.TrimSpace(req.NewPassword) == "" {
		log.Warn("Невалидный payload в Change", zap.Int("user_id", userID))
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	u, err := h.userRepo.GetUserByID(r.Context(), userID)
	if err != nil {
		log.Warn("Пользователь не найден при смене пароля", zap.Int("user_id", userID))
		helpers.Error(w, http.StatusUnauthorized, "user not found")
		return
	}

	if _, err := h.svc.ChangePassword(r.Context(), int64(userID), req.OldPassword, req.NewPassword, u.PasswordHash); err != nil {
		log.Warn("Не удалось сменить пароль", zap.Int("user_id", userID), zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info("Пароль изменён", zap.Int("user_id", userID))
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Password changed."})
}

// clientIP — IP клиента с учётом реверс-прокси.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// maskEmail прячет локальную часть: в логах адрес целиком не нужен.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
