package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"cmspanel/internal/logger"
	"cmspanel/internal/middleware"
	"cmspanel/internal/models"
	"cmspanel/internal/services"
	helpers "cmspanel/internal/utils/helpers"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
	jwtSecret   string
}

func NewAuthHandler(authService *services.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{authService: authService, jwtSecret: jwtSecret}
}

type registerRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 64)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerRequest true "Данные регистрации"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Ошибка декодирования JSON в Register", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		log.Warn("Невалидные данные регистрации", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err := h.authService.Register(r.Context(), req.Username, req.FullName, req.Email, req.Password)
	if err != nil {
		log.Error("Ошибка регистрации пользователя", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	helpers.JSON(w, http.StatusCreated, map[string]string{"message": "Пользователь успешно зарегистрирован."})
}

// Login godoc
// @Summary Авторизация пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginRequest true "Данные для входа"
// @Success 200 {object} loginResponse
// @Failure 401 {object} map[string]string
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Ошибка декодирования JSON в Login", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}

	access, refresh, user, err := h.authService.LoginUserWithUser(r.Context(), req.Username, req.Password)
	if err != nil {
		log.Warn("Ошибка входа пользователя", zap.String("username", req.Username), zap.Error(err))
		helpers.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	helpers.JSON(w, http.StatusOK, loginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Username:     user.Username,
		FullName:     user.FullName,
		Role:         user.Role,
	})
}

// Refresh godoc
// @Summary Обновление пары токенов
// @Tags auth
// @Accept json
// @Produce json
// @Param input body refreshRequest true "Действующий refresh-токен"
// @Success 200 {object} loginResponse
// @Failure 401 {object} map[string]string
// @Router /refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}

	userID, err := h.parseRefreshToken(req.RefreshToken)
	if err != nil {
		log.Warn("Невалидный refresh-токен", zap.Error(err))
		helpers.Error(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	access, refresh, err := h.authService.RefreshTokens(r.Context(), userID, req.RefreshToken)
	if err != nil {
		log.Warn("Не удалось обновить токены", zap.Int("user_id", userID), zap.Error(err))
		helpers.Error(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// parseRefreshToken проверяет подпись, token_type и достаёт user_id.
func (h *AuthHandler) parseRefreshToken(tokenStr string) (int, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	if tt, _ := claims["token_type"].(string); tt != "refresh" {
		return 0, errors.New("not a refresh token")
	}
	idF, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("no user_id claim")
	}
	return int(idF), nil
}

// Logout godoc
// @Summary Выход (отзыв refresh-токена)
// @Tags auth
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body refreshRequest true "Refresh-токен для отзыва"
// @Success 200 {object} map[string]string
// @Router /api/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}

	if err := h.authService.Logout(r.Context(), userID, req.RefreshToken); err != nil {
		log.Error("Ошибка выхода", zap.Int("user_id", userID), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "logout failed")
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Выход выполнен."})
}

// Profile godoc
// @Summary Профиль текущего пользователя
// @Tags auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.UserProfileResponse
// @Failure 401 {object} map[string]string
// @Router /api/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		helpers.Error(w, http.StatusNotFound, "user not found")
		return
	}

	helpers.JSON(w, http.StatusOK, models.UserProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

// ListUsers godoc
// @Summary Список пользователей (админ)
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Router /api/admin/users [get]
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	users, total, err := h.authService.GetUsersPaginated(r.Context(), page, pageSize)
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка получения списка пользователей", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]models.UserProfileResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, models.UserProfileResponse{
			ID:        u.ID,
			Username:  u.Username,
			FullName:  u.FullName,
			Email:     u.Email,
			Role:      u.Role,
			IsActive:  u.IsActive,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		})
	}

	helpers.JSON(w, http.StatusOK, map[string]interface{}{
		"users": resp,
		"total": total,
	})
}

// UpdateUser godoc
// @Summary Обновление пользователя (админ)
// @Tags users
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "ID пользователя"
// @Param input body models.UpdateUserRequest true "Изменяемые поля"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/admin/users/{id} [patch]
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	var input models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}

	if err := h.authService.UpdateUser(r.Context(), id, &input); err != nil {
		log.Error("Ошибка обновления пользователя", zap.Int("user_id", id), zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пользователь обновлён."})
}

// DeleteUser godoc
// @Summary Удаление пользователя (только суперадмин)
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID пользователя"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/admin/users/{id} [delete]
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	if err := h.authService.DeleteUser(r.Context(), id); err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка удаления пользователя", zap.Int("user_id", id), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пользователь удалён."})
}
