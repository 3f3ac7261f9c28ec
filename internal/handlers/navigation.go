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
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type NavigationHandler struct {
	svc *services.NavigationService
}

func NewNavigationHandler(svc *services.NavigationService) *NavigationHandler {
	return &NavigationHandler{svc: svc}
}

// Tree godoc
// @Summary Дерево навигации сайта
// @Description Шапка, сайдбар и футер. Сайдбар отфильтрован по роли (для анонима — как для user).
// @Tags navigation
// @Produce json
// @Success 200 {object} models.NavigationTree
// @Router /api/navigation [get]
func (h *NavigationHandler) Tree(w http.ResponseWriter, r *http.Request) {
	role, ok := middleware.RoleFromContext(r.Context())
	if !ok || role == "" {
		role = models.RoleUser
	}

	tree, err := h.svc.Tree(r.Context(), role)
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка сборки дерева навигации", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, tree)
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

// ----- Header -----

type headerItemRequest struct {
	Label    string `json:"label"`
	Href     string `json:"href"`
	Icon     string `json:"icon"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}

func (r headerItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Label, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Href, validation.Required),
	)
}

// ListHeader godoc
// @Summary Все пункты шапки, включая неактивные (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} models.HeaderItem
// @Router /api/admin/header [get]
func (h *NavigationHandler) ListHeader(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListHeaderItems(r.Context())
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка получения пунктов шапки", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, items)
}

// CreateHeader godoc
// @Summary Создание пункта шапки (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body headerItemRequest true "Пункт шапки"
// @Success 201 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Router /api/admin/header [post]
func (h *NavigationHandler) CreateHeader(w http.ResponseWriter, r *http.Request) {
	var req headerItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.svc.CreateHeaderItem(r.Context(), &models.HeaderItem{
		Label: req.Label, Href: req.Href, Icon: req.Icon,
		Position: req.Position, IsActive: req.IsActive,
	})
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка создания пункта шапки", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusCreated, map[string]int{"id": id})
}

// UpdateHeader godoc
// @Summary Обновление пункта шапки (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "ID пункта"
// @Param input body headerItemRequest true "Пункт шапки"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/admin/header/{id} [put]
func (h *NavigationHandler) UpdateHeader(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	var req headerItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.svc.UpdateHeaderItem(r.Context(), &models.HeaderItem{
		ID: id, Label: req.Label, Href: req.Href, Icon: req.Icon,
		Position: req.Position, IsActive: req.IsActive,
	})
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка обновления пункта шапки", zap.Int("id", id), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пункт шапки обновлён."})
}

// DeleteHeader godoc
// @Summary Удаление пункта шапки (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID пункта"
// @Success 200 {object} map[string]string
// @Router /api/admin/header/{id} [delete]
func (h *NavigationHandler) DeleteHeader(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}
	if err := h.svc.DeleteHeaderItem(r.Context(), id); err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка удаления пункта шапки", zap.Int("id", id), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пункт шапки удалён."})
}

type subHeaderRequest struct {
	HeaderItemID int    `json:"header_item_id"`
	Label        string `json:"label"`
	Href         string `json:"href"`
	Position     int    `json:"position"`
}

func (r subHeaderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.HeaderItemID, validation.Required),
		validation.Field(&r.Label, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Href, validation.Required),
	)
}

// CreateSubHeader godoc
// @Summary Создание подпункта шапки (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body subHeaderRequest true "Подпункт"
// @Success 201 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Router /api/admin/header/sub [post]
func (h *NavigationHandler) CreateSubHeader(w http.ResponseWriter, r *http.Request) {
	var req subHeaderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.svc.CreateSubHeaderItem(r.Context(), &models.SubHeaderItem{
		HeaderItemID: req.HeaderItemID, Label: req.Label, Href: req.Href, Position: req.Position,
	})
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка создания подпункта шапки", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusCreated, map[string]int{"id": id})
}

// DeleteSubHeader godoc
// @Summary Удаление подпункта шапки (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID подпункта"
// @Success 200 {object} map[string]string
// @Router /api/admin/header/sub/{id} [delete]
func (h *NavigationHandler) DeleteSubHeader(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}
	if err := h.svc.DeleteSubHeaderItem(r.Context(), id); err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка удаления подпункта шапки", zap.Int("id", id), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Подпункт удалён."})
}

// ----- Sidebar -----

type sidebarGroupRequest struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}

func (r sidebarGroupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 128)),
	)
}

// ListSidebar godoc
// @Summary Полное дерево сайдбара (админ)
// @Description ?role= показывает дерево глазами этой роли (строки доступа применяются).
// @Tags navigation
// @Security ApiKeyAuth
// @Produce json
// @Param role query string false "superadmin | admin | user"
// @Success 200 {array} models.SidebarGroup
// @Failure 400 {object} map[string]string
// @Router /api/admin/sidebar [get]
func (h *NavigationHandler) ListSidebar(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")

	groups, err := h.svc.ListSidebarTree(r.Context(), role)
	if err != nil {
		if errors.Is(err, services.ErrUnknownRole) {
			helpers.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.WithCtx(r.Context()).Error("Ошибка получения дерева сайдбара", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, groups)
}

// CreateSidebarGroup godoc
// @Summary Создание группы сайдбара (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body sidebarGroupRequest true "Группа"
// @Success 201 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Router /api/admin/sidebar/groups [post]
func (h *NavigationHandler) CreateSidebarGroup(w http.ResponseWriter, r *http.Request) {
	var req sidebarGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.svc.CreateSidebarGroup(r.Context(), &models.SidebarGroup{
		Title: req.Title, Position: req.Position, IsActive: req.IsActive,
	})
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка создания группы сайдбара", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusCreated, map[string]int{"id": id})
}

// UpdateSidebarGroup godoc
// @Summary Обновление группы сайдбара (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "ID группы"
// @Param input body sidebarGroupRequest true "Группа"
// @Success 200 {object} map[string]string
// @Router /api/admin/sidebar/groups/{id} [put]
func (h *NavigationHandler) UpdateSidebarGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	var req sidebarGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.svc.UpdateSidebarGroup(r.Context(), &models.SidebarGroup{
		ID: id, Title: req.Title, Position: req.Position, IsActive: req.IsActive,
	})
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка обновления группы сайдбара", zap.Int("id", id), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Группа обновлена."})
}

// DeleteSidebarGroup godoc
// @Summary Удаление группы сайдбара (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID группы"
// @Success 200 {object} map[string]string
// @Router /api/admin/sidebar/groups/{id} [delete]
func (h *NavigationHandler) DeleteSidebarGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}
	if err := h.svc.DeleteSidebarGroup(r.Context(), id); err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка удаления группы сайдбара", zap.Int("id", id), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Группа удалена."})
}

type sidebarItemRequest struct {
	GroupID    int                    `json:"group_id"`
	Label      string                 `json:"label"`
	Href       string                 `json:"href"`
	Icon       string                 `json:"icon"`
	Position   int                    `json:"position"`
	IsActive   bool                   `json:"is_active"`
	RoleAccess []models.SidebarAccess `json:"role_access"`
}

func (r sidebarItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.GroupID, validation.Required),
		validation.Field(&r.Label, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Href, validation.Required),
	)
}

func (r sidebarItemRequest) toModel(id int) *models.SidebarItem {
	return &models.SidebarItem{
		ID: id, GroupID: r.GroupID, Label: r.Label, Href: r.Href,
		Icon: r.Icon, Position: r.Position, IsActive: r.IsActive,
		RoleAccess: r.RoleAccess,
	}
}

// CreateSidebarItem godoc
// @Summary Создание пункта сайдбара (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body sidebarItemRequest true "Пункт с доступами по ролям"
// @Success 201 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Router /api/admin/sidebar/items [post]
func (h *NavigationHandler) CreateSidebarItem(w http.ResponseWriter, r *http.Request) {
	var req sidebarItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.svc.CreateSidebarItem(r.Context(), req.toModel(0))
	if err != nil {
		if errors.Is(err, services.ErrUnknownRole) {
			helpers.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.WithCtx(r.Context()).Error("Ошибка создания пункта сайдбара", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusCreated, map[string]int{"id": id})
}

// UpdateSidebarItem godoc
// @Summary Обновление пункта сайдбара (админ)
// @Description role_access в теле полностью заменяет прежние доступы.
// @Tags navigation
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "ID пункта"
// @Param input body sidebarItemRequest true "Пункт с доступами"
// @Success 200 {object} map[string]string
// @Router /api/admin/sidebar/items/{id} [put]
func (h *NavigationHandler) UpdateSidebarItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	var req sidebarItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.UpdateSidebarItem(r.Context(), req.toModel(id), true); err != nil {
		if errors.Is(err, services.ErrUnknownRole) {
			helpers.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.WithCtx(r.Context()).Error("Ошибка обновления пункта сайдбара", zap.Int("id", id), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пункт сайдбара обновлён."})
}

// DeleteSidebarItem godoc
// @Summary Удаление пункта сайдбара (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID пункта"
// @Success 200 {object} map[string]string
// @Router /api/admin/sidebar/items/{id} [delete]
func (h *NavigationHandler) DeleteSidebarItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}
	if err := h.svc.DeleteSidebarItem(r.Context(), id); err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка удаления пункта сайдбара", zap.Int("id", id), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пункт сайдбара удалён."})
}

// ----- Footer -----

type footerItemRequest struct {
	Label    string `json:"label"`
	Href     string `json:"href"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}

func (r footerItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Label, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Href, validation.Required),
	)
}

// ListFooter godoc
// @Summary Все пункты футера (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} models.FooterItem
// @Router /api/admin/footer [get]
func (h *NavigationHandler) ListFooter(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListFooterItems(r.Context())
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка получения пунктов футера", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, items)
}

// CreateFooter godoc
// @Summary Создание пункта футера (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body footerItemRequest true "Пункт футера"
// @Success 201 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Router /api/admin/footer [post]
func (h *NavigationHandler) CreateFooter(w http.ResponseWriter, r *http.Request) {
	var req footerItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.svc.CreateFooterItem(r.Context(), &models.FooterItem{
		Label: req.Label, Href: req.Href, Position: req.Position, IsActive: req.IsActive,
	})
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка создания пункта футера", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusCreated, map[string]int{"id": id})
}

// UpdateFooter godoc
// @Summary Обновление пункта футера (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "ID пункта"
// @Param input body footerItemRequest true "Пункт футера"
// @Success 200 {object} map[string]string
// @Router /api/admin/footer/{id} [put]
func (h *NavigationHandler) UpdateFooter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	var req footerItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.svc.UpdateFooterItem(r.Context(), &models.FooterItem{
		ID: id, Label: req.Label, Href: req.Href, Position: req.Position, IsActive: req.IsActive,
	})
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка обновления пункта футера", zap.Int("id", id), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пункт футера обновлён."})
}

// DeleteFooter godoc
// @Summary Удаление пункта футера (админ)
// @Tags navigation
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID пункта"
// @Success 200 {object} map[string]string
// @Router /api/admin/footer/{id} [delete]
func (h *NavigationHandler) DeleteFooter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}
	if err := h.svc.DeleteFooterItem(r.Context(), id); err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка удаления пункта футера", zap.Int("id", id), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пункт футера удалён."})
}
