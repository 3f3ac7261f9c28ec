package services

import (
	"context"
	"errors"

	"cmspanel/internal/logger"
	"cmspanel/internal/models"

	"go.uber.org/zap"
)

var ErrUnknownRole = errors.New("неизвестная роль")

// NavigationStore — контракт хранилища навигации.
type NavigationStore interface {
	CreateHeaderItem(ctx context.Context, h *models.HeaderItem) (int, error)
	UpdateHeaderItem(ctx context.Context, h *models.HeaderItem) error
	DeleteHeaderItem(ctx context.Context, id int) error
	ListHeaderItems(ctx context.Context, onlyActive bool) ([]models.HeaderItem, error)
	CreateSubHeaderItem(ctx context.Context, s *models.SubHeaderItem) (int, error)
	DeleteSubHeaderItem(ctx context.Context, id int) error
	CreateSidebarGroup(ctx context.Context, g *models.SidebarGroup) (int, error)
	UpdateSidebarGroup(ctx context.Context, g *models.SidebarGroup) error
	DeleteSidebarGroup(ctx context.Context, id int) error
	CreateSidebarItem(ctx context.Context, it *models.SidebarItem) (int, error)
	UpdateSidebarItem(ctx context.Context, it *models.SidebarItem, replaceAccess bool) error
	DeleteSidebarItem(ctx context.Context, id int) error
	ListSidebarTree(ctx context.Context, role string, onlyActive bool) ([]models.SidebarGroup, error)
	CreateFooterItem(ctx context.Context, f *models.FooterItem) (int, error)
	UpdateFooterItem(ctx context.Context, f *models.FooterItem) error
	DeleteFooterItem(ctx context.Context, id int) error
	ListFooterItems(ctx context.Context, onlyActive bool) ([]models.FooterItem, error)
}

type NavigationService struct {
	repo NavigationStore
}

func NewNavigationService(repo NavigationStore) *NavigationService {
	return &NavigationService{repo: repo}
}

// Tree собирает публичное дерево навигации: активные пункты,
// сайдбар отфильтрован по роли запрашивающего.
func (s *NavigationService) Tree(ctx context.Context, role string) (*models.NavigationTree, error) {
	header, err := s.repo.ListHeaderItems(ctx, true)
	if err != nil {
		return nil, err
	}
	sidebar, err := s.repo.ListSidebarTree(ctx, role, true)
	if err != nil {
		return nil, err
	}
	footer, err := s.repo.ListFooterItems(ctx, true)
	if err != nil {
		return nil, err
	}
	return &models.NavigationTree{Header: header, Sidebar: sidebar, Footer: footer}, nil
}

// ----- Header -----

func (s *NavigationService) CreateHeaderItem(ctx context.Context, h *models.HeaderItem) (int, error) {
	logger.Log.Info("Создание пункта шапки", zap.String("label", h.Label))
	return s.repo.CreateHeaderItem(ctx, h)
}

func (s *NavigationService) UpdateHeaderItem(ctx context.Context, h *models.HeaderItem) error {
	logger.Log.Info("Обновление пункта шапки", zap.Int("id", h.ID))
	return s.repo.UpdateHeaderItem(ctx, h)
}

// DeleteHeaderItem удаляет пункт; подпункты уходят каскадом (FK).
func (s *NavigationService) DeleteHeaderItem(ctx context.Context, id int) error {
	logger.Log.Info("Удаление пункта шапки", zap.Int("id", id))
	return s.repo.DeleteHeaderItem(ctx, id)
}

func (s *NavigationService) ListHeaderItems(ctx context.Context) ([]models.HeaderItem, error) {
	return s.repo.ListHeaderItems(ctx, false)
}

func (s *NavigationService) CreateSubHeaderItem(ctx context.Context, sub *models.SubHeaderItem) (int, error) {
	logger.Log.Info("Создание подпункта шапки", zap.Int("header_item_id", sub.HeaderItemID), zap.String("label", sub.Label))
	return s.repo.CreateSubHeaderItem(ctx, sub)
}

func (s *NavigationService) DeleteSubHeaderItem(ctx context.Context, id int) error {
	return s.repo.DeleteSubHeaderItem(ctx, id)
}

// ----- Sidebar -----

func (s *NavigationService) CreateSidebarGroup(ctx context.Context, g *models.SidebarGroup) (int, error) {
	logger.Log.Info("Создание группы сайдбара", zap.String("title", g.Title))
	return s.repo.CreateSidebarGroup(ctx, g)
}

func (s *NavigationService) UpdateSidebarGroup(ctx context.Context, g *models.SidebarGroup) error {
	return s.repo.UpdateSidebarGroup(ctx, g)
}

func (s *NavigationService) DeleteSidebarGroup(ctx context.Context, id int) error {
	logger.Log.Info("Удаление группы сайдбара", zap.Int("id", id))
	return s.repo.DeleteSidebarGroup(ctx, id)
}

func (s *NavigationService) CreateSidebarItem(ctx context.Context, it *models.SidebarItem) (int, error) {
	if err := validateRoleAccess(it.RoleAccess); err != nil {
		return 0, err
	}
	logger.Log.Info("Создание пункта сайдбара", zap.String("label", it.Label), zap.Int("group_id", it.GroupID))
	return s.repo.CreateSidebarItem(ctx, it)
}

func (s *NavigationService) UpdateSidebarItem(ctx context.Context, it *models.SidebarItem, replaceAccess bool) error {
	if replaceAccess {
		if err := validateRoleAccess(it.RoleAccess); err != nil {
			return err
		}
	}
	logger.Log.Info("Обновление пункта сайдбара", zap.Int("id", it.ID))
	return s.repo.UpdateSidebarItem(ctx, it, replaceAccess)
}

func (s *NavigationService) DeleteSidebarItem(ctx context.Context, id int) error {
	return s.repo.DeleteSidebarItem(ctx, id)
}

// ListSidebarTree отдаёт дерево целиком, включая неактивное.
// Непустая роль применяет строки доступа, как их увидит эта роль.
func (s *NavigationService) ListSidebarTree(ctx context.Context, role string) ([]models.SidebarGroup, error) {
	if role != "" && !validRole(role) {
		return nil, ErrUnknownRole
	}
	return s.repo.ListSidebarTree(ctx, role, false)
}

func validRole(role string) bool {
	switch role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleUser:
		return true
	}
	return false
}

func validateRoleAccess(access []models.SidebarAccess) error {
	for _, a := range access {
		if !validRole(a.Role) {
			return ErrUnknownRole
		}
	}
	return nil
}

// ----- Footer -----

func (s *NavigationService) CreateFooterItem(ctx context.Context, f *models.FooterItem) (int, error) {
	logger.Log.Info("Создание пункта футера", zap.String("label", f.Label))
	return s.repo.CreateFooterItem(ctx, f)
}

func (s *NavigationService) UpdateFooterItem(ctx context.Context, f *models.FooterItem) error {
	return s.repo.UpdateFooterItem(ctx, f)
}

func (s *NavigationService) DeleteFooterItem(ctx context.Context, id int) error {
	return s.repo.DeleteFooterItem(ctx, id)
}

func (s *NavigationService) ListFooterItems(ctx context.Context) ([]models.FooterItem, error) {
	return s.repo.ListFooterItems(ctx, false)
}
