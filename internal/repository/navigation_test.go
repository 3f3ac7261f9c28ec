package repository

import (
	"testing"

	"cmspanel/internal/models"
)

func TestSidebarItemVisible(t *testing.T) {
	open := models.SidebarItem{Label: "Открытый"}
	if !sidebarItemVisible(open, models.RoleUser) {
		t.Fatal("пункт без строк доступа должен быть виден всем")
	}

	restricted := models.SidebarItem{
		Label: "Только админ",
		RoleAccess: []models.SidebarAccess{
			{Role: models.RoleAdmin, HasAccess: true},
			{Role: models.RoleUser, HasAccess: false},
		},
	}
	if !sidebarItemVisible(restricted, models.RoleAdmin) {
		t.Fatal("админ должен видеть пункт с has_access=true")
	}
	if sidebarItemVisible(restricted, models.RoleUser) {
		t.Fatal("user не должен видеть пункт с has_access=false")
	}
	if sidebarItemVisible(restricted, models.RoleSuperAdmin) {
		t.Fatal("роль без строки доступа при непустом списке не видит пункт")
	}
}

func TestFilterSidebarByRole(t *testing.T) {
	groups := []models.SidebarGroup{
		{
			ID:    1,
			Title: "Контент",
			Items: []models.SidebarItem{
				{ID: 1, Label: "Статьи"},
				{ID: 2, Label: "Пользователи", RoleAccess: []models.SidebarAccess{
					{Role: models.RoleAdmin, HasAccess: true},
				}},
			},
		},
	}

	forUser := filterSidebarByRole(groups, models.RoleUser)
	if len(forUser) != 1 || len(forUser[0].Items) != 1 {
		t.Fatalf("для user должен остаться один пункт, получено: %+v", forUser)
	}
	if forUser[0].Items[0].ID != 1 {
		t.Fatal("остался не тот пункт")
	}

	forAdmin := filterSidebarByRole(groups, models.RoleAdmin)
	if len(forAdmin[0].Items) != 2 {
		t.Fatalf("админ должен видеть оба пункта, получено: %d", len(forAdmin[0].Items))
	}

	// Исходный срез не мутируется
	if len(groups[0].Items) != 2 {
		t.Fatal("фильтрация не должна менять исходные данные")
	}
}
