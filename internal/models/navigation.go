package models

import "time"

// Навигация сайта: шапка, сайдбар и футер. Всё сортируется по position.

type HeaderItem struct {
	ID        int             `json:"id"`
	Label     string          `json:"label"`
	Href      string          `json:"href"`
	Icon      string          `json:"icon"`
	Position  int             `json:"position"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	SubItems  []SubHeaderItem `json:"sub_items,omitempty"`
}

type SubHeaderItem struct {
	ID           int    `json:"id"`
	HeaderItemID int    `json:"header_item_id"`
	Label        string `json:"label"`
	Href         string `json:"href"`
	Position     int    `json:"position"`
}

type SidebarGroup struct {
	ID        int           `json:"id"`
	Title     string        `json:"title"`
	Position  int           `json:"position"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Items     []SidebarItem `json:"items,omitempty"`
}

type SidebarItem struct {
	ID         int             `json:"id"`
	GroupID    int             `json:"group_id"`
	Label      string          `json:"label"`
	Href       string          `json:"href"`
	Icon       string          `json:"icon"`
	Position   int             `json:"position"`
	IsActive   bool            `json:"is_active"`
	RoleAccess []SidebarAccess `json:"role_access,omitempty"`
}

// SidebarAccess — доступ к пункту сайдбара для конкретной роли.
type SidebarAccess struct {
	Role      string `json:"role"`
	HasAccess bool   `json:"has_access"`
}

type FooterItem struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	Href     string `json:"href"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}

// NavigationTree — публичное дерево навигации для фронта.
type NavigationTree struct {
	Header  []HeaderItem   `json:"header"`
	Sidebar []SidebarGroup `json:"sidebar"`
	Footer  []FooterItem   `json:"footer"`
}
