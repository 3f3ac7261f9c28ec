package repository

import (
	"context"
	"database/sql"

	"cmspanel/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type NavigationRepo struct {
	db *pgxpool.Pool
}

func NewNavigationRepo(db *pgxpool.Pool) *NavigationRepo { return &NavigationRepo{db: db} }

// ----- Header -----

func (r *NavigationRepo) CreateHeaderItem(ctx context.Context, h *models.HeaderItem) (int, error) {
	var id int
	err := r.db.QueryRow(ctx,
		`INSERT INTO header_items (label, href, icon, position, is_active) VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		h.Label, h.Href, h.Icon, h.Position, h.IsActive,
	).Scan(&id)
	return id, err
}

func (r *NavigationRepo) UpdateHeaderItem(ctx context.Context, h *models.HeaderItem) error {
	_, err := r.db.Exec(ctx,
		`UPDATE header_items SET label=$1, href=$2, icon=$3, position=$4, is_active=$5, updated_at=now() WHERE id=$6`,
		h.Label, h.Href, h.Icon, h.Position, h.IsActive, h.ID,
	)
	return err
}

func (r *NavigationRepo) DeleteHeaderItem(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM header_items WHERE id=$1`, id)
	return err
}

// ListHeaderItems возвращает пункты шапки с вложенными подпунктами.
// Один LEFT JOIN вместо N+1 запросов; подпункты nullable.
func (r *NavigationRepo) ListHeaderItems(ctx context.Context, onlyActive bool) ([]models.HeaderItem, error) {
	q := `
SELECT
  h.id, h.label, h.href, h.icon, h.position, h.is_active, h.created_at, h.updated_at,
  s.id, s.header_item_id, s.label, s.href, s.position
FROM header_items h
LEFT JOIN sub_header_items s ON s.header_item_id = h.id
`
	if onlyActive {
		q += " WHERE h.is_active = true"
	}
	q += " ORDER BY h.position, h.id, s.position, s.id"

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HeaderItem
	var cur *models.HeaderItem

	for rows.Next() {
		var h models.HeaderItem
		var (
			subID    sql.NullInt32
			subHdrID sql.NullInt32
			subLabel sql.NullString
			subHref  sql.NullString
			subPos   sql.NullInt32
		)

		if err := rows.Scan(
			&h.ID, &h.Label, &h.Href, &h.Icon, &h.Position, &h.IsActive, &h.CreatedAt, &h.UpdatedAt,
			&subID, &subHdrID, &subLabel, &subHref, &subPos,
		); err != nil {
			return nil, err
		}

		if cur == nil || cur.ID != h.ID {
			out = append(out, h)
			cur = &out[len(out)-1]
		}

		if subID.Valid {
			cur.SubItems = append(cur.SubItems, models.SubHeaderItem{
				ID:           int(subID.Int32),
				HeaderItemID: int(subHdrID.Int32),
				Label:        subLabel.String,
				Href:         subHref.String,
				Position:     int(subPos.Int32),
			})
		}
	}
	return out, rows.Err()
}

func (r *NavigationRepo) CreateSubHeaderItem(ctx context.Context, s *models.SubHeaderItem) (int, error) {
	var id int
	err := r.db.QueryRow(ctx,
		`INSERT INTO sub_header_items (header_item_id, label, href, position) VALUES ($1,$2,$3,$4) RETURNING id`,
		s.HeaderItemID, s.Label, s.Href, s.Position,
	).Scan(&id)
	return id, err
}

func (r *NavigationRepo) DeleteSubHeaderItem(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sub_header_items WHERE id=$1`, id)
	return err
}

// ----- Sidebar -----

func (r *NavigationRepo) CreateSidebarGroup(ctx context.Context, g *models.SidebarGroup) (int, error) {
	var id int
	err := r.db.QueryRow(ctx,
		`INSERT INTO sidebar_groups (title, position, is_active) VALUES ($1,$2,$3) RETURNING id`,
		g.Title, g.Position, g.IsActive,
	).Scan(&id)
	return id, err
}

func (r *NavigationRepo) UpdateSidebarGroup(ctx context.Context, g *models.SidebarGroup) error {
	_, err := r.db.Exec(ctx,
		`UPDATE sidebar_groups SET title=$1, position=$2, is_active=$3, updated_at=now() WHERE id=$4`,
		g.Title, g.Position, g.IsActive, g.ID,
	)
	return err
}

func (r *NavigationRepo) DeleteSidebarGroup(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sidebar_groups WHERE id=$1`, id)
	return err
}

// CreateSidebarItem создаёт пункт и его role-доступы одной транзакцией.
func (r *NavigationRepo) CreateSidebarItem(ctx context.Context, it *models.SidebarItem) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int
	err = tx.QueryRow(ctx,
		`INSERT INTO sidebar_items (group_id, label, href, icon, position, is_active)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		it.GroupID, it.Label, it.Href, it.Icon, it.Position, it.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	for _, a := range it.RoleAccess {
		if _, err := tx.Exec(ctx,
			`INSERT INTO sidebar_item_access (sidebar_item_id, role, has_access) VALUES ($1,$2,$3)`,
			id, a.Role, a.HasAccess,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateSidebarItem обновляет пункт; если передан roleAccess — полностью заменяет доступы.
func (r *NavigationRepo) UpdateSidebarItem(ctx context.Context, it *models.SidebarItem, replaceAccess bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE sidebar_items SET group_id=$1, label=$2, href=$3, icon=$4, position=$5, is_active=$6, updated_at=now() WHERE id=$7`,
		it.GroupID, it.Label, it.Href, it.Icon, it.Position, it.IsActive, it.ID,
	)
	if err != nil {
		return err
	}

	if replaceAccess {
		if _, err := tx.Exec(ctx, `DELETE FROM sidebar_item_access WHERE sidebar_item_id=$1`, it.ID); err != nil {
			return err
		}
		for _, a := range it.RoleAccess {
			if _, err := tx.Exec(ctx,
				`INSERT INTO sidebar_item_access (sidebar_item_id, role, has_access) VALUES ($1,$2,$3)`,
				it.ID, a.Role, a.HasAccess,
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func (r *NavigationRepo) DeleteSidebarItem(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sidebar_items WHERE id=$1`, id)
	return err
}

// ListSidebarTree возвращает группы с пунктами и доступами.
// role != "" — оставляем только пункты, к которым у роли есть доступ
// (пункты без строк доступа считаются открытыми для всех).
func (r *NavigationRepo) ListSidebarTree(ctx context.Context, role string, onlyActive bool) ([]models.SidebarGroup, error) {
	q := `
SELECT
  g.id, g.title, g.position, g.is_active, g.created_at, g.updated_at,
  i.id, i.group_id, i.label, i.href, i.icon, i.position, i.is_active,
  a.role, a.has_access
FROM sidebar_groups g
LEFT JOIN sidebar_items i ON i.group_id = g.id
LEFT JOIN sidebar_item_access a ON a.sidebar_item_id = i.id
`
	if onlyActive {
		q += " WHERE g.is_active = true AND (i.id IS NULL OR i.is_active = true)"
	}
	q += " ORDER BY g.position, g.id, i.position, i.id, a.role"

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SidebarGroup
	var curGroup *models.SidebarGroup
	var curItem *models.SidebarItem

	for rows.Next() {
		var g models.SidebarGroup
		var (
			itID     sql.NullInt32
			itGroup  sql.NullInt32
			itLabel  sql.NullString
			itHref   sql.NullString
			itIcon   sql.NullString
			itPos    sql.NullInt32
			itActive sql.NullBool
			accRole  sql.NullString
			accHas   sql.NullBool
		)

		if err := rows.Scan(
			&g.ID, &g.Title, &g.Position, &g.IsActive, &g.CreatedAt, &g.UpdatedAt,
			&itID, &itGroup, &itLabel, &itHref, &itIcon, &itPos, &itActive,
			&accRole, &accHas,
		); err != nil {
			return nil, err
		}

		if curGroup == nil || curGroup.ID != g.ID {
			out = append(out, g)
			curGroup = &out[len(out)-1]
			curItem = nil
		}

		if itID.Valid {
			if curItem == nil || curItem.ID != int(itID.Int32) {
				curGroup.Items = append(curGroup.Items, models.SidebarItem{
					ID:       int(itID.Int32),
					GroupID:  int(itGroup.Int32),
					Label:    itLabel.String,
					Href:     itHref.String,
					Icon:     itIcon.String,
					Position: int(itPos.Int32),
					IsActive: itActive.Bool,
				})
				curItem = &curGroup.Items[len(curGroup.Items)-1]
			}
			if accRole.Valid {
				curItem.RoleAccess = append(curItem.RoleAccess, models.SidebarAccess{
					Role:      accRole.String,
					HasAccess: accHas.Bool,
				})
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if role != "" {
		out = filterSidebarByRole(out, role)
	}
	return out, nil
}

func filterSidebarByRole(groups []models.SidebarGroup, role string) []models.SidebarGroup {
	filtered := make([]models.SidebarGroup, 0, len(groups))
	for _, g := range groups {
		items := make([]models.SidebarItem, 0, len(g.Items))
		for _, it := range g.Items {
			if sidebarItemVisible(it, role) {
				items = append(items, it)
			}
		}
		g.Items = items
		filtered = append(filtered, g)
	}
	return filtered
}

func sidebarItemVisible(it models.SidebarItem, role string) bool {
	if len(it.RoleAccess) == 0 {
		return true
	}
	for _, a := range it.RoleAccess {
		if a.Role == role {
			return a.HasAccess
		}
	}
	return false
}

// ----- Footer -----

func (r *NavigationRepo) CreateFooterItem(ctx context.Context, f *models.FooterItem) (int, error) {
	var id int
	err := r.db.QueryRow(ctx,
		`INSERT INTO footer_items (label, href, position, is_active) VALUES ($1,$2,$3,$4) RETURNING id`,
		f.Label, f.Href, f.Position, f.IsActive,
	).Scan(&id)
	return id, err
}

func (r *NavigationRepo) UpdateFooterItem(ctx context.Context, f *models.FooterItem) error {
	_, err := r.db.Exec(ctx,
		`UPDATE footer_items SET label=$1, href=$2, position=$3, is_active=$4, updated_at=now() WHERE id=$5`,
		f.Label, f.Href, f.Position, f.IsActive, f.ID,
	)
	return err
}

func (r *NavigationRepo) DeleteFooterItem(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM footer_items WHERE id=$1`, id)
	return err
}

func (r *NavigationRepo) ListFooterItems(ctx context.Context, onlyActive bool) ([]models.FooterItem, error) {
	q := `SELECT id, label, href, position, is_active FROM footer_items`
	if onlyActive {
		q += ` WHERE is_active = true`
	}
	q += ` ORDER BY position, id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FooterItem
	for rows.Next() {
		var f models.FooterItem
		if err := rows.Scan(&f.ID, &f.Label, &f.Href, &f.Position, &f.IsActive); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
