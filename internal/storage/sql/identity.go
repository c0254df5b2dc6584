package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

// ========== Identity Repository ==========

// GetIdentity 根据ID获取身份
func (s *Store) GetIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	query := s.rebind(`
		SELECT id, role, organization_id, email, first_name, last_name,
			is_staff, is_superuser, is_employee
		FROM identities
		WHERE id = ?
	`)

	var identity domain.Identity
	var role, email, firstName, lastName sql.NullString
	var flags domain.RoleFlags
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&identity.ID,
		&role,
		&identity.OrganizationID,
		&email,
		&firstName,
		&lastName,
		&flags.Staff,
		&flags.Superuser,
		&flags.Employee,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("query identity: %w", err)
	}

	identity.Role = flags.Resolve(domain.Role(role.String))
	identity.Email = email.String
	identity.FirstName = firstName.String
	identity.LastName = lastName.String
	return &identity, nil
}

// ========== Portal Repository ==========

// GetPortal 根据ID获取门户
func (s *Store) GetPortal(ctx context.Context, id int64) (*domain.Portal, error) {
	query := s.rebind(`SELECT id, name, base_url FROM portals WHERE id = ?`)

	var portal domain.Portal
	var baseURL sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(&portal.ID, &portal.Name, &baseURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPortalNotFound
		}
		return nil, fmt.Errorf("query portal: %w", err)
	}
	portal.BaseURL = baseURL.String
	return &portal, nil
}
