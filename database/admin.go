package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/model"
)

func (d Datasource) CreateAdmin(ctx context.Context, admin model.AdminCredential) (*model.AdminCredential, error) {
	now := time.Now().UTC()
	admin.CreatedAt, admin.UpdatedAt = now, now
	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO admins (username, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		admin.Username, admin.PasswordHash, admin.CreatedAt, admin.UpdatedAt)
	if err != nil {
		mapped := storeError(err, "create admin", true)
		if apierror.Is(mapped, apierror.ErrConflict) {
			return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("admin '%s' already exists", admin.Username), errors.Wrap(err, "insert admin"))
		}
		return nil, mapped
	}
	return &admin, nil
}

func (d Datasource) GetAdminByUsername(ctx context.Context, username string) (*model.AdminCredential, error) {
	admin := model.AdminCredential{}
	err := d.Conn.QueryRowContext(ctx,
		`SELECT username, password_hash, created_at, updated_at FROM admins WHERE username = $1`, username).
		Scan(&admin.Username, &admin.PasswordHash, &admin.CreatedAt, &admin.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(fmt.Sprintf("admin '%s' not found", username), nil)
	}
	if err != nil {
		return nil, storeError(err, "get admin", false)
	}
	return &admin, nil
}

func (d Datasource) UpdateAdminPassword(ctx context.Context, username, passwordHash string) error {
	res, err := d.Conn.ExecContext(ctx,
		`UPDATE admins SET password_hash = $2, updated_at = NOW() WHERE username = $1`, username, passwordHash)
	if err != nil {
		return storeError(err, "update admin password", true)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeError(err, "update admin password", true)
	}
	if affected == 0 {
		return notFound(fmt.Sprintf("admin '%s' not found", username), nil)
	}
	return nil
}

func (d Datasource) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	if err := d.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, storeError(err, "count admins", false)
	}
	return count, nil
}
