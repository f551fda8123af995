/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

const partnerColumns = `p.partner_id, p.name, p.email, p.whatsapp, p.verification_status, p.balance, p.version, p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPartner(row rowScanner) (*model.Partner, error) {
	p := model.Partner{}
	err := row.Scan(&p.PartnerID, &p.Name, &p.Email, &p.WhatsApp, &p.VerificationStatus, &p.Balance, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPartnerByID retrieves a partner by its ID.
func (d Datasource) GetPartnerByID(ctx context.Context, id string) (*model.Partner, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+partnerColumns+` FROM partners p WHERE p.partner_id = $1`, id)
	p, err := scanPartner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(fmt.Sprintf("partner with ID '%s' not found", id), err)
	}
	if err != nil {
		return nil, storeError(err, "get partner", false)
	}
	return p, nil
}

// GetAllPartners lists partners matching the filters. The default order is newest first.
func (d Datasource) GetAllPartners(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.Partner, error) {
	result, err := filter.BuildWithOptions(filters, filter.TablePartners, 1, opts)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}

	query := fmt.Sprintf(`SELECT %s FROM partners p %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		partnerColumns, result.Where(), result.OrderBy, result.NextArgPos, result.NextArgPos+1)
	args := append(result.Args, limit, offset)

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(err, "list partners", false)
	}
	defer func() { _ = rows.Close() }()

	partners := []model.Partner{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, storeError(err, "scan partner", false)
		}
		partners = append(partners, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "list partners", false)
	}
	return partners, nil
}

// SearchPartnersByName returns partners whose name contains any of the terms.
func (d Datasource) SearchPartnersByName(ctx context.Context, terms []string, limit int) ([]model.Partner, error) {
	patterns := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		patterns = append(patterns, "%"+escapeLike(term)+"%")
	}
	if len(patterns) == 0 {
		return []model.Partner{}, nil
	}

	rows, err := d.Conn.QueryContext(ctx,
		`SELECT `+partnerColumns+` FROM partners p WHERE p.name ILIKE ANY($1) ORDER BY p.name ASC LIMIT $2`,
		pq.Array(patterns), limit)
	if err != nil {
		return nil, storeError(err, "search partners", false)
	}
	defer func() { _ = rows.Close() }()

	partners := []model.Partner{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, storeError(err, "scan partner", false)
		}
		partners = append(partners, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "search partners", false)
	}
	return partners, nil
}

// VerifyPartner flips an unverified partner to verified. It fails with a
// conflict when the partner is already verified.
func (d Datasource) VerifyPartner(ctx context.Context, id string) (*model.Partner, error) {
	ctx, span := otel.Tracer("mitra.database").Start(ctx, "VerifyPartner")
	defer span.End()
	span.SetAttributes(attribute.String("partner.id", id))

	row := d.Conn.QueryRowContext(ctx, `
		UPDATE partners p
		SET verification_status = 'verified', updated_at = NOW()
		WHERE p.partner_id = $1 AND p.verification_status = 'unverified'
		RETURNING `+partnerColumns, id)
	p, err := scanPartner(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		return nil, storeError(err, "verify partner", true)
	}

	existing, err := d.GetPartnerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, apierror.NewAPIError(apierror.ErrConflict,
		fmt.Sprintf("partner '%s' is already %s", id, existing.VerificationStatus), nil)
}

// DeletePartner removes a partner and everything that cascades from it. A
// partner with pending top-ups cannot be deleted.
func (d Datasource) DeletePartner(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("mitra.database").Start(ctx, "DeletePartner")
	defer span.End()
	span.SetAttributes(attribute.String("partner.id", id))

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return storeError(err, "begin delete partner", true)
	}
	defer func() { _ = tx.Rollback() }()

	var pending bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM topups WHERE partner_id = $1 AND status = 'pending')`, id).Scan(&pending)
	if err != nil {
		return storeError(err, "check pending top-ups", false)
	}
	if pending {
		return apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("partner '%s' has pending top-ups", id), nil)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM partners WHERE partner_id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return storeError(err, "delete partner", true)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeError(err, "delete partner", true)
	}
	if affected == 0 {
		return notFound(fmt.Sprintf("partner with ID '%s' not found", id), nil)
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrTransient, "failed to commit partner deletion", errors.Wrap(err, "commit"))
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
