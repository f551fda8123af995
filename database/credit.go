package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

const creditColumns = `cr.credit_id, cr.partner_id, cr.topup_id, cr.source, cr.amount, cr.reference, cr.balance_before, cr.balance_after, cr.created_by, cr.created_at`

func insertCredit(ctx context.Context, tx *sql.Tx, c *model.Credit) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO credits (credit_id, partner_id, topup_id, source, amount, reference, balance_before, balance_after, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.CreditID, c.PartnerID, sql.NullString{String: c.TopUpID, Valid: c.TopUpID != ""}, c.Source, c.Amount, c.Reference,
		c.BalanceBefore, c.BalanceAfter, c.CreatedBy, c.CreatedAt,
	)
	return err
}

// CreditPartner increments a partner balance outside of any top-up. The
// reference is unique across all credits, so replaying a credit fails with a
// conflict and the balance update is rolled back with it.
func (d Datasource) CreditPartner(ctx context.Context, m model.ManualCredit) (*model.Credit, error) {
	ctx, span := otel.Tracer("mitra.database").Start(ctx, "CreditPartner")
	defer span.End()
	span.SetAttributes(
		attribute.String("partner.id", m.PartnerID),
		attribute.Int64("credit.amount", m.Amount),
		attribute.String("credit.reference", m.Reference),
	)

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(err, "begin manual credit", true)
	}
	defer func() { _ = tx.Rollback() }()

	var balanceAfter int64
	err = tx.QueryRowContext(ctx, `
		UPDATE partners
		SET balance = balance + $2, version = version + 1, updated_at = NOW()
		WHERE partner_id = $1
		RETURNING balance`,
		m.PartnerID, m.Amount,
	).Scan(&balanceAfter)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(fmt.Sprintf("partner with ID '%s' not found", m.PartnerID), err)
	}
	if err != nil {
		span.RecordError(err)
		return nil, storeError(err, "credit partner balance", true)
	}

	credit := model.NewCredit(model.GenerateUUIDWithSuffix("cr"), m.PartnerID, model.CreditSourceManual, m.Amount, balanceAfter, m.Reference, m.Actor)
	if err := insertCredit(ctx, tx, credit); err != nil {
		span.RecordError(err)
		mapped := storeError(err, "record manual credit", true)
		if apierror.Is(mapped, apierror.ErrConflict) {
			return nil, apierror.NewAPIError(apierror.ErrConflict,
				fmt.Sprintf("credit with reference '%s' already exists", m.Reference), errors.Wrap(err, "insert credit"))
		}
		return nil, mapped
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrTransient, "failed to commit manual credit", errors.Wrap(err, "commit"))
	}
	return credit, nil
}

// GetCredits lists credits matching the filters, newest first by default.
func (d Datasource) GetCredits(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.Credit, error) {
	result, err := filter.BuildWithOptions(filters, filter.TableCredits, 1, opts)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}

	query := fmt.Sprintf(`SELECT %s FROM credits cr %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		creditColumns, result.Where(), result.OrderBy, result.NextArgPos, result.NextArgPos+1)
	args := append(result.Args, limit, offset)

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(err, "list credits", false)
	}
	defer func() { _ = rows.Close() }()

	credits := []model.Credit{}
	for rows.Next() {
		c := model.Credit{}
		var topUpID sql.NullString
		err := rows.Scan(&c.CreditID, &c.PartnerID, &topUpID, &c.Source, &c.Amount, &c.Reference,
			&c.BalanceBefore, &c.BalanceAfter, &c.CreatedBy, &c.CreatedAt)
		if err != nil {
			return nil, storeError(err, "scan credit", false)
		}
		c.TopUpID = topUpID.String
		credits = append(credits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "list credits", false)
	}
	return credits, nil
}
