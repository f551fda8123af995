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

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

const topUpColumns = `t.topup_id, t.partner_id, t.amount, t.whatsapp, t.status, t.rejection_reason, t.settled_by, t.settled_at, t.created_at, p.name, p.email, p.whatsapp`

func scanTopUp(row rowScanner) (*model.TopUp, error) {
	t := model.TopUp{Partner: &model.PartnerSummary{}}
	var settledAt sql.NullTime
	err := row.Scan(&t.TopUpID, &t.PartnerID, &t.Amount, &t.WhatsApp, &t.Status, &t.RejectionReason, &t.SettledBy, &settledAt, &t.CreatedAt,
		&t.Partner.Name, &t.Partner.Email, &t.Partner.WhatsApp)
	if err != nil {
		return nil, err
	}
	if settledAt.Valid {
		t.SettledAt = &settledAt.Time
	}
	return &t, nil
}

// GetTopUp retrieves a top-up request with its partner joined.
func (d Datasource) GetTopUp(ctx context.Context, id string) (*model.TopUp, error) {
	row := d.Conn.QueryRowContext(ctx,
		`SELECT `+topUpColumns+` FROM topups t JOIN partners p ON p.partner_id = t.partner_id WHERE t.topup_id = $1`, id)
	t, err := scanTopUp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(fmt.Sprintf("top-up with ID '%s' not found", id), err)
	}
	if err != nil {
		return nil, storeError(err, "get top-up", false)
	}
	return t, nil
}

// GetAllTopUps lists top-up requests with their partner joined, newest first by default.
func (d Datasource) GetAllTopUps(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.TopUp, error) {
	result, err := filter.BuildWithOptions(filters, filter.TableTopUps, 1, opts)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}

	query := fmt.Sprintf(`SELECT %s FROM topups t JOIN partners p ON p.partner_id = t.partner_id %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		topUpColumns, result.Where(), result.OrderBy, result.NextArgPos, result.NextArgPos+1)
	args := append(result.Args, limit, offset)

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(err, "list top-ups", false)
	}
	defer func() { _ = rows.Close() }()

	topUps := []model.TopUp{}
	for rows.Next() {
		t, err := scanTopUp(rows)
		if err != nil {
			return nil, storeError(err, "scan top-up", false)
		}
		topUps = append(topUps, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "list top-ups", false)
	}
	return topUps, nil
}

// ApproveTopUp settles a pending top-up in one transaction: the status moves
// to approved only while it is still pending, the partner balance is
// incremented in place and a credit row keyed by the top-up is written. If any
// step fails nothing is committed.
func (d Datasource) ApproveTopUp(ctx context.Context, s model.Settlement) (*model.TopUp, *model.Credit, error) {
	ctx, span := otel.Tracer("mitra.database").Start(ctx, "ApproveTopUp")
	defer span.End()
	span.SetAttributes(
		attribute.String("topup.id", s.TopUpID),
		attribute.String("partner.id", s.PartnerID),
		attribute.Int64("topup.amount", s.Amount),
	)

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return nil, nil, storeError(err, "begin approve top-up", true)
	}
	defer func() { _ = tx.Rollback() }()

	topUp := &model.TopUp{
		TopUpID:   s.TopUpID,
		PartnerID: s.PartnerID,
		Amount:    s.Amount,
		Status:    model.TopUpApproved,
		SettledBy: s.Actor,
	}
	var settledAt sql.NullTime
	err = tx.QueryRowContext(ctx, `
		UPDATE topups
		SET status = 'approved', settled_by = $4, settled_at = NOW()
		WHERE topup_id = $1 AND partner_id = $2 AND amount = $3 AND status = 'pending'
		RETURNING whatsapp, created_at, settled_at`,
		s.TopUpID, s.PartnerID, s.Amount, s.Actor,
	).Scan(&topUp.WhatsApp, &topUp.CreatedAt, &settledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, explainUnsettled(ctx, tx, s)
	}
	if err != nil {
		span.RecordError(err)
		return nil, nil, storeError(err, "mark top-up approved", true)
	}
	if settledAt.Valid {
		topUp.SettledAt = &settledAt.Time
	}

	var balanceAfter int64
	err = tx.QueryRowContext(ctx, `
		UPDATE partners
		SET balance = balance + $2, version = version + 1, updated_at = NOW()
		WHERE partner_id = $1
		RETURNING balance`,
		s.PartnerID, s.Amount,
	).Scan(&balanceAfter)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, notFound(fmt.Sprintf("partner with ID '%s' not found", s.PartnerID), err)
	}
	if err != nil {
		span.RecordError(err)
		return nil, nil, storeError(err, "credit partner balance", true)
	}

	credit := model.NewCredit(s.CreditID(), s.PartnerID, model.CreditSourceTopUp, s.Amount, balanceAfter, model.TopUpCreditReference(s.TopUpID), s.Actor)
	credit.TopUpID = s.TopUpID
	if err := insertCredit(ctx, tx, credit); err != nil {
		span.RecordError(err)
		return nil, nil, storeError(err, "record top-up credit", true)
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return nil, nil, apierror.NewAPIError(apierror.ErrTransient, "failed to commit top-up approval", errors.Wrap(err, "commit"))
	}

	span.AddEvent("top-up approved", trace.WithAttributes(attribute.Int64("partner.balance_after", balanceAfter)))
	return topUp, credit, nil
}

// explainUnsettled works out why the guarded update matched no row.
func explainUnsettled(ctx context.Context, tx *sql.Tx, s model.Settlement) error {
	var (
		partnerID string
		amount    int64
		status    model.TopUpStatus
	)
	err := tx.QueryRowContext(ctx, `SELECT partner_id, amount, status FROM topups WHERE topup_id = $1`, s.TopUpID).
		Scan(&partnerID, &amount, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("top-up '%s' does not exist", s.TopUpID), nil)
	}
	if err != nil {
		return storeError(err, "load top-up", false)
	}

	switch {
	case status != model.TopUpPending:
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("top-up '%s' is already %s", s.TopUpID, status), nil)
	case partnerID != s.PartnerID:
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM partners WHERE partner_id = $1)`, s.PartnerID).Scan(&exists)
		if err != nil {
			return storeError(err, "load partner", false)
		}
		if !exists {
			return notFound(fmt.Sprintf("partner with ID '%s' not found", s.PartnerID), nil)
		}
		return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("top-up '%s' does not belong to partner '%s'", s.TopUpID, s.PartnerID), nil)
	case amount != s.Amount:
		return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("amount %d does not match top-up amount %d", s.Amount, amount), nil)
	default:
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("top-up '%s' changed while settling", s.TopUpID), nil)
	}
}

// RejectTopUp marks a pending top-up rejected. There is no balance effect.
func (d Datasource) RejectTopUp(ctx context.Context, id, reason, actor string) (*model.TopUp, error) {
	ctx, span := otel.Tracer("mitra.database").Start(ctx, "RejectTopUp")
	defer span.End()
	span.SetAttributes(attribute.String("topup.id", id))

	topUp := &model.TopUp{
		TopUpID:         id,
		Status:          model.TopUpRejected,
		RejectionReason: reason,
		SettledBy:       actor,
	}
	var settledAt sql.NullTime
	err := d.Conn.QueryRowContext(ctx, `
		UPDATE topups
		SET status = 'rejected', rejection_reason = $2, settled_by = $3, settled_at = NOW()
		WHERE topup_id = $1 AND status = 'pending'
		RETURNING partner_id, amount, whatsapp, created_at, settled_at`,
		id, reason, actor,
	).Scan(&topUp.PartnerID, &topUp.Amount, &topUp.WhatsApp, &topUp.CreatedAt, &settledAt)
	if err == nil {
		if settledAt.Valid {
			topUp.SettledAt = &settledAt.Time
		}
		return topUp, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		return nil, storeError(err, "mark top-up rejected", true)
	}

	var status model.TopUpStatus
	err = d.Conn.QueryRowContext(ctx, `SELECT status FROM topups WHERE topup_id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("top-up '%s' does not exist", id), nil)
	}
	if err != nil {
		return nil, storeError(err, "load top-up", false)
	}
	return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("top-up '%s' is already %s", id, status), nil)
}
