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

package mitra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mitrahub/mitra/internal/apierror"
	redlock "github.com/mitrahub/mitra/internal/lock"
	"github.com/mitrahub/mitra/model"
)

const (
	settlementLockTTL  = 30 * time.Second
	settlementLockWait = 5 * time.Second
)

// acquireLock takes the redis lease on key, waiting briefly for a concurrent
// holder. Failing to get it is transient: the caller may retry.
func (m *Mitra) acquireLock(ctx context.Context, key string) (*redlock.Locker, error) {
	locker := redlock.NewLocker(m.redis, key, model.GenerateUUIDWithSuffix("loc"))
	if err := locker.WaitLock(ctx, settlementLockTTL, settlementLockWait); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransient, fmt.Sprintf("%s is being settled by another request, try again", key), err)
	}
	return locker, nil
}

func releaseLock(ctx context.Context, locker *redlock.Locker) {
	// the settlement may have used up ctx, release on a fresh one
	unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := locker.Unlock(unlockCtx); err != nil {
		logrus.Error("lock error", err)
	}
}

// ApproveTopUp settles a pending top-up: the request becomes approved and the
// partner balance grows by amount, exactly once. partnerID and amount must match
// what the partner submitted.
func (m *Mitra) ApproveTopUp(ctx context.Context, topUpID, partnerID string, amount int64, actor string) (*model.TopUp, error) {
	ctx, span := tracer.Start(ctx, "ApproveTopUp")
	defer span.End()
	span.SetAttributes(attribute.String("topup.id", topUpID), attribute.Int64("topup.amount", amount))

	settlement := model.Settlement{TopUpID: topUpID, PartnerID: partnerID, Amount: amount, Actor: actorOrAdmin(actor)}
	if err := settlement.Validate(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}

	locker, err := m.acquireLock(ctx, model.TopUpCreditReference(topUpID))
	if err != nil {
		return nil, logAndRecordError(span, "top-up lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	topUp, credit, err := m.datasource.ApproveTopUp(ctx, settlement)
	if err != nil {
		return nil, logAndRecordError(span, "approve top-up failed: ", err)
	}

	logrus.WithFields(logrus.Fields{
		"topup_id":      topUp.TopUpID,
		"partner_id":    topUp.PartnerID,
		"amount":        topUp.Amount,
		"balance_after": credit.BalanceAfter,
		"actor":         settlement.Actor,
	}).Info("top-up approved")
	span.AddEvent("top-up approved", trace.WithAttributes(attribute.Int64("partner.balance_after", credit.BalanceAfter)))

	m.postActions(EventTopUpApproved, SettlementEvent{TopUp: topUp, Credit: credit, AmountDisplay: FormatRupiah(topUp.Amount)}, true)
	return topUp, nil
}

// RejectTopUp closes a pending top-up without touching the partner balance.
func (m *Mitra) RejectTopUp(ctx context.Context, topUpID, reason, actor string) (*model.TopUp, error) {
	ctx, span := tracer.Start(ctx, "RejectTopUp")
	defer span.End()
	span.SetAttributes(attribute.String("topup.id", topUpID))

	if strings.TrimSpace(topUpID) == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "topup id is required", nil)
	}

	locker, err := m.acquireLock(ctx, model.TopUpCreditReference(topUpID))
	if err != nil {
		return nil, logAndRecordError(span, "top-up lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	topUp, err := m.datasource.RejectTopUp(ctx, topUpID, strings.TrimSpace(reason), actorOrAdmin(actor))
	if err != nil {
		return nil, logAndRecordError(span, "reject top-up failed: ", err)
	}

	logrus.WithFields(logrus.Fields{
		"topup_id":   topUp.TopUpID,
		"partner_id": topUp.PartnerID,
		"reason":     topUp.RejectionReason,
	}).Info("top-up rejected")

	m.postActions(EventTopUpRejected, SettlementEvent{TopUp: topUp, AmountDisplay: FormatRupiah(topUp.Amount)}, true)
	return topUp, nil
}

// ManualCredit adds amount to a partner balance outside of any top-up. The
// reference makes the call idempotent: replaying it is a conflict. An empty
// reference gets a generated one.
func (m *Mitra) ManualCredit(ctx context.Context, partnerID string, amount int64, reference, actor string) (*model.Credit, error) {
	ctx, span := tracer.Start(ctx, "ManualCredit")
	defer span.End()
	span.SetAttributes(attribute.String("partner.id", partnerID), attribute.Int64("credit.amount", amount))

	reference = strings.TrimSpace(reference)
	if reference == "" {
		reference = model.ManualCreditReference()
	}
	manual := model.ManualCredit{PartnerID: partnerID, Amount: amount, Reference: reference, Actor: actorOrAdmin(actor)}
	if err := manual.Validate(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}

	locker, err := m.acquireLock(ctx, "partner:"+partnerID)
	if err != nil {
		return nil, logAndRecordError(span, "partner lock error: ", err)
	}
	defer releaseLock(ctx, locker)

	credit, err := m.datasource.CreditPartner(ctx, manual)
	if err != nil {
		return nil, logAndRecordError(span, "manual credit failed: ", err)
	}

	logrus.WithFields(logrus.Fields{
		"partner_id":    credit.PartnerID,
		"amount":        credit.Amount,
		"reference":     credit.Reference,
		"balance_after": credit.BalanceAfter,
	}).Info("partner credited")

	m.postActions(EventPartnerCredited, SettlementEvent{Credit: credit, AmountDisplay: FormatRupiah(credit.Amount)}, true)
	return credit, nil
}

func actorOrAdmin(actor string) string {
	if strings.TrimSpace(actor) == "" {
		return model.AdminID
	}
	return actor
}
