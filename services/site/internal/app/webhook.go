package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/galimov-i/music-site/internal/util"
	"github.com/galimov-i/music-site/pkg/domain"
	"github.com/galimov-i/music-site/pkg/events"
	"github.com/galimov-i/music-site/pkg/store"
	"github.com/galimov-i/music-site/services/site/internal/notify"
)

const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentCanceled  = "payment.canceled"
	EventRefundSucceeded  = "refund.succeeded"

	providerYooKassa = "yookassa"
)

var (
	accessOn  = true
	accessOff = false

	transitions = map[string]store.PurchaseTransition{
		EventPaymentSucceeded: {Status: domain.PurchaseCompleted, Access: &accessOn},
		EventPaymentCanceled:  {Status: domain.PurchaseCancelled},
		EventRefundSucceeded:  {Status: domain.PurchaseRefunded, Access: &accessOff},
	}
)

// WebhookResult describes what a delivery did. Every successful result is
// acknowledged to the processor the same way.
type WebhookResult struct {
	Event     string
	PaymentID string
	// Matched is false when no purchase has the payment id.
	Matched bool
	// Applied is true when the event changed purchase state.
	Applied  bool
	Purchase domain.CoursePurchase
}

type webhookEnvelope struct {
	Event  string          `json:"event"`
	Object json.RawMessage `json:"object"`
}

type webhookObject struct {
	ID string `json:"id"`
}

// HandleWebhook reconciles one processor notification with the stored
// purchase. Unknown payment ids and unknown event types are acknowledged
// without changes.
func (a *App) HandleWebhook(ctx context.Context, raw []byte, sourceIP string) (WebhookResult, error) {
	logger := util.LoggerFromContext(ctx)
	if a.webhookAllowlist != nil && !a.webhookAllowlist.ContainsString(sourceIP) {
		logger.Warn("webhook from disallowed source", "source_ip", sourceIP)
		return WebhookResult{}, ErrWebhookForbidden
	}

	eventType, paymentID, err := parseWebhook(raw)
	if err != nil {
		return WebhookResult{}, err
	}
	res := WebhookResult{Event: eventType, PaymentID: paymentID}
	logger = logger.With("event", eventType, "payment_id", paymentID)

	purchase, found, err := a.store.GetPurchaseByPaymentID(ctx, paymentID)
	if err != nil {
		return res, fmt.Errorf("lookup purchase: %w", err)
	}
	a.recordWebhook(ctx, eventType, paymentID, raw, found)
	if !found {
		logger.Warn("purchase not found for webhook")
		return res, nil
	}
	res.Matched = true
	res.Purchase = purchase

	transition, known := transitions[eventType]
	if !known {
		logger.Info("webhook event ignored")
		return res, nil
	}
	updated, ok, err := a.store.ApplyPurchaseTransition(ctx, paymentID, transition)
	if err != nil {
		return res, fmt.Errorf("apply %s: %w", eventType, err)
	}
	if !ok {
		logger.Warn("purchase disappeared before transition")
		res.Matched = false
		return res, nil
	}
	res.Applied = true
	res.Purchase = updated
	logger.Info("purchase updated", "status", updated.Status, "access_granted", updated.AccessGranted)

	switch eventType {
	case EventPaymentSucceeded:
		msg, buildErr := notify.PurchaseConfirmation(updated)
		a.send(ctx, msg, buildErr, "purchase_confirmation")
		a.publish(ctx, purchaseEvent(events.TypePurchaseCompleted, updated, a.now().UnixMilli()))
	case EventRefundSucceeded:
		a.publish(ctx, purchaseEvent(events.TypePurchaseRefunded, updated, a.now().UnixMilli()))
	}
	return res, nil
}

func parseWebhook(raw []byte) (eventType, paymentID string, err error) {
	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", "", ErrWebhookNoData
	}
	if env.Event == "" && len(env.Object) == 0 {
		return "", "", ErrWebhookNoData
	}
	obj := bytes.TrimSpace(env.Object)
	if len(obj) == 0 || bytes.Equal(obj, []byte("null")) {
		return "", "", ErrWebhookNoPaymentID
	}
	var o webhookObject
	if err := json.Unmarshal(obj, &o); err != nil || o.ID == "" {
		return "", "", ErrWebhookNoPaymentID
	}
	return env.Event, o.ID, nil
}

// recordWebhook appends the delivery to the audit log. Failures are logged
// and do not affect the response.
func (a *App) recordWebhook(ctx context.Context, eventType, paymentID string, raw []byte, matched bool) {
	err := a.store.AppendWebhookEvent(ctx, domain.WebhookEvent{
		Provider:   providerYooKassa,
		EventType:  eventType,
		PaymentID:  paymentID,
		Payload:    raw,
		Matched:    matched,
		ReceivedAt: domain.Millis(a.now()),
	})
	if err != nil {
		util.LoggerFromContext(ctx).Warn("webhook event log failed", "payment_id", paymentID, "err", err)
	}
}

func purchaseEvent(eventType string, p domain.CoursePurchase, at int64) events.Event {
	return events.Event{
		Type:       eventType,
		PaymentID:  p.PaymentID,
		Name:       p.Name,
		Email:      p.Email,
		Amount:     p.Amount,
		Status:     string(p.Status),
		OccurredAt: at,
	}
}
