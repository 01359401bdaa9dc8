package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/galimov-i/music-site/pkg/domain"
)

// runStoreContract exercises behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("song order upsert", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		created := time.UnixMilli(1_700_000_000_000)

		o := domain.NewSongOrder("Анна", "anna@example.com", "", "Свадебная", "Песня к свадьбе", "", "", created)
		saved, err := s.SaveSongOrder(ctx, o)
		if err != nil {
			t.Fatalf("insert order: %v", err)
		}
		if saved.ID == 0 {
			t.Fatalf("expected generated id")
		}
		if saved.Status != domain.OrderStatusPending {
			t.Fatalf("unexpected status: %q", saved.Status)
		}

		saved.Status = "in_progress"
		updated, err := s.SaveSongOrder(ctx, saved)
		if err != nil {
			t.Fatalf("update order: %v", err)
		}
		if updated.ID != saved.ID {
			t.Fatalf("update changed id: %d -> %d", saved.ID, updated.ID)
		}
		if updated.CreatedAt != created.UnixMilli() {
			t.Fatalf("created_at changed: %d", updated.CreatedAt)
		}
		if updated.UpdatedAt <= created.UnixMilli() {
			t.Fatalf("expected updated_at refreshed, got %d", updated.UpdatedAt)
		}

		got, ok, err := s.GetSongOrder(ctx, saved.ID)
		if err != nil || !ok {
			t.Fatalf("get order: ok=%v err=%v", ok, err)
		}
		if got.Status != "in_progress" {
			t.Fatalf("status not persisted: %q", got.Status)
		}

		pending, err := s.ListSongOrders(ctx, domain.OrderStatusPending)
		if err != nil {
			t.Fatalf("list pending: %v", err)
		}
		if len(pending) != 0 {
			t.Fatalf("expected no pending orders, got %d", len(pending))
		}

		missing := saved
		missing.ID = saved.ID + 100
		if _, err := s.SaveSongOrder(ctx, missing); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
		}
	})

	t.Run("song orders newest first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := time.UnixMilli(1_700_000_000_000)
		var want []string
		for i, name := range []string{"first", "second", "third"} {
			o := domain.NewSongOrder(name, name+"@example.com", "", "Поп", "desc", "", "", base.Add(time.Duration(i)*time.Second))
			if _, err := s.SaveSongOrder(ctx, o); err != nil {
				t.Fatalf("insert %s: %v", name, err)
			}
			want = append([]string{name}, want...)
		}
		orders, err := s.ListSongOrders(ctx, "")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		var got []string
		for _, o := range orders {
			got = append(got, o.Name)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("contacts replied filter", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := time.UnixMilli(1_700_000_000_000)
		a, err := s.SaveContact(ctx, domain.NewContact("A", "a@example.com", "hello", now))
		if err != nil {
			t.Fatalf("save a: %v", err)
		}
		if _, err := s.SaveContact(ctx, domain.NewContact("B", "b@example.com", "hi", now.Add(time.Second))); err != nil {
			t.Fatalf("save b: %v", err)
		}
		if err := s.MarkContactReplied(ctx, a.ID); err != nil {
			t.Fatalf("mark replied: %v", err)
		}
		if err := s.MarkContactReplied(ctx, a.ID+100); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		unreplied := false
		open, err := s.ListContacts(ctx, &unreplied)
		if err != nil {
			t.Fatalf("list unreplied: %v", err)
		}
		if len(open) != 1 || open[0].Name != "B" {
			t.Fatalf("unexpected unreplied contacts: %+v", open)
		}
		all, err := s.ListContacts(ctx, nil)
		if err != nil {
			t.Fatalf("list all: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 contacts, got %d", len(all))
		}
	})

	t.Run("purchase transitions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		amount := decimal.RequireFromString("4990.00")
		p := domain.NewCoursePurchase("Иван", "ivan@example.com", "+79001234567", amount, "pay-1", domain.PaymentSystemYooKassa, time.UnixMilli(1_700_000_000_000))
		saved, err := s.SavePurchase(ctx, p)
		if err != nil {
			t.Fatalf("save purchase: %v", err)
		}
		if saved.Status != domain.PurchasePending || saved.AccessGranted {
			t.Fatalf("unexpected initial state: %+v", saved)
		}
		granted, revoked := true, false

		completed, ok, err := s.ApplyPurchaseTransition(ctx, "pay-1", PurchaseTransition{Status: domain.PurchaseCompleted, Access: &granted})
		if err != nil || !ok {
			t.Fatalf("complete: ok=%v err=%v", ok, err)
		}
		if completed.Status != domain.PurchaseCompleted || !completed.AccessGranted {
			t.Fatalf("unexpected completed state: %+v", completed)
		}
		if !completed.Amount.Equal(amount) {
			t.Fatalf("amount changed: %s", completed.Amount)
		}

		refunded, ok, err := s.ApplyPurchaseTransition(ctx, "pay-1", PurchaseTransition{Status: domain.PurchaseRefunded, Access: &revoked})
		if err != nil || !ok {
			t.Fatalf("refund: ok=%v err=%v", ok, err)
		}
		if refunded.Status != domain.PurchaseRefunded || refunded.AccessGranted {
			t.Fatalf("unexpected refunded state: %+v", refunded)
		}

		cancelled, ok, err := s.ApplyPurchaseTransition(ctx, "pay-1", PurchaseTransition{Status: domain.PurchaseCancelled})
		if err != nil || !ok {
			t.Fatalf("cancel: ok=%v err=%v", ok, err)
		}
		if cancelled.Status != domain.PurchaseCancelled || cancelled.AccessGranted {
			t.Fatalf("cancel must leave access untouched: %+v", cancelled)
		}

		if _, ok, err := s.ApplyPurchaseTransition(ctx, "missing", PurchaseTransition{Status: domain.PurchaseCompleted, Access: &granted}); err != nil || ok {
			t.Fatalf("expected not found for unknown payment id: ok=%v err=%v", ok, err)
		}

		got, ok, err := s.GetPurchaseByPaymentID(ctx, "pay-1")
		if err != nil || !ok {
			t.Fatalf("get by payment id: ok=%v err=%v", ok, err)
		}
		if got.ID != saved.ID || got.Status != domain.PurchaseCancelled {
			t.Fatalf("unexpected purchase: %+v", got)
		}

		byEmail, err := s.ListPurchasesByEmail(ctx, "ivan@example.com")
		if err != nil {
			t.Fatalf("list by email: %v", err)
		}
		if len(byEmail) != 1 {
			t.Fatalf("expected 1 purchase, got %d", len(byEmail))
		}
	})

	t.Run("payment id unique", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := time.UnixMilli(1_700_000_000_000)
		p := domain.NewCoursePurchase("A", "a@example.com", "", decimal.NewFromInt(4990), "dup", domain.PaymentSystemDemo, now)
		if _, err := s.SavePurchase(ctx, p); err != nil {
			t.Fatalf("first insert: %v", err)
		}
		if _, err := s.SavePurchase(ctx, p); err == nil {
			t.Fatalf("expected duplicate payment id to fail")
		}
	})

	t.Run("subscribe idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		sub := domain.NewsletterSubscriber{Email: "fan@example.com", Subscribed: true, CreatedAt: 1}
		created, err := s.Subscribe(ctx, sub)
		if err != nil || !created {
			t.Fatalf("first subscribe: created=%v err=%v", created, err)
		}
		created, err = s.Subscribe(ctx, sub)
		if err != nil {
			t.Fatalf("second subscribe: %v", err)
		}
		if created {
			t.Fatalf("expected existing subscriber to be reported")
		}
	})

	t.Run("webhook events", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for i, event := range []string{"payment.succeeded", "refund.succeeded"} {
			ev := domain.WebhookEvent{
				Provider:   "yookassa",
				EventType:  event,
				PaymentID:  "pay-7",
				Payload:    []byte(`{"event":"` + event + `"}`),
				Matched:    i == 0,
				ReceivedAt: int64(1000 + i),
			}
			if err := s.AppendWebhookEvent(ctx, ev); err != nil {
				t.Fatalf("append %s: %v", event, err)
			}
		}
		events, err := s.ListWebhookEvents(ctx, "pay-7")
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		var got []string
		for _, ev := range events {
			got = append(got, ev.EventType)
		}
		if diff := cmp.Diff([]string{"payment.succeeded", "refund.succeeded"}, got); diff != "" {
			t.Fatalf("events mismatch (-want +got):\n%s", diff)
		}
		if !events[0].Matched || events[1].Matched {
			t.Fatalf("matched flags not persisted: %+v", events)
		}
	})
}
