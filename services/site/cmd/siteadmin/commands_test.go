package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/galimov-i/music-site/pkg/domain"
	"github.com/galimov-i/music-site/pkg/store"
)

var seedTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	if _, err := st.SaveSongOrder(ctx, domain.NewSongOrder("Анна", "anna@example.com", "", "Свадебная", "Первый танец", "", "", seedTime)); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	if _, err := st.SaveContact(ctx, domain.NewContact("Олег", "oleg@example.com", "Привет", seedTime)); err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	p := domain.NewCoursePurchase("Мария", "maria@example.com", "", decimal.RequireFromString("4990"), "pay-1", domain.PaymentSystemYooKassa, seedTime)
	if _, err := st.SavePurchase(ctx, p); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
	if err := st.AppendWebhookEvent(ctx, domain.WebhookEvent{
		Provider: "yookassa", EventType: "payment.succeeded", PaymentID: "pay-1", Payload: []byte(`{}`), Matched: true, ReceivedAt: domain.Millis(seedTime),
	}); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return st
}

func run(t *testing.T, st store.Store, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(func(string) (store.Store, error) { return st, nil }, &out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListCommands(t *testing.T) {
	st := seededStore(t)
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"orders"}, []string{"STATUS", "pending", "anna@example.com", "2026-03-01 09:30:00"}},
		{[]string{"orders", "--status", "done"}, []string{"ID"}},
		{[]string{"contacts", "--unreplied"}, []string{"oleg@example.com", "false"}},
		{[]string{"purchases", "maria@example.com"}, []string{"pay-1", "yookassa", "pending", "4990.00"}},
		{[]string{"events", "pay-1"}, []string{"payment.succeeded", "true"}},
	}
	for _, tc := range tests {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			out, err := run(t, st, tc.args...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(out, want) {
					t.Fatalf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestOrdersStatusFilter(t *testing.T) {
	out, err := run(t, seededStore(t), "orders", "--status", "done")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(out, "anna@example.com") {
		t.Fatalf("filtered listing contains pending order:\n%s", out)
	}
}

func TestContactsReply(t *testing.T) {
	st := seededStore(t)
	out, err := run(t, st, "contacts", "reply", "2")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if !strings.Contains(out, "contact 2 marked replied") {
		t.Fatalf("unexpected output: %q", out)
	}
	out, err = run(t, st, "contacts", "--unreplied")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(out, "oleg@example.com") {
		t.Fatalf("replied contact still listed:\n%s", out)
	}

	if _, err := run(t, st, "contacts", "reply", "abc"); err == nil {
		t.Fatalf("expected error for invalid id")
	}
	if _, err := run(t, st, "contacts", "reply", "999"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenFailure(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd(func(string) (store.Store, error) { return nil, errors.New("no db") }, &out)
	root.SetArgs([]string{"migrate"})
	if err := root.ExecuteContext(context.Background()); err == nil || !strings.Contains(err.Error(), "no db") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestMigrate(t *testing.T) {
	out, err := run(t, store.NewMemoryStore(), "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "schema up to date") {
		t.Fatalf("unexpected output: %q", out)
	}
}
