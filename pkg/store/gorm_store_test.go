package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/galimov-i/music-site/pkg/domain"
)

func subscriberFixture(email string) domain.NewsletterSubscriber {
	return domain.NewsletterSubscriber{Email: email, Subscribed: true, CreatedAt: 1}
}

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "site.db")
	s, err := NewGormStore(dsn, WithClock(func() time.Time {
		return time.UnixMilli(1_800_000_000_000)
	}))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGormStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return newTestGormStore(t)
	})
}

func TestGormStoreReopenKeepsData(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "site.db")
	s, err := NewGormStore(dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	created, err := s.Subscribe(context.Background(), subscriberFixture("keep@example.com"))
	if err != nil || !created {
		t.Fatalf("subscribe: created=%v err=%v", created, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewGormStore(dsn)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	created, err = reopened.Subscribe(context.Background(), subscriberFixture("keep@example.com"))
	if err != nil {
		t.Fatalf("subscribe after reopen: %v", err)
	}
	if created {
		t.Fatalf("expected subscriber to survive reopen")
	}
}

func TestOpenDialectorRejectsEmptyDSN(t *testing.T) {
	if _, err := openDialector("  "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
