package store

import (
	"context"
	"errors"

	"github.com/galimov-i/music-site/pkg/domain"
)

// ErrNotFound is returned when an update targets an id that has no row.
var ErrNotFound = errors.New("record not found")

// PurchaseTransition is a status change driven by a processor event.
type PurchaseTransition struct {
	Status domain.PurchaseStatus
	// Access sets access_granted when non-nil and leaves it untouched otherwise.
	Access *bool
}

// Store defines persistence for site submissions and course purchases.
//
// Save methods follow upsert-by-identity: a zero ID inserts and returns the
// record with its generated ID, a non-zero ID updates that row and refreshes
// UpdatedAt where the record has one.
type Store interface {
	// song orders
	SaveSongOrder(ctx context.Context, o domain.SongOrder) (domain.SongOrder, error)
	GetSongOrder(ctx context.Context, id int64) (domain.SongOrder, bool, error)
	ListSongOrders(ctx context.Context, status string) ([]domain.SongOrder, error)

	// contacts
	SaveContact(ctx context.Context, c domain.Contact) (domain.Contact, error)
	ListContacts(ctx context.Context, replied *bool) ([]domain.Contact, error)
	MarkContactReplied(ctx context.Context, id int64) error

	// purchases
	SavePurchase(ctx context.Context, p domain.CoursePurchase) (domain.CoursePurchase, error)
	GetPurchaseByPaymentID(ctx context.Context, paymentID string) (domain.CoursePurchase, bool, error)
	ListPurchasesByEmail(ctx context.Context, email string) ([]domain.CoursePurchase, error)
	// ApplyPurchaseTransition sets status, and access when t.Access is non-nil,
	// in one statement keyed by payment id. The bool is false when no purchase
	// has that payment id.
	ApplyPurchaseTransition(ctx context.Context, paymentID string, t PurchaseTransition) (domain.CoursePurchase, bool, error)

	// newsletter
	// Subscribe reports false when the email was already subscribed.
	Subscribe(ctx context.Context, sub domain.NewsletterSubscriber) (bool, error)

	// webhooks
	AppendWebhookEvent(ctx context.Context, ev domain.WebhookEvent) error
	ListWebhookEvents(ctx context.Context, paymentID string) ([]domain.WebhookEvent, error)

	Close() error
}
