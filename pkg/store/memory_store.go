package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/galimov-i/music-site/pkg/domain"
)

// MemoryStore keeps records in-process. It backs tests and local runs
// without a database file.
type MemoryStore struct {
	mu          sync.RWMutex
	now         func() time.Time
	nextID      int64
	orders      map[int64]domain.SongOrder
	contacts    map[int64]domain.Contact
	purchases   map[int64]domain.CoursePurchase
	byPaymentID map[string]int64
	subscribers map[string]domain.NewsletterSubscriber
	webhooks    []domain.WebhookEvent
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:         time.Now,
		orders:      make(map[int64]domain.SongOrder),
		contacts:    make(map[int64]domain.Contact),
		purchases:   make(map[int64]domain.CoursePurchase),
		byPaymentID: make(map[string]int64),
		subscribers: make(map[string]domain.NewsletterSubscriber),
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) SaveSongOrder(_ context.Context, o domain.SongOrder) (domain.SongOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == 0 {
		o.ID = m.id()
		m.orders[o.ID] = o
		return o, nil
	}
	existing, ok := m.orders[o.ID]
	if !ok {
		return domain.SongOrder{}, ErrNotFound
	}
	o.CreatedAt = existing.CreatedAt
	o.UpdatedAt = domain.Millis(m.now())
	m.orders[o.ID] = o
	return o, nil
}

func (m *MemoryStore) GetSongOrder(_ context.Context, id int64) (domain.SongOrder, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	return o, ok, nil
}

func (m *MemoryStore) ListSongOrders(_ context.Context, status string) ([]domain.SongOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.SongOrder, 0, len(m.orders))
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			res = append(res, o)
		}
	}
	slices.SortFunc(res, func(a, b domain.SongOrder) int {
		return newestFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return res, nil
}

func (m *MemoryStore) SaveContact(_ context.Context, c domain.Contact) (domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.id()
		m.contacts[c.ID] = c
		return c, nil
	}
	existing, ok := m.contacts[c.ID]
	if !ok {
		return domain.Contact{}, ErrNotFound
	}
	c.CreatedAt = existing.CreatedAt
	m.contacts[c.ID] = c
	return c, nil
}

func (m *MemoryStore) ListContacts(_ context.Context, replied *bool) ([]domain.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Contact, 0, len(m.contacts))
	for _, c := range m.contacts {
		if replied == nil || c.Replied == *replied {
			res = append(res, c)
		}
	}
	slices.SortFunc(res, func(a, b domain.Contact) int {
		return newestFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return res, nil
}

func (m *MemoryStore) MarkContactReplied(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return ErrNotFound
	}
	c.Replied = true
	m.contacts[id] = c
	return nil
}

func (m *MemoryStore) SavePurchase(_ context.Context, p domain.CoursePurchase) (domain.CoursePurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ownerID, taken := m.byPaymentID[p.PaymentID]; taken && ownerID != p.ID {
		return domain.CoursePurchase{}, fmt.Errorf("insert purchase: duplicate payment id %q", p.PaymentID)
	}
	if p.ID == 0 {
		p.ID = m.id()
		m.purchases[p.ID] = p
		m.byPaymentID[p.PaymentID] = p.ID
		return p, nil
	}
	existing, ok := m.purchases[p.ID]
	if !ok {
		return domain.CoursePurchase{}, ErrNotFound
	}
	delete(m.byPaymentID, existing.PaymentID)
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = domain.Millis(m.now())
	m.purchases[p.ID] = p
	m.byPaymentID[p.PaymentID] = p.ID
	return p, nil
}

func (m *MemoryStore) GetPurchaseByPaymentID(_ context.Context, paymentID string) (domain.CoursePurchase, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byPaymentID[paymentID]
	if !ok {
		return domain.CoursePurchase{}, false, nil
	}
	return m.purchases[id], true, nil
}

func (m *MemoryStore) ListPurchasesByEmail(_ context.Context, email string) ([]domain.CoursePurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.CoursePurchase
	for _, p := range m.purchases {
		if p.Email == email {
			res = append(res, p)
		}
	}
	slices.SortFunc(res, func(a, b domain.CoursePurchase) int {
		return newestFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return res, nil
}

func (m *MemoryStore) ApplyPurchaseTransition(_ context.Context, paymentID string, t PurchaseTransition) (domain.CoursePurchase, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPaymentID[paymentID]
	if !ok {
		return domain.CoursePurchase{}, false, nil
	}
	p := m.purchases[id]
	p.Status = t.Status
	if t.Access != nil {
		p.AccessGranted = *t.Access
	}
	p.UpdatedAt = domain.Millis(m.now())
	m.purchases[id] = p
	return p, true, nil
}

func (m *MemoryStore) Subscribe(_ context.Context, sub domain.NewsletterSubscriber) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.subscribers[sub.Email]; exists {
		return false, nil
	}
	m.subscribers[sub.Email] = sub
	return true, nil
}

func (m *MemoryStore) AppendWebhookEvent(_ context.Context, ev domain.WebhookEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = m.id()
	m.webhooks = append(m.webhooks, ev)
	return nil
}

func (m *MemoryStore) ListWebhookEvents(_ context.Context, paymentID string) ([]domain.WebhookEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.WebhookEvent
	for _, ev := range m.webhooks {
		if ev.PaymentID == paymentID {
			res = append(res, ev)
		}
	}
	return res, nil
}

// PurchaseCount reports how many purchases are stored.
func (m *MemoryStore) PurchaseCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.purchases)
}

// SubscriberCount reports how many newsletter subscribers are stored.
func (m *MemoryStore) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

func newestFirst(aCreated, aID, bCreated, bID int64) int {
	if aCreated != bCreated {
		if aCreated > bCreated {
			return -1
		}
		return 1
	}
	switch {
	case aID > bID:
		return -1
	case aID < bID:
		return 1
	default:
		return 0
	}
}
