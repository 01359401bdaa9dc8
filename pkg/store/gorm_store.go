package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/galimov-i/music-site/pkg/domain"
)

const migrateLockID int64 = 49904990

type GormStoreOptions struct {
	Now func() time.Time
}

type GormStoreOption func(*GormStoreOptions)

// WithClock overrides the clock used to stamp updated_at.
func WithClock(now func() time.Time) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.Now = now
	}
}

// GormStore implements Store using GORM on Postgres or SQLite.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore opens the DB and runs auto-migrations. A postgres:// or
// postgresql:// DSN selects Postgres, anything else is treated as a SQLite
// file path.
func NewGormStore(dsn string, options ...GormStoreOption) (*GormStore, error) {
	opts := GormStoreOptions{Now: time.Now}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	dialector, err := openDialector(dsn)
	if err != nil {
		return nil, err
	}

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if db.Dialector.Name() == "sqlite" {
		// One writer at a time; SQLite would otherwise return SQLITE_BUSY under load.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&SongOrderModel{},
			&CoursePurchaseModel{},
			&ContactModel{},
			&NewsletterSubscriberModel{},
			&WebhookEventModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db, now: opts.Now}, nil
}

func openDialector(dsn string) (gorm.Dialector, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, errors.New("database dsn required")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), nil
	default:
		if !strings.Contains(dsn, "?") {
			dsn += "?_busy_timeout=5000"
		}
		return sqlite.Open(dsn), nil
	}
}

// withMigrationLock serializes migrations across replicas on Postgres.
// Other dialects run fn directly.
func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	if db.Dialector.Name() != "postgres" {
		return fn(db)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) nowMillis() int64 {
	return domain.Millis(s.now())
}

// SaveSongOrder inserts a new order or updates an existing one by id.
func (s *GormStore) SaveSongOrder(ctx context.Context, o domain.SongOrder) (domain.SongOrder, error) {
	model := songOrderToModel(o)
	db := s.db.WithContext(ctx)
	if model.ID == 0 {
		if err := db.Create(&model).Error; err != nil {
			return domain.SongOrder{}, fmt.Errorf("insert song order: %w", err)
		}
		return songOrderFromModel(model), nil
	}
	res := db.Model(&SongOrderModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"name":        model.Name,
			"email":       model.Email,
			"phone":       model.Phone,
			"song_type":   model.SongType,
			"description": model.Description,
			"budget":      model.Budget,
			"deadline":    model.Deadline,
			"status":      model.Status,
			"updated_at":  s.nowMillis(),
		})
	if res.Error != nil {
		return domain.SongOrder{}, fmt.Errorf("update song order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.SongOrder{}, ErrNotFound
	}
	saved, _, err := s.GetSongOrder(ctx, model.ID)
	return saved, err
}

// GetSongOrder returns an order by id.
func (s *GormStore) GetSongOrder(ctx context.Context, id int64) (domain.SongOrder, bool, error) {
	var model SongOrderModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SongOrder{}, false, nil
		}
		return domain.SongOrder{}, false, err
	}
	return songOrderFromModel(model), true, nil
}

// ListSongOrders returns orders newest first, optionally filtered by status.
func (s *GormStore) ListSongOrders(ctx context.Context, status string) ([]domain.SongOrder, error) {
	var models []SongOrderModel
	tx := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.SongOrder, 0, len(models))
	for _, m := range models {
		res = append(res, songOrderFromModel(m))
	}
	return res, nil
}

// SaveContact inserts a new contact message or updates an existing one by id.
func (s *GormStore) SaveContact(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	model := contactToModel(c)
	db := s.db.WithContext(ctx)
	if model.ID == 0 {
		if err := db.Create(&model).Error; err != nil {
			return domain.Contact{}, fmt.Errorf("insert contact: %w", err)
		}
		return contactFromModel(model), nil
	}
	res := db.Model(&ContactModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"name":    model.Name,
			"email":   model.Email,
			"message": model.Message,
			"replied": model.Replied,
		})
	if res.Error != nil {
		return domain.Contact{}, fmt.Errorf("update contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Contact{}, ErrNotFound
	}
	var saved ContactModel
	if err := db.First(&saved, "id = ?", model.ID).Error; err != nil {
		return domain.Contact{}, err
	}
	return contactFromModel(saved), nil
}

// ListContacts returns contact messages newest first. A nil replied returns all.
func (s *GormStore) ListContacts(ctx context.Context, replied *bool) ([]domain.Contact, error) {
	var models []ContactModel
	tx := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if replied != nil {
		tx = tx.Where("replied = ?", *replied)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Contact, 0, len(models))
	for _, m := range models {
		res = append(res, contactFromModel(m))
	}
	return res, nil
}

// MarkContactReplied flags a contact message as answered.
func (s *GormStore) MarkContactReplied(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Model(&ContactModel{}).Where("id = ?", id).Update("replied", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SavePurchase inserts a new purchase or updates an existing one by id.
func (s *GormStore) SavePurchase(ctx context.Context, p domain.CoursePurchase) (domain.CoursePurchase, error) {
	model := purchaseToModel(p)
	db := s.db.WithContext(ctx)
	if model.ID == 0 {
		if err := db.Create(&model).Error; err != nil {
			return domain.CoursePurchase{}, fmt.Errorf("insert purchase: %w", err)
		}
		return purchaseFromModel(model), nil
	}
	res := db.Model(&CoursePurchaseModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"name":           model.Name,
			"email":          model.Email,
			"phone":          model.Phone,
			"amount":         model.Amount,
			"payment_id":     model.PaymentID,
			"payment_system": model.PaymentSystem,
			"status":         model.Status,
			"access_granted": model.AccessGranted,
			"updated_at":     s.nowMillis(),
		})
	if res.Error != nil {
		return domain.CoursePurchase{}, fmt.Errorf("update purchase: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.CoursePurchase{}, ErrNotFound
	}
	saved, _, err := s.getPurchase(ctx, "id = ?", model.ID)
	return saved, err
}

// GetPurchaseByPaymentID looks up a purchase by the processor payment id.
func (s *GormStore) GetPurchaseByPaymentID(ctx context.Context, paymentID string) (domain.CoursePurchase, bool, error) {
	return s.getPurchase(ctx, "payment_id = ?", paymentID)
}

func (s *GormStore) getPurchase(ctx context.Context, query string, arg any) (domain.CoursePurchase, bool, error) {
	var model CoursePurchaseModel
	if err := s.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CoursePurchase{}, false, nil
		}
		return domain.CoursePurchase{}, false, err
	}
	return purchaseFromModel(model), true, nil
}

// ListPurchasesByEmail returns purchases for an email, newest first.
func (s *GormStore) ListPurchasesByEmail(ctx context.Context, email string) ([]domain.CoursePurchase, error) {
	var models []CoursePurchaseModel
	if err := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC, id DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.CoursePurchase, 0, len(models))
	for _, m := range models {
		res = append(res, purchaseFromModel(m))
	}
	return res, nil
}

// ApplyPurchaseTransition writes status and access in a single UPDATE so
// concurrent deliveries for one payment id never interleave field writes.
func (s *GormStore) ApplyPurchaseTransition(ctx context.Context, paymentID string, t PurchaseTransition) (domain.CoursePurchase, bool, error) {
	updates := map[string]any{
		"status":     string(t.Status),
		"updated_at": s.nowMillis(),
	}
	if t.Access != nil {
		updates["access_granted"] = *t.Access
	}
	res := s.db.WithContext(ctx).Model(&CoursePurchaseModel{}).
		Where("payment_id = ?", paymentID).
		Updates(updates)
	if res.Error != nil {
		return domain.CoursePurchase{}, false, fmt.Errorf("apply purchase transition: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.CoursePurchase{}, false, nil
	}
	return s.GetPurchaseByPaymentID(ctx, paymentID)
}

// Subscribe inserts a subscriber, ignoring an existing row for the same email.
func (s *GormStore) Subscribe(ctx context.Context, sub domain.NewsletterSubscriber) (bool, error) {
	model := NewsletterSubscriberModel{
		Email:      sub.Email,
		Subscribed: sub.Subscribed,
		CreatedAt:  sub.CreatedAt,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model)
	if res.Error != nil {
		return false, fmt.Errorf("insert subscriber: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AppendWebhookEvent records an inbound webhook delivery.
func (s *GormStore) AppendWebhookEvent(ctx context.Context, ev domain.WebhookEvent) error {
	model := WebhookEventModel{
		Provider:   ev.Provider,
		EventType:  ev.EventType,
		PaymentID:  ev.PaymentID,
		Payload:    ev.Payload,
		Matched:    ev.Matched,
		ReceivedAt: ev.ReceivedAt,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// ListWebhookEvents returns deliveries for a payment id in arrival order.
func (s *GormStore) ListWebhookEvents(ctx context.Context, paymentID string) ([]domain.WebhookEvent, error) {
	var models []WebhookEventModel
	if err := s.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("received_at ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.WebhookEvent, 0, len(models))
	for _, m := range models {
		res = append(res, domain.WebhookEvent{
			ID:         m.ID,
			Provider:   m.Provider,
			EventType:  m.EventType,
			PaymentID:  m.PaymentID,
			Payload:    []byte(m.Payload),
			Matched:    m.Matched,
			ReceivedAt: m.ReceivedAt,
		})
	}
	return res, nil
}

func songOrderToModel(o domain.SongOrder) SongOrderModel {
	return SongOrderModel{
		ID:          o.ID,
		Name:        o.Name,
		Email:       o.Email,
		Phone:       o.Phone,
		SongType:    o.SongType,
		Description: o.Description,
		Budget:      o.Budget,
		Deadline:    o.Deadline,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func songOrderFromModel(m SongOrderModel) domain.SongOrder {
	return domain.SongOrder{
		ID:          m.ID,
		Name:        m.Name,
		Email:       m.Email,
		Phone:       m.Phone,
		SongType:    m.SongType,
		Description: m.Description,
		Budget:      m.Budget,
		Deadline:    m.Deadline,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func contactToModel(c domain.Contact) ContactModel {
	return ContactModel{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Message:   c.Message,
		Replied:   c.Replied,
		CreatedAt: c.CreatedAt,
	}
}

func contactFromModel(m ContactModel) domain.Contact {
	return domain.Contact{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Message:   m.Message,
		Replied:   m.Replied,
		CreatedAt: m.CreatedAt,
	}
}

func purchaseToModel(p domain.CoursePurchase) CoursePurchaseModel {
	return CoursePurchaseModel{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		Amount:        p.Amount,
		PaymentID:     p.PaymentID,
		PaymentSystem: string(p.PaymentSystem),
		Status:        string(p.Status),
		AccessGranted: p.AccessGranted,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func purchaseFromModel(m CoursePurchaseModel) domain.CoursePurchase {
	return domain.CoursePurchase{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		Phone:         m.Phone,
		Amount:        m.Amount,
		PaymentID:     m.PaymentID,
		PaymentSystem: domain.PaymentSystem(m.PaymentSystem),
		Status:        domain.PurchaseStatus(m.Status),
		AccessGranted: m.AccessGranted,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
