package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/galimov-i/music-site/internal/util"
	"github.com/galimov-i/music-site/pkg/events"
	"github.com/galimov-i/music-site/pkg/store"
	"github.com/galimov-i/music-site/services/site/internal/notify"
	"github.com/galimov-i/music-site/services/site/internal/yookassa"
)

// PaymentProcessor creates hosted-checkout payments.
type PaymentProcessor interface {
	CreatePayment(ctx context.Context, req yookassa.CreatePaymentRequest) (yookassa.Payment, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	Store     store.Store
	Notifier  notify.Notifier
	Publisher events.Publisher
	// Processor is nil when payment credentials are not configured; purchases
	// are then recorded in demo mode.
	Processor PaymentProcessor

	AdminEmail        string
	CoursePrice       decimal.Decimal
	CourseCurrency    string
	CourseDescription string

	// WebhookAllowlist restricts webhook source addresses when non-nil.
	WebhookAllowlist *util.IPSet

	NotifyTimeout time.Duration
	Now           func() time.Time
}

// App holds the site's submission, payment and reconciliation logic.
type App struct {
	store     store.Store
	notifier  notify.Notifier
	publisher events.Publisher
	processor PaymentProcessor

	adminEmail        string
	coursePrice       decimal.Decimal
	courseCurrency    string
	courseDescription string
	webhookAllowlist  *util.IPSet
	notifyTimeout     time.Duration
	now               func() time.Time
}

// New constructs the application. A store is required; missing notifier and
// publisher default to no-ops.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store required")
	}
	if !cfg.CoursePrice.IsPositive() {
		return nil, errors.New("course price must be positive")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.Nop{}
	}
	if cfg.CourseCurrency == "" {
		cfg.CourseCurrency = "RUB"
	}
	if cfg.CourseDescription == "" {
		cfg.CourseDescription = "Курс 'Создай и Опубликуй Свою Музыку'"
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &App{
		store:             cfg.Store,
		notifier:          cfg.Notifier,
		publisher:         cfg.Publisher,
		processor:         cfg.Processor,
		adminEmail:        cfg.AdminEmail,
		coursePrice:       cfg.CoursePrice,
		courseCurrency:    cfg.CourseCurrency,
		courseDescription: cfg.CourseDescription,
		webhookAllowlist:  cfg.WebhookAllowlist,
		notifyTimeout:     cfg.NotifyTimeout,
		now:               cfg.Now,
	}, nil
}

// CoursePrice returns the configured course price.
func (a *App) CoursePrice() decimal.Decimal {
	return a.coursePrice
}

// send delivers msg best-effort. The request context's cancellation is
// dropped so a disconnecting client does not abort a send already started.
func (a *App) send(ctx context.Context, msg notify.Message, buildErr error, kind string) {
	logger := util.LoggerFromContext(ctx)
	if buildErr != nil {
		logger.Warn("notification build failed", "kind", kind, "err", buildErr)
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.notifyTimeout)
	defer cancel()
	if err := a.notifier.Send(sendCtx, msg); err != nil {
		logger.Warn("notification failed", "kind", kind, "err", err)
	}
}

func (a *App) publish(ctx context.Context, ev events.Event) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.publisher.Publish(pubCtx, ev); err != nil {
		util.LoggerFromContext(ctx).Warn("event publish failed", "type", ev.Type, "payment_id", ev.PaymentID, "err", err)
	}
}
