package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/galimov-i/music-site/internal/ratelimit"
	"github.com/galimov-i/music-site/internal/util"
	"github.com/galimov-i/music-site/pkg/events"
	"github.com/galimov-i/music-site/pkg/store"
	"github.com/galimov-i/music-site/services/site/internal/app"
	"github.com/galimov-i/music-site/services/site/internal/config"
	"github.com/galimov-i/music-site/services/site/internal/notify"
	"github.com/galimov-i/music-site/services/site/internal/render"
	"github.com/galimov-i/music-site/services/site/internal/server"
	"github.com/galimov-i/music-site/services/site/internal/yookassa"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger("site", cfg.LogLevel)

	st, err := store.NewGormStore(cfg.DSN())
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	closers := []io.Closer{st}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close failed", "err", err)
			}
		}
	}()

	var notifier notify.Notifier = notify.Nop{}
	if cfg.MailConfigured() {
		smtp, err := notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.MailServer,
			Port:     cfg.MailPort,
			Username: cfg.MailUsername,
			Password: cfg.MailPassword,
			From:     cfg.MailSender(),
			UseTLS:   cfg.MailUseTLS,
		})
		if err != nil {
			log.Fatalf("failed to init mailer: %v", err)
		}
		notifier = smtp
	} else {
		logger.Warn("mail sender not configured, notifications disabled")
	}

	var processor app.PaymentProcessor
	if cfg.YooKassaConfigured() {
		client, err := yookassa.NewClient(cfg.YooKassaAPIURL, cfg.YooKassaShopID, cfg.YooKassaSecretKey)
		if err != nil {
			log.Fatalf("failed to init payment client: %v", err)
		}
		processor = client
	} else if cfg.YooKassaIncomplete() {
		logger.Warn("yookassa shop id and secret key must both be set, payments run in demo mode")
	} else {
		logger.Warn("yookassa credentials not configured, payments run in demo mode")
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			log.Fatalf("failed to init event publisher: %v", err)
		}
		publisher = amqpPublisher
		closers = append(closers, amqpPublisher)
	}

	trusted, err := util.ParseIPSet(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("invalid trustedProxyCidrs: %v", err)
	}
	webhookAllowlist, err := util.ParseIPSet(cfg.WebhookCIDRs)
	if err != nil {
		log.Fatalf("invalid webhookAllowedCidrs: %v", err)
	}

	formLimiter, formCloser, err := newLimiter(cfg, "form", cfg.FormRateLimitPerMinute)
	if err != nil {
		log.Fatalf("failed to init form limiter: %v", err)
	}
	paymentLimiter, paymentCloser, err := newLimiter(cfg, "payment", cfg.PayRateLimitPerMinute)
	if err != nil {
		log.Fatalf("failed to init payment limiter: %v", err)
	}
	for _, c := range []io.Closer{formCloser, paymentCloser} {
		if c != nil {
			closers = append(closers, c)
		}
	}

	appCore, err := app.New(app.Config{
		Store:             st,
		Notifier:          notifier,
		Publisher:         publisher,
		Processor:         processor,
		AdminEmail:        cfg.AdminEmail,
		CoursePrice:       cfg.Price(),
		CourseCurrency:    cfg.CourseCurrency,
		CourseDescription: cfg.CourseDescription,
		WebhookAllowlist:  webhookAllowlist,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	templates, err := render.NewTemplates()
	if err != nil {
		log.Fatalf("failed to load templates: %v", err)
	}
	httpServer, err := server.New(server.Config{
		App:            appCore,
		Renderer:       templates,
		FormLimiter:    formLimiter,
		PaymentLimiter: paymentLimiter,
		TrustedProxies: trusted,
		PublicBaseURL:  cfg.PublicBaseURL,
		Page: render.PageData{
			VKMusicURL:     cfg.VKMusicURL,
			YandexMusicURL: cfg.YandexMusicURL,
			Telegram:       cfg.Telegram,
			Instagram:      cfg.Instagram,
			VKProfile:      cfg.VKProfile,
		},
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("site server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
	slog.Info("site server stopped")
}

// newLimiter returns a Redis-backed limiter when redisAddr is set so that
// several instances share one quota, and an in-process one otherwise.
func newLimiter(cfg config.FileConfig, name string, perMinute int) (ratelimit.Limiter, io.Closer, error) {
	if perMinute <= 0 {
		perMinute = ratelimit.DefaultLimit
	}
	if cfg.RedisAddr != "" {
		l, err := ratelimit.NewRedisSlidingWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "site:ratelimit:"+name, perMinute, ratelimit.DefaultWindow)
		if err != nil {
			return nil, nil, err
		}
		return l, l, nil
	}
	var opts []ratelimit.Option
	if cfg.RateLimitCapacity > 0 {
		opts = append(opts, ratelimit.WithCapacity(cfg.RateLimitCapacity))
	}
	l, err := ratelimit.NewSlidingWindowLimiter(perMinute, ratelimit.DefaultWindow, opts...)
	if err != nil {
		return nil, nil, err
	}
	return l, nil, nil
}
