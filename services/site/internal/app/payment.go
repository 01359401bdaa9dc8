package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/galimov-i/music-site/internal/util"
	"github.com/galimov-i/music-site/pkg/domain"
	"github.com/galimov-i/music-site/services/site/internal/yookassa"
)

// PaymentSuccessPath is where buyers land after checkout.
const PaymentSuccessPath = "/payment-success"

// PaymentRequest is the course purchase form plus the public site origin.
type PaymentRequest struct {
	Name          string
	Email         string
	Phone         string
	ReturnBaseURL string
}

// PaymentResult tells the client where to go next.
type PaymentResult struct {
	PaymentID       string
	ConfirmationURL string
	DemoMode        bool
	Message         string
}

// CreatePayment starts a course purchase. Without a working processor the
// purchase is recorded in demo mode and the buyer is sent straight to the
// success page.
func (a *App) CreatePayment(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)
	if name == "" || email == "" {
		return PaymentResult{}, ErrPaymentFieldsRequired
	}
	logger := util.LoggerFromContext(ctx)

	if a.processor == nil {
		logger.Info("payment processor not configured, using demo mode")
	} else {
		payment, err := a.processor.CreatePayment(ctx, yookassa.CreatePaymentRequest{
			Amount:      a.coursePrice,
			Currency:    a.courseCurrency,
			ReturnURL:   strings.TrimRight(req.ReturnBaseURL, "/") + PaymentSuccessPath,
			Description: a.courseDescription,
			Metadata: map[string]string{
				"email": email,
				"name":  name,
				"phone": phone,
			},
		})
		if err == nil {
			purchase := domain.NewCoursePurchase(name, email, phone, a.coursePrice, payment.ID, domain.PaymentSystemYooKassa, a.now())
			if _, err := a.store.SavePurchase(ctx, purchase); err != nil {
				return PaymentResult{}, fmt.Errorf("save purchase: %w", err)
			}
			logger.Info("payment created", "payment_id", payment.ID)
			return PaymentResult{PaymentID: payment.ID, ConfirmationURL: payment.ConfirmationURL}, nil
		}
		logger.Error("payment processor failed, falling back to demo mode",
			"processor_error", err.Error(),
			"alert", true,
		)
	}

	now := a.now()
	paymentID := fmt.Sprintf("demo_%d_%s", domain.Millis(now), util.ShortID(8))
	purchase := domain.NewCoursePurchase(name, email, phone, a.coursePrice, paymentID, domain.PaymentSystemDemo, now)
	if _, err := a.store.SavePurchase(ctx, purchase); err != nil {
		return PaymentResult{}, fmt.Errorf("save demo purchase: %w", err)
	}
	return PaymentResult{
		PaymentID:       paymentID,
		ConfirmationURL: PaymentSuccessPath,
		DemoMode:        true,
		Message:         MsgDemoPayment,
	}, nil
}
