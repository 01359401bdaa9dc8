package app

import (
	"errors"
	"strings"
)

var (
	// ErrPaymentFieldsRequired is shown to the buyer as-is.
	ErrPaymentFieldsRequired = errors.New("Пожалуйста, заполните имя и email")

	// Webhook rejections. The texts are returned to the processor.
	ErrWebhookNoData      = errors.New("No data provided")
	ErrWebhookNoPaymentID = errors.New("No payment ID")
	ErrWebhookForbidden   = errors.New("webhook source not allowed")
)

// ValidationError carries every message produced while checking one form,
// in the order the fields were checked.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// IsWebhookMalformed reports whether err rejects a webhook body.
func IsWebhookMalformed(err error) bool {
	return errors.Is(err, ErrWebhookNoData) || errors.Is(err, ErrWebhookNoPaymentID)
}
