package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusPending is the status every new song order starts with.
const OrderStatusPending = "pending"

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseCancelled PurchaseStatus = "cancelled"
	PurchaseRefunded  PurchaseStatus = "refunded"
)

type PaymentSystem string

const (
	PaymentSystemYooKassa PaymentSystem = "yookassa"
	PaymentSystemDemo     PaymentSystem = "demo"
)

// SongOrder is a song commission request. Timestamps are unix milliseconds.
type SongOrder struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	SongType    string `json:"song_type"`
	Description string `json:"description"`
	Budget      string `json:"budget"`
	Deadline    string `json:"deadline"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// CoursePurchase tracks one payment attempt for the course.
// PaymentID is unique per processor transaction.
type CoursePurchase struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentID     string          `json:"payment_id"`
	PaymentSystem PaymentSystem   `json:"payment_system"`
	Status        PurchaseStatus  `json:"status"`
	AccessGranted bool            `json:"access_granted"`
	CreatedAt     int64           `json:"created_at"`
	UpdatedAt     int64           `json:"updated_at"`
}

type Contact struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	Replied   bool   `json:"replied"`
	CreatedAt int64  `json:"created_at"`
}

type NewsletterSubscriber struct {
	Email      string `json:"email"`
	Subscribed bool   `json:"subscribed"`
	CreatedAt  int64  `json:"created_at"`
}

// WebhookEvent is one inbound processor notification as received.
type WebhookEvent struct {
	ID         int64  `json:"id"`
	Provider   string `json:"provider"`
	EventType  string `json:"event_type"`
	PaymentID  string `json:"payment_id"`
	Payload    []byte `json:"payload"`
	Matched    bool   `json:"matched"`
	ReceivedAt int64  `json:"received_at"`
}

// Millis converts t to the millisecond timestamps stored on every record.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// NewSongOrder builds an unsaved order stamped with now.
func NewSongOrder(name, email, phone, songType, description, budget, deadline string, now time.Time) SongOrder {
	ts := Millis(now)
	return SongOrder{
		Name:        name,
		Email:       email,
		Phone:       phone,
		SongType:    songType,
		Description: description,
		Budget:      budget,
		Deadline:    deadline,
		Status:      OrderStatusPending,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// NewCoursePurchase builds an unsaved pending purchase stamped with now.
func NewCoursePurchase(name, email, phone string, amount decimal.Decimal, paymentID string, system PaymentSystem, now time.Time) CoursePurchase {
	ts := Millis(now)
	return CoursePurchase{
		Name:          name,
		Email:         email,
		Phone:         phone,
		Amount:        amount,
		PaymentID:     paymentID,
		PaymentSystem: system,
		Status:        PurchasePending,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
}

// NewContact builds an unsaved, unreplied contact message stamped with now.
func NewContact(name, email, message string, now time.Time) Contact {
	return Contact{
		Name:      name,
		Email:     email,
		Message:   message,
		CreatedAt: Millis(now),
	}
}
