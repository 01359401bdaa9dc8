package store

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// GORM models used for persistence. Timestamps are unix milliseconds and are
// always set by the caller.
type SongOrderModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"not null"`
	Email       string `gorm:"not null"`
	Phone       string
	SongType    string `gorm:"not null"`
	Description string `gorm:"type:text;not null"`
	Budget      string
	Deadline    string
	Status      string `gorm:"not null;default:pending;index"`
	CreatedAt   int64  `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt   int64  `gorm:"not null;autoUpdateTime:false"`
}

func (SongOrderModel) TableName() string { return "song_orders" }

type CoursePurchaseModel struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	Name          string          `gorm:"not null"`
	Email         string          `gorm:"not null;index"`
	Phone         string
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentID     string          `gorm:"uniqueIndex;not null"`
	PaymentSystem string          `gorm:"not null"`
	Status        string          `gorm:"not null;default:pending"`
	AccessGranted bool            `gorm:"not null;default:false"`
	CreatedAt     int64           `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt     int64           `gorm:"not null;autoUpdateTime:false"`
}

func (CoursePurchaseModel) TableName() string { return "course_purchases" }

type ContactModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"not null"`
	Message   string `gorm:"type:text;not null"`
	Replied   bool   `gorm:"not null;default:false;index"`
	CreatedAt int64  `gorm:"not null;index;autoCreateTime:false"`
}

func (ContactModel) TableName() string { return "contact_submissions" }

type NewsletterSubscriberModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Email      string `gorm:"uniqueIndex;not null"`
	Subscribed bool   `gorm:"not null"`
	CreatedAt  int64  `gorm:"not null;autoCreateTime:false"`
}

func (NewsletterSubscriberModel) TableName() string { return "newsletter_subscribers" }

type WebhookEventModel struct {
	ID         int64          `gorm:"primaryKey;autoIncrement"`
	Provider   string         `gorm:"not null;index"`
	EventType  string         `gorm:"not null"`
	PaymentID  string         `gorm:"not null;index"`
	Payload    datatypes.JSON `gorm:"not null"`
	Matched    bool           `gorm:"not null;default:false"`
	ReceivedAt int64          `gorm:"not null;index"`
}

func (WebhookEventModel) TableName() string { return "webhook_events" }
