package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentIntent struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	OriginAsset          string    `gorm:"type:varchar(100);not null"`
	DestinationAsset     string    `gorm:"type:varchar(100);not null"`
	RequestedAmount      string    `gorm:"type:decimal(36,18);not null"`
	DestinationAmount    string    `gorm:"type:varchar(100)"` // BigInt
	RecipientAddress     string    `gorm:"type:varchar(255);not null"`
	RefundAddress        string    `gorm:"type:varchar(255);not null"`
	Status               string    `gorm:"type:varchar(50);not null;index"`
	DepositAddress       *string   `gorm:"type:varchar(255);uniqueIndex"` // Sole correlation key with the network
	Memo                 *string   `gorm:"type:varchar(255)"`
	QuoteID              *string   `gorm:"type:varchar(255);index"`
	Deadline             *time.Time
	MinAmountIn          *string `gorm:"type:varchar(100)"`
	MinAmountInFormatted *string `gorm:"type:varchar(100)"`
	LastStatusPayload    *string `gorm:"type:text"`
	PaidAt               *time.Time
	CreatedAt            time.Time `gorm:"index"`
	UpdatedAt            time.Time
	DeletedAt            gorm.DeletedAt `gorm:"index"`
}

func (PaymentIntent) TableName() string {
	return "payment_intents"
}

type IntentEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	IntentID  uuid.UUID `gorm:"type:uuid;not null;index"`
	EventType string    `gorm:"type:varchar(50);not null;index"`
	Metadata  string    `gorm:"type:jsonb;default:'{}'"`
	CreatedAt time.Time

	Intent PaymentIntent `gorm:"foreignKey:IntentID"`
}

func (IntentEvent) TableName() string {
	return "intent_events"
}
