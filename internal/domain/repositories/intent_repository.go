package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"swap-route.backend/internal/domain/entities"
)

// PaymentIntentRepository interface
type PaymentIntentRepository interface {
	Create(ctx context.Context, intent *entities.PaymentIntent) error
	Update(ctx context.Context, intent *entities.PaymentIntent) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error)
	GetByDepositAddress(ctx context.Context, depositAddress string) (*entities.PaymentIntent, error)
	// ListPending returns non-terminal intents with a deposit address, created
	// within the retention window, up to limit.
	ListPending(ctx context.Context, retention time.Duration, limit int) ([]*entities.PaymentIntent, error)
	List(ctx context.Context, limit, offset int) ([]*entities.PaymentIntent, int64, error)
}

// IntentEventRepository interface
type IntentEventRepository interface {
	Create(ctx context.Context, event *entities.IntentEvent) error
	GetByIntentID(ctx context.Context, intentID uuid.UUID) ([]*entities.IntentEvent, error)
}
