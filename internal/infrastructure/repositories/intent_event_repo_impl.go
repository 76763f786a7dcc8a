package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"swap-route.backend/internal/domain/entities"
	"swap-route.backend/internal/infrastructure/models"
)

// IntentEventRepositoryImpl implements intent event data operations
type IntentEventRepositoryImpl struct {
	db *gorm.DB
}

// NewIntentEventRepository creates a new intent event repository
func NewIntentEventRepository(db *gorm.DB) *IntentEventRepositoryImpl {
	return &IntentEventRepositoryImpl{db: db}
}

// Create appends a transition event
func (r *IntentEventRepositoryImpl) Create(ctx context.Context, event *entities.IntentEvent) error {
	meta := event.Metadata
	if meta == "" {
		meta = "{}"
	}

	m := &models.IntentEvent{
		ID:        event.ID,
		IntentID:  event.IntentID,
		EventType: string(event.EventType),
		Metadata:  meta,
		CreatedAt: event.CreatedAt,
	}

	return r.db.WithContext(ctx).Create(m).Error
}

// GetByIntentID gets events for an intent, oldest first
func (r *IntentEventRepositoryImpl) GetByIntentID(ctx context.Context, intentID uuid.UUID) ([]*entities.IntentEvent, error) {
	var ms []models.IntentEvent
	if err := r.db.WithContext(ctx).
		Where("intent_id = ?", intentID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	var events []*entities.IntentEvent
	for _, m := range ms {
		events = append(events, &entities.IntentEvent{
			ID:        m.ID,
			IntentID:  m.IntentID,
			EventType: entities.IntentEventType(m.EventType),
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt,
		})
	}

	return events, nil
}
