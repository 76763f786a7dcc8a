package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"swap-route.backend/internal/domain/entities"
)

// CompanionPlanRepository interface
type CompanionPlanRepository interface {
	Create(ctx context.Context, plan *entities.CompanionPlan) error
	Update(ctx context.Context, plan *entities.CompanionPlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.CompanionPlan, error)
	GetByClaimID(ctx context.Context, claimID uuid.UUID) (*entities.CompanionPlan, error)
	// ListPending returns non-terminal plans created within the retention window.
	ListPending(ctx context.Context, retention time.Duration, limit int) ([]*entities.CompanionPlan, error)
}
