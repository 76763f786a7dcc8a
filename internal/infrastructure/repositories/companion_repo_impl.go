package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"swap-route.backend/internal/domain/entities"
	domainerrors "swap-route.backend/internal/domain/errors"
	"swap-route.backend/internal/infrastructure/models"
)

// CompanionPlanRepositoryImpl implements CompanionPlanRepository
type CompanionPlanRepositoryImpl struct {
	db *gorm.DB
}

func NewCompanionPlanRepository(db *gorm.DB) *CompanionPlanRepositoryImpl {
	return &CompanionPlanRepositoryImpl{db: db}
}

func (r *CompanionPlanRepositoryImpl) Create(ctx context.Context, plan *entities.CompanionPlan) error {
	m := r.toModel(plan)
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *CompanionPlanRepositoryImpl) Update(ctx context.Context, plan *entities.CompanionPlan) error {
	m := r.toModel(plan)
	m.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Model(&models.CompanionPlan{}).
		Where("id = ?", plan.ID).
		Updates(m).Error
}

func (r *CompanionPlanRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.CompanionPlan, error) {
	var m models.CompanionPlan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *CompanionPlanRepositoryImpl) GetByClaimID(ctx context.Context, claimID uuid.UUID) (*entities.CompanionPlan, error) {
	var m models.CompanionPlan
	if err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *CompanionPlanRepositoryImpl) ListPending(ctx context.Context, retention time.Duration, limit int) ([]*entities.CompanionPlan, error) {
	terminal := []string{
		string(entities.CompanionStatusCompleted),
		string(entities.CompanionStatusFailed),
	}

	var ms []models.CompanionPlan
	if err := r.db.WithContext(ctx).
		Where("status NOT IN ?", terminal).
		Where("created_at > ?", time.Now().Add(-retention)).
		Order("created_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	var plans []*entities.CompanionPlan
	for _, m := range ms {
		model := m
		plans = append(plans, r.toEntity(&model))
	}
	return plans, nil
}

func (r *CompanionPlanRepositoryImpl) toModel(e *entities.CompanionPlan) *models.CompanionPlan {
	return &models.CompanionPlan{
		ID:                     e.ID,
		ClaimID:                e.ClaimID,
		FinalRecipient:         e.FinalRecipient,
		FinalDestinationAsset:  e.FinalDestinationAsset,
		FinalDestinationAmount: e.FinalDestinationAmount,
		IntermediateAsset:      e.IntermediateAsset,
		SecondHopAmountIn:      e.SecondHopAmountIn,
		RefundAddress:          e.RefundAddress,
		EphemeralAddress:       e.EphemeralAddress,
		FirstHopDepositAddress: e.FirstHopDepositAddress,
		FirstHopQuoteID:        e.FirstHopQuoteID,
		FirstHopDeadline:       e.FirstHopDeadline,
		SecondHopDepositAddr:   e.SecondHopDepositAddr.Ptr(),
		SecondHopQuoteID:       e.SecondHopQuoteID.Ptr(),
		SecondHopMinAmountIn:   e.SecondHopMinAmountIn.Ptr(),
		SecondHopDeadline:      e.SecondHopDeadline,
		SecondHopTxHash:        e.SecondHopTxHash.Ptr(),
		RefundTxHash:           e.RefundTxHash.Ptr(),
		FailureReason:          e.FailureReason.Ptr(),
		Status:                 string(e.Status),
	}
}

func (r *CompanionPlanRepositoryImpl) toEntity(m *models.CompanionPlan) *entities.CompanionPlan {
	return &entities.CompanionPlan{
		ID:                     m.ID,
		ClaimID:                m.ClaimID,
		FinalRecipient:         m.FinalRecipient,
		FinalDestinationAsset:  m.FinalDestinationAsset,
		FinalDestinationAmount: m.FinalDestinationAmount,
		IntermediateAsset:      m.IntermediateAsset,
		SecondHopAmountIn:      m.SecondHopAmountIn,
		RefundAddress:          m.RefundAddress,
		EphemeralAddress:       m.EphemeralAddress,
		FirstHopDepositAddress: m.FirstHopDepositAddress,
		FirstHopQuoteID:        m.FirstHopQuoteID,
		FirstHopDeadline:       m.FirstHopDeadline,
		SecondHopDepositAddr:   null.StringFromPtr(m.SecondHopDepositAddr),
		SecondHopQuoteID:       null.StringFromPtr(m.SecondHopQuoteID),
		SecondHopMinAmountIn:   null.StringFromPtr(m.SecondHopMinAmountIn),
		SecondHopDeadline:      m.SecondHopDeadline,
		SecondHopTxHash:        null.StringFromPtr(m.SecondHopTxHash),
		RefundTxHash:           null.StringFromPtr(m.RefundTxHash),
		FailureReason:          null.StringFromPtr(m.FailureReason),
		Status:                 entities.CompanionStatus(m.Status),
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}
