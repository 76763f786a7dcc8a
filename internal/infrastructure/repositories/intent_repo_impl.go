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

// PaymentIntentRepositoryImpl implements PaymentIntentRepository
type PaymentIntentRepositoryImpl struct {
	db *gorm.DB
}

func NewPaymentIntentRepository(db *gorm.DB) *PaymentIntentRepositoryImpl {
	return &PaymentIntentRepositoryImpl{db: db}
}

func (r *PaymentIntentRepositoryImpl) Create(ctx context.Context, intent *entities.PaymentIntent) error {
	m := r.toModel(intent)
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *PaymentIntentRepositoryImpl) Update(ctx context.Context, intent *entities.PaymentIntent) error {
	m := r.toModel(intent)
	m.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Model(&models.PaymentIntent{}).
		Where("id = ?", intent.ID).
		Updates(m).Error
}

func (r *PaymentIntentRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error) {
	var m models.PaymentIntent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *PaymentIntentRepositoryImpl) GetByDepositAddress(ctx context.Context, depositAddress string) (*entities.PaymentIntent, error) {
	var m models.PaymentIntent
	if err := r.db.WithContext(ctx).Where("deposit_address = ?", depositAddress).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *PaymentIntentRepositoryImpl) ListPending(ctx context.Context, retention time.Duration, limit int) ([]*entities.PaymentIntent, error) {
	terminal := []string{
		string(entities.IntentStatusSuccess),
		string(entities.IntentStatusRefunded),
		string(entities.IntentStatusExpired),
		string(entities.IntentStatusCancelled),
		string(entities.IntentStatusOpen), // Nothing to poll before a deposit address exists
	}

	var ms []models.PaymentIntent
	if err := r.db.WithContext(ctx).
		Where("status NOT IN ?", terminal).
		Where("created_at > ?", time.Now().Add(-retention)).
		Order("created_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	var intents []*entities.PaymentIntent
	for _, m := range ms {
		model := m
		intents = append(intents, r.toEntity(&model))
	}
	return intents, nil
}

func (r *PaymentIntentRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*entities.PaymentIntent, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.PaymentIntent{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.PaymentIntent
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	var intents []*entities.PaymentIntent
	for _, m := range ms {
		model := m
		intents = append(intents, r.toEntity(&model))
	}
	return intents, total, nil
}

func (r *PaymentIntentRepositoryImpl) toModel(e *entities.PaymentIntent) *models.PaymentIntent {
	return &models.PaymentIntent{
		ID:                   e.ID,
		OriginAsset:          e.OriginAsset,
		DestinationAsset:     e.DestinationAsset,
		RequestedAmount:      e.RequestedAmount,
		DestinationAmount:    e.DestinationAmount,
		RecipientAddress:     e.RecipientAddress,
		RefundAddress:        e.RefundAddress,
		Status:               string(e.Status),
		DepositAddress:       e.DepositAddress.Ptr(),
		Memo:                 e.Memo.Ptr(),
		QuoteID:              e.QuoteID.Ptr(),
		Deadline:             e.Deadline,
		MinAmountIn:          e.MinAmountIn.Ptr(),
		MinAmountInFormatted: e.MinAmountInFormatted.Ptr(),
		LastStatusPayload:    e.LastStatusPayload.Ptr(),
		PaidAt:               e.PaidAt,
	}
}

func (r *PaymentIntentRepositoryImpl) toEntity(m *models.PaymentIntent) *entities.PaymentIntent {
	return &entities.PaymentIntent{
		ID:                   m.ID,
		OriginAsset:          m.OriginAsset,
		DestinationAsset:     m.DestinationAsset,
		RequestedAmount:      m.RequestedAmount,
		DestinationAmount:    m.DestinationAmount,
		RecipientAddress:     m.RecipientAddress,
		RefundAddress:        m.RefundAddress,
		Status:               entities.IntentStatus(m.Status),
		DepositAddress:       null.StringFromPtr(m.DepositAddress),
		Memo:                 null.StringFromPtr(m.Memo),
		QuoteID:              null.StringFromPtr(m.QuoteID),
		Deadline:             m.Deadline,
		MinAmountIn:          null.StringFromPtr(m.MinAmountIn),
		MinAmountInFormatted: null.StringFromPtr(m.MinAmountInFormatted),
		LastStatusPayload:    null.StringFromPtr(m.LastStatusPayload),
		PaidAt:               m.PaidAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
