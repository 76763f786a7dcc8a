package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"swap-route.backend/internal/domain/entities"
	"swap-route.backend/pkg/utils"
)

func TestIntentEventRepository_CreateAndList(t *testing.T) {
	db := newTestDB(t)
	createIntentEventTable(t, db)
	repo := NewIntentEventRepository(db)
	ctx := context.Background()

	intentID := utils.GenerateUUIDv7()
	base := time.Now().Add(-time.Minute)

	created := &entities.IntentEvent{
		ID:        utils.GenerateUUIDv7(),
		IntentID:  intentID,
		EventType: entities.IntentEventTypeCreated,
		CreatedAt: base,
	}
	issued := &entities.IntentEvent{
		ID:        utils.GenerateUUIDv7(),
		IntentID:  intentID,
		EventType: entities.IntentEventTypeDepositIssued,
		Metadata:  `{"depositAddress":"0xDeposit"}`,
		CreatedAt: base.Add(time.Second),
	}
	other := &entities.IntentEvent{
		ID:        utils.GenerateUUIDv7(),
		IntentID:  utils.GenerateUUIDv7(),
		EventType: entities.IntentEventTypeCreated,
		CreatedAt: base,
	}

	require.NoError(t, repo.Create(ctx, created))
	require.NoError(t, repo.Create(ctx, issued))
	require.NoError(t, repo.Create(ctx, other))

	events, err := repo.GetByIntentID(ctx, intentID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Oldest first.
	require.Equal(t, entities.IntentEventTypeCreated, events[0].EventType)
	require.Equal(t, entities.IntentEventTypeDepositIssued, events[1].EventType)
	require.Equal(t, `{"depositAddress":"0xDeposit"}`, events[1].Metadata)
	// Empty metadata is normalized to an empty JSON object.
	require.Equal(t, "{}", events[0].Metadata)
}

func TestIntentEventRepository_EmptyList(t *testing.T) {
	db := newTestDB(t)
	createIntentEventTable(t, db)
	repo := NewIntentEventRepository(db)

	events, err := repo.GetByIntentID(context.Background(), utils.GenerateUUIDv7())
	require.NoError(t, err)
	require.Empty(t, events)
}
