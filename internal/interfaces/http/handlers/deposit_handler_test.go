package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"swap-route.backend/internal/domain/entities"
	domainerrors "swap-route.backend/internal/domain/errors"
	"swap-route.backend/internal/usecases"
)

type depositServiceStub struct {
	requestFn func(ctx context.Context, input usecases.RequestDepositInput) (*usecases.RequestDepositOutput, error)
	getFn     func(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error)
	eventsFn  func(ctx context.Context, id uuid.UUID) ([]*entities.IntentEvent, error)
	listFn    func(ctx context.Context, limit, offset int) ([]*entities.PaymentIntent, int64, error)
	cancelFn  func(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error)
}

func (s depositServiceStub) RequestDeposit(ctx context.Context, input usecases.RequestDepositInput) (*usecases.RequestDepositOutput, error) {
	return s.requestFn(ctx, input)
}
func (s depositServiceStub) GetDeposit(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error) {
	return s.getFn(ctx, id)
}
func (s depositServiceStub) GetDepositEvents(ctx context.Context, id uuid.UUID) ([]*entities.IntentEvent, error) {
	return s.eventsFn(ctx, id)
}
func (s depositServiceStub) ListDeposits(ctx context.Context, limit, offset int) ([]*entities.PaymentIntent, int64, error) {
	return s.listFn(ctx, limit, offset)
}
func (s depositServiceStub) CancelDeposit(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error) {
	return s.cancelFn(ctx, id)
}

func TestDepositHandler_CreateGetListCancelMappings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	intentID := uuid.New()
	deadline := time.Now().Add(time.Hour)

	service := depositServiceStub{
		requestFn: func(_ context.Context, input usecases.RequestDepositInput) (*usecases.RequestDepositOutput, error) {
			if input.Amount == "route-less" {
				return nil, domainerrors.UnprocessableEntity("no route available, direct or via intermediate asset", domainerrors.ErrNoRouteAvailable)
			}
			return &usecases.RequestDepositOutput{
				IntentID:             intentID,
				Status:               string(entities.IntentStatusPendingDeposit),
				DepositAddress:       "0xDeposit",
				MinAmountInFormatted: "12.345679",
				Deadline:             deadline,
			}, nil
		},
		getFn: func(_ context.Context, id uuid.UUID) (*entities.PaymentIntent, error) {
			if id != intentID {
				return nil, domainerrors.NotFound("deposit intent not found")
			}
			return &entities.PaymentIntent{ID: intentID, Status: entities.IntentStatusPendingDeposit}, nil
		},
		eventsFn: func(_ context.Context, id uuid.UUID) ([]*entities.IntentEvent, error) {
			return []*entities.IntentEvent{
				{ID: uuid.New(), IntentID: id, EventType: entities.IntentEventTypeCreated},
			}, nil
		},
		listFn: func(_ context.Context, limit, offset int) ([]*entities.PaymentIntent, int64, error) {
			return []*entities.PaymentIntent{{ID: intentID}}, 1, nil
		},
		cancelFn: func(_ context.Context, id uuid.UUID) (*entities.PaymentIntent, error) {
			if id != intentID {
				return nil, domainerrors.BadRequest("only open intents can be cancelled")
			}
			return &entities.PaymentIntent{ID: intentID, Status: entities.IntentStatusCancelled}, nil
		},
	}

	h := NewDepositHandler(service)
	r := gin.New()
	r.POST("/deposits", h.CreateDeposit)
	r.GET("/deposits", h.ListDeposits)
	r.GET("/deposits/:id", h.GetDeposit)
	r.GET("/deposits/:id/events", h.GetDepositEvents)
	r.POST("/deposits/:id/cancel", h.CancelDeposit)

	// Create success
	body := []byte(`{"originAsset":"eth:1:native","originDecimals":18,"destinationAsset":"sol:mainnet:usdc","destinationDecimals":6,"destinationTokenPrice":"1","amount":"12.3456789","recipientAddress":"recipient","refundAddress":"0xRefund"}`)
	req := httptest.NewRequest(http.MethodPost, "/deposits", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var created usecases.RequestDepositOutput
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.DepositAddress != "0xDeposit" {
		t.Fatalf("unexpected deposit address: %s", created.DepositAddress)
	}

	// Create with missing required fields
	req = httptest.NewRequest(http.MethodPost, "/deposits", bytes.NewReader([]byte(`{"amount":"1"}`)))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}

	// Create with no route anywhere
	body = []byte(`{"originAsset":"eth:1:native","originDecimals":18,"destinationAsset":"nowhere:token","destinationDecimals":6,"destinationTokenPrice":"1","amount":"route-less","recipientAddress":"recipient","refundAddress":"0xRefund"}`)
	req = httptest.NewRequest(http.MethodPost, "/deposits", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", w.Code, w.Body.String())
	}

	// Get success
	req = httptest.NewRequest(http.MethodGet, "/deposits/"+intentID.String(), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	// Get not found mapping
	req = httptest.NewRequest(http.MethodGet, "/deposits/"+uuid.NewString(), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
	}

	// Get with malformed ID
	req = httptest.NewRequest(http.MethodGet, "/deposits/not-a-uuid", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}

	// Events success
	req = httptest.NewRequest(http.MethodGet, "/deposits/"+intentID.String()+"/events", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	// List success
	req = httptest.NewRequest(http.MethodGet, "/deposits?page=1&limit=10", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	// Cancel success
	req = httptest.NewRequest(http.MethodPost, "/deposits/"+intentID.String()+"/cancel", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	// Cancel an already-quoted intent
	req = httptest.NewRequest(http.MethodPost, "/deposits/"+uuid.NewString()+"/cancel", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}
}
