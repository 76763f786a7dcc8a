package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"swap-route.backend/internal/domain/entities"
	domainerrors "swap-route.backend/internal/domain/errors"
	"swap-route.backend/internal/interfaces/http/response"
	"swap-route.backend/internal/usecases"
	"swap-route.backend/pkg/utils"
)

// DepositService is the deposit usecase surface the handler consumes
type DepositService interface {
	RequestDeposit(ctx context.Context, input usecases.RequestDepositInput) (*usecases.RequestDepositOutput, error)
	GetDeposit(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error)
	GetDepositEvents(ctx context.Context, id uuid.UUID) ([]*entities.IntentEvent, error)
	ListDeposits(ctx context.Context, limit, offset int) ([]*entities.PaymentIntent, int64, error)
	CancelDeposit(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error)
}

type DepositHandler struct {
	usecase DepositService
}

func NewDepositHandler(usecase DepositService) *DepositHandler {
	return &DepositHandler{usecase: usecase}
}

type CreateDepositRequest struct {
	OriginAsset           string `json:"originAsset" binding:"required"`
	OriginDecimals        int    `json:"originDecimals" binding:"required"`
	DestinationAsset      string `json:"destinationAsset" binding:"required"`
	DestinationDecimals   int    `json:"destinationDecimals" binding:"required"`
	DestinationTokenPrice string `json:"destinationTokenPrice" binding:"required"`
	Amount                string `json:"amount" binding:"required"`
	RecipientAddress      string `json:"recipientAddress" binding:"required"`
	RefundAddress         string `json:"refundAddress"`
}

// CreateDeposit requests a deposit address for a cross-chain payment
// POST /api/v1/deposits
func (h *DepositHandler) CreateDeposit(c *gin.Context) {
	var req CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.usecase.RequestDeposit(c.Request.Context(), usecases.RequestDepositInput{
		OriginAsset:           req.OriginAsset,
		OriginDecimals:        req.OriginDecimals,
		DestinationAsset:      req.DestinationAsset,
		DestinationDecimals:   req.DestinationDecimals,
		DestinationTokenPrice: req.DestinationTokenPrice,
		Amount:                req.Amount,
		RecipientAddress:      req.RecipientAddress,
		RefundAddress:         req.RefundAddress,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetDeposit gets a deposit intent by ID
// GET /api/v1/deposits/:id
func (h *DepositHandler) GetDeposit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid deposit ID"))
		return
	}

	intent, err := h.usecase.GetDeposit(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, intent)
}

// GetDepositEvents returns the transition log for a deposit intent
// GET /api/v1/deposits/:id/events
func (h *DepositHandler) GetDepositEvents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid deposit ID"))
		return
	}

	events, err := h.usecase.GetDepositEvents(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"events": events})
}

// ListDeposits lists deposit intents, newest first
// GET /api/v1/deposits
func (h *DepositHandler) ListDeposits(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	params := utils.GetPaginationParams(page, limit)

	intents, total, err := h.usecase.ListDeposits(c.Request.Context(), params.Limit, params.CalculateOffset())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"deposits":   intents,
		"pagination": utils.CalculateMeta(total, params.Page, params.Limit),
	})
}

// CancelDeposit cancels an intent that has not been quoted yet
// POST /api/v1/deposits/:id/cancel
func (h *DepositHandler) CancelDeposit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid deposit ID"))
		return
	}

	intent, err := h.usecase.CancelDeposit(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, intent)
}
