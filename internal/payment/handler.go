package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	paymentDatamodel "github.com/staybook/payment-service/internal/core/datamodel/payment"
	"github.com/staybook/payment-service/internal/transport"
	"github.com/staybook/payment-service/pkg/logger"
)

type ServiceAPI interface {
	PreparePayment(reservationID string, amount int64, checkInDate time.Time) (*paymentDatamodel.Payment, error)
	ConfirmPayment(ctx context.Context, paymentID, orderID, paymentKey string, amount int64) (*paymentDatamodel.Payment, error)
	CancelPayment(ctx context.Context, paymentID, reason string) (*paymentDatamodel.Payment, error)
	GetPayment(paymentID string) (*paymentDatamodel.Payment, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.Default()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) PreparePayment(w http.ResponseWriter, r *http.Request) {
	var dto PrepareRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("PreparePayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	pay, err := h.Service.PreparePayment(dto.ReservationID, dto.Amount, dto.CheckInDate)
	if err != nil {
		h.Logger.Error("PreparePayment: service error", "error", err, "reservation_id", dto.ReservationID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("PreparePayment: payment ready",
		"payment_id", pay.ID,
		"reservation_id", pay.ReservationID,
		"status", pay.Status)

	h.WriteJSON(w, http.StatusCreated, ToResponseDTO(pay))
}

func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var dto ConfirmRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("ConfirmPayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	pay, err := h.Service.ConfirmPayment(r.Context(), dto.PaymentID, dto.OrderID, dto.PaymentKey, dto.Amount)
	if err != nil {
		h.Logger.Error("ConfirmPayment: service error", "error", err, "payment_id", dto.PaymentID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponseDTO(pay))
}

func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	var dto CancelRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CancelPayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	pay, err := h.Service.CancelPayment(r.Context(), paymentID, dto.Reason)
	if err != nil {
		h.Logger.Error("CancelPayment: service error", "error", err, "payment_id", paymentID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponseDTO(pay))
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		h.WriteError(w, http.StatusBadRequest, "payment ID is required")
		return
	}

	pay, err := h.Service.GetPayment(paymentID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponseDTO(pay))
}
