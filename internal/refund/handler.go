package refund

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	refundDatamodel "github.com/staybook/payment-service/internal/core/datamodel/refund"
	"github.com/staybook/payment-service/internal/transport"
	"github.com/staybook/payment-service/pkg/logger"
)

type ServiceAPI interface {
	RequestRefund(ctx context.Context, paymentID, reason string) (*refundDatamodel.Refund, error)
	GetRefund(refundID string) (*refundDatamodel.Refund, error)
	GetRefundsForPayment(paymentID string) ([]*refundDatamodel.Refund, error)
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

func (h *Handler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	var dto RequestRefundDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RequestRefund: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	ref, err := h.Service.RequestRefund(r.Context(), dto.PaymentID, dto.Reason)
	if err != nil {
		h.Logger.Error("RequestRefund: service error", "error", err, "payment_id", dto.PaymentID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("RequestRefund: refund processed",
		"refund_id", ref.ID,
		"payment_id", ref.PaymentID,
		"refund_amount", ref.RefundAmount.Int64(),
		"status", ref.Status)

	h.WriteJSON(w, http.StatusCreated, ToResponseDTO(ref))
}

func (h *Handler) GetRefund(w http.ResponseWriter, r *http.Request) {
	refundID := chi.URLParam(r, "refundID")
	if refundID == "" {
		h.WriteError(w, http.StatusBadRequest, "refund ID is required")
		return
	}

	ref, err := h.Service.GetRefund(refundID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponseDTO(ref))
}

func (h *Handler) GetRefundsForPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		h.WriteError(w, http.StatusBadRequest, "payment ID is required")
		return
	}

	refunds, err := h.Service.GetRefundsForPayment(paymentID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	out := make([]*RefundResponseDTO, 0, len(refunds))
	for _, ref := range refunds {
		out = append(out, ToResponseDTO(ref))
	}
	h.WriteJSON(w, http.StatusOK, out)
}
