package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	errors "github.com/staybook/payment-service/internal"
)

// ReservationConfirmedEvent is the payload published by the reservation
// service when a booking is confirmed.
type ReservationConfirmedEvent struct {
	ReservationID string    `json:"reservationId"`
	Amount        int64     `json:"amount"`
	CheckInDate   time.Time `json:"checkInDate"`
}

// Consumer feeds confirmed reservations into payment preparation. This is
// the event half of the dual creation path; the HTTP handler is the other.
type Consumer struct {
	service ServiceAPI
	logger  *slog.Logger
}

func NewConsumer(service ServiceAPI, logger *slog.Logger) *Consumer {
	return &Consumer{service: service, logger: logger}
}

// HandleReservationConfirmed processes one reservation.confirmed message.
// Validation failures are logged and dropped: redelivering a malformed
// message can never make it parse. Everything else propagates so the
// offset stays uncommitted and the message is redelivered.
func (c *Consumer) HandleReservationConfirmed(_ context.Context, key, value []byte) error {
	var event ReservationConfirmedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		c.logger.Error("dropping malformed reservation event", "key", string(key), "error", err)
		return nil
	}

	c.logger.Info("processing reservation confirmed",
		"reservation_id", event.ReservationID,
		"amount", event.Amount,
		"check_in_date", event.CheckInDate)

	pay, err := c.service.PreparePayment(event.ReservationID, event.Amount, event.CheckInDate)
	if err != nil {
		if appErr, ok := errors.IsAppError(err); ok && appErr.Type == errors.ErrorTypeValidation {
			c.logger.Error("dropping invalid reservation event",
				"reservation_id", event.ReservationID,
				"error", err)
			return nil
		}
		c.logger.Error("failed to prepare payment from reservation event",
			"reservation_id", event.ReservationID,
			"error", err)
		return err
	}

	c.logger.Info("payment prepared from reservation event",
		"reservation_id", event.ReservationID,
		"payment_id", pay.ID)
	return nil
}
