package outbox

import (
	"encoding/json"
	"log/slog"

	"gorm.io/gorm"

	errors "github.com/staybook/payment-service/internal"
	outboxDatamodel "github.com/staybook/payment-service/internal/core/datamodel/outbox"
	paymentDatamodel "github.com/staybook/payment-service/internal/core/datamodel/payment"
	refundDatamodel "github.com/staybook/payment-service/internal/core/datamodel/refund"
	"github.com/staybook/payment-service/internal/core/idgen"
)

// Publisher stages outbox rows. Every Stage call must receive the open
// transaction that mutates the aggregate; a bare session is rejected so an
// event can never outlive a rolled-back state change.
type Publisher struct {
	idGen  idgen.Generator
	logger *slog.Logger
}

func NewPublisher(idGen idgen.Generator, logger *slog.Logger) *Publisher {
	return &Publisher{idGen: idGen, logger: logger}
}

func (p *Publisher) StagePaymentCompleted(tx *gorm.DB, pay *paymentDatamodel.Payment) error {
	return p.stage(tx, pay.ID, outboxDatamodel.EventTypePaymentCompleted,
		outboxDatamodel.NewPaymentCompletedPayload(pay))
}

func (p *Publisher) StagePaymentCancelled(tx *gorm.DB, pay *paymentDatamodel.Payment) error {
	return p.stage(tx, pay.ID, outboxDatamodel.EventTypePaymentCancelled,
		outboxDatamodel.NewPaymentCancelledPayload(pay))
}

// StageRefundCompleted keys the event by the payment id so refund and
// payment events for one booking land on the same partition in order.
func (p *Publisher) StageRefundCompleted(tx *gorm.DB, ref *refundDatamodel.Refund) error {
	return p.stage(tx, ref.PaymentID, outboxDatamodel.EventTypeRefundCompleted,
		outboxDatamodel.NewRefundCompletedPayload(ref))
}

func (p *Publisher) stage(tx *gorm.DB, aggregateID string, eventType outboxDatamodel.EventType, payload interface{}) error {
	if tx == nil {
		return errors.ErrNoTransaction
	}
	if _, ok := tx.Statement.ConnPool.(gorm.TxCommitter); !ok {
		return errors.ErrNoTransaction
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewInternalError("failed to marshal event payload", err)
	}

	event, err := outboxDatamodel.NewEvent(p.idGen.NextID(), aggregateID, eventType, string(body))
	if err != nil {
		return err
	}

	if err := tx.Create(event).Error; err != nil {
		p.logger.Error("failed to stage outbox event",
			"aggregate_id", aggregateID,
			"event_type", eventType,
			"error", err)
		return errors.NewInternalError("failed to stage outbox event", err)
	}

	p.logger.Debug("staged outbox event",
		"event_id", event.ID,
		"aggregate_id", aggregateID,
		"event_type", eventType)
	return nil
}
