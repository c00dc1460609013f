package outbox

import (
	"time"

	errors "github.com/staybook/payment-service/internal"
)

type EventType string

const (
	EventTypePaymentCompleted EventType = "PAYMENT_COMPLETED"
	EventTypePaymentCancelled EventType = "PAYMENT_CANCELLED"
	EventTypeRefundCompleted  EventType = "REFUND_COMPLETED"
)

type EventStatus string

const (
	StatusPending   EventStatus = "PENDING"
	StatusPublished EventStatus = "PUBLISHED"
	StatusFailed    EventStatus = "FAILED"
)

// Topics maps every event type to its broker destination. Dispatch fails an
// event whose type is missing here rather than guessing a topic.
var Topics = map[EventType]string{
	EventTypePaymentCompleted: "payment.completed",
	EventTypePaymentCancelled: "payment.cancelled",
	EventTypeRefundCompleted:  "refund.completed",
}

// Event is a durable record of a domain event pending delivery. A row only
// ever exists alongside the committed aggregate mutation it reports.
type Event struct {
	ID           int64       `json:"event_id" gorm:"column:event_id;primaryKey"`
	AggregateID  string      `json:"aggregate_id" gorm:"column:aggregate_id;size:50;not null"`
	EventType    EventType   `json:"event_type" gorm:"column:event_type;size:50;not null"`
	Payload      string      `json:"payload" gorm:"column:payload;type:text;not null"`
	Status       EventStatus `json:"status" gorm:"column:status;size:20;not null"`
	CreatedAt    time.Time   `json:"created_at" gorm:"column:created_at;not null"`
	PublishedAt  *time.Time  `json:"published_at,omitempty" gorm:"column:published_at"`
	RetryCount   int         `json:"retry_count" gorm:"column:retry_count;not null;default:0"`
	ErrorMessage string      `json:"error_message,omitempty" gorm:"column:error_message;type:text"`
}

func (Event) TableName() string {
	return "outbox_events"
}

// NewEvent builds a PENDING event. The id comes from the generator used by
// the publisher, so the value is time-ordered like every other id here.
func NewEvent(id int64, aggregateID string, eventType EventType, payload string) (*Event, error) {
	if aggregateID == "" {
		return nil, errors.NewValidationFieldError("aggregate_id", "aggregate_id is required", errors.ErrCodeValidationFailed)
	}
	if _, ok := Topics[eventType]; !ok {
		return nil, errors.NewValidationFieldError("event_type", "unknown event type: "+string(eventType), errors.ErrCodeValidationFailed)
	}
	if payload == "" {
		return nil, errors.NewValidationFieldError("payload", "payload is required", errors.ErrCodeValidationFailed)
	}

	return &Event{
		ID:          id,
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     payload,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}, nil
}

// Topic returns the broker destination for this event.
func (e *Event) Topic() (string, error) {
	topic, ok := Topics[e.EventType]
	if !ok {
		return "", errors.NewInternalError("no topic mapped for event type "+string(e.EventType), nil)
	}
	return topic, nil
}

// MarkPublished makes the event terminal and stamps published_at.
func (e *Event) MarkPublished() error {
	if e.Status == StatusPublished {
		return errors.NewStateConflictError("event already published", errors.ErrCodeInvalidEventStatus)
	}

	now := time.Now()
	e.Status = StatusPublished
	e.PublishedAt = &now
	return nil
}

// MarkFailed stores the delivery error and counts the attempt.
func (e *Event) MarkFailed(errorMessage string) error {
	if errorMessage == "" {
		return errors.NewValidationFieldError("error_message", "error_message is required", errors.ErrCodeValidationFailed)
	}

	e.Status = StatusFailed
	e.ErrorMessage = errorMessage
	e.RetryCount++
	return nil
}

// ResetForRetry puts a failed event back to PENDING. The retry count is
// kept so the ceiling still applies; only the error message is cleared.
func (e *Event) ResetForRetry() error {
	if e.Status == StatusPublished {
		return errors.NewStateConflictError("a published event cannot be retried", errors.ErrCodeInvalidEventStatus)
	}

	e.Status = StatusPending
	e.ErrorMessage = ""
	return nil
}

// CanRetry reports whether the event is FAILED and under the retry ceiling.
func (e *Event) CanRetry(maxRetryCount int) bool {
	return e.Status == StatusFailed && e.RetryCount < maxRetryCount
}
