package postgres

import (
	"gorm.io/gorm"

	outboxDatamodel "github.com/staybook/payment-service/internal/core/datamodel/outbox"
	"github.com/staybook/payment-service/internal/outbox"
)

// OutboxRepository implements the outbox.RepositoryAPI interface using GORM
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) outbox.RepositoryAPI {
	return &OutboxRepository{db: db}
}

// FindPending returns the oldest PENDING events, in creation order so
// downstream consumers see events roughly as they happened.
func (r *OutboxRepository) FindPending(limit int) ([]*outboxDatamodel.Event, error) {
	var events []*outboxDatamodel.Event
	err := r.db.Where("status = ?", outboxDatamodel.StatusPending).
		Order("event_id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// FindRetryable returns FAILED events still under the retry ceiling.
func (r *OutboxRepository) FindRetryable(maxRetryCount, limit int) ([]*outboxDatamodel.Event, error) {
	var events []*outboxDatamodel.Event
	err := r.db.Where("status = ? AND retry_count < ?", outboxDatamodel.StatusFailed, maxRetryCount).
		Order("event_id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *OutboxRepository) Update(event *outboxDatamodel.Event) error {
	return r.db.Save(event).Error
}
