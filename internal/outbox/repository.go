package outbox

import (
	outboxDatamodel "github.com/staybook/payment-service/internal/core/datamodel/outbox"
)

// RepositoryAPI reads and updates outbox rows outside the staging
// transaction. Staging itself goes through Publisher so the append always
// shares the aggregate's transaction.
type RepositoryAPI interface {
	FindPending(limit int) ([]*outboxDatamodel.Event, error)
	FindRetryable(maxRetryCount, limit int) ([]*outboxDatamodel.Event, error)
	Update(event *outboxDatamodel.Event) error
}
