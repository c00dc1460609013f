package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	outboxDatamodel "github.com/staybook/payment-service/internal/core/datamodel/outbox"
	"github.com/staybook/payment-service/internal/lease"
)

type memoryEventRepo struct {
	mu     sync.Mutex
	events map[int64]*outboxDatamodel.Event
}

func newMemoryEventRepo(events ...*outboxDatamodel.Event) *memoryEventRepo {
	repo := &memoryEventRepo{events: make(map[int64]*outboxDatamodel.Event)}
	for _, e := range events {
		repo.events[e.ID] = e
	}
	return repo
}

func (r *memoryEventRepo) FindPending(limit int) ([]*outboxDatamodel.Event, error) {
	return r.find(func(e *outboxDatamodel.Event) bool {
		return e.Status == outboxDatamodel.StatusPending
	}, limit), nil
}

func (r *memoryEventRepo) FindRetryable(maxRetryCount, limit int) ([]*outboxDatamodel.Event, error) {
	return r.find(func(e *outboxDatamodel.Event) bool {
		return e.Status == outboxDatamodel.StatusFailed && e.RetryCount < maxRetryCount
	}, limit), nil
}

func (r *memoryEventRepo) Update(event *outboxDatamodel.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *memoryEventRepo) find(match func(*outboxDatamodel.Event) bool, limit int) []*outboxDatamodel.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*outboxDatamodel.Event
	for id := int64(0); id < 1000 && len(out) < limit; id++ {
		if e, ok := r.events[id]; ok && match(e) {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out
}

func (r *memoryEventRepo) get(id int64) *outboxDatamodel.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[id]
}

type recordedMessage struct {
	Topic string
	Key   string
	Value []byte
}

type stubProducer struct {
	mu        sync.Mutex
	published []recordedMessage
	err       error
}

func (p *stubProducer) Publish(_ context.Context, topic, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, recordedMessage{Topic: topic, Key: key, Value: value})
	return nil
}

func (p *stubProducer) PublishAsync(ctx context.Context, topic, key string, value []byte, done func(error)) {
	done(p.Publish(ctx, topic, key, value))
}

func (p *stubProducer) Close() error { return nil }

func (p *stubProducer) messages() []recordedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedMessage(nil), p.published...)
}

type stubLocker struct {
	held bool
}

func (l *stubLocker) Acquire(name string, maxHold, minHold time.Duration) (*lease.Lease, bool) {
	if l.held {
		return nil, false
	}
	return &lease.Lease{Name: name}, true
}

func (l *stubLocker) Release(*lease.Lease) {}

var _ = Describe("Dispatcher", func() {
	var (
		repo     *memoryEventRepo
		producer *stubProducer
		locker   *stubLocker
	)

	newDispatcher := func() *Dispatcher {
		return NewDispatcher(repo, producer, locker, DefaultDispatcherConfig(), slog.Default())
	}

	pendingEvent := func(id int64) *outboxDatamodel.Event {
		event, err := outboxDatamodel.NewEvent(id, "PAY-1", outboxDatamodel.EventTypePaymentCompleted, `{"payment_id":"PAY-1"}`)
		Expect(err).NotTo(HaveOccurred())
		return event
	}

	BeforeEach(func() {
		producer = &stubProducer{}
		locker = &stubLocker{}
	})

	Describe("DispatchPending", func() {
		It("publishes pending events and marks them published", func() {
			repo = newMemoryEventRepo(pendingEvent(1), pendingEvent(2))

			newDispatcher().DispatchPending(context.Background())

			msgs := producer.messages()
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Topic).To(Equal("payment.completed"))
			Expect(msgs[0].Key).To(Equal("PAY-1"))

			Expect(repo.get(1).Status).To(Equal(outboxDatamodel.StatusPublished))
			Expect(repo.get(2).Status).To(Equal(outboxDatamodel.StatusPublished))
			Expect(repo.get(1).PublishedAt).NotTo(BeNil())
		})

		It("marks events failed when the broker rejects them", func() {
			repo = newMemoryEventRepo(pendingEvent(1))
			producer.err = context.DeadlineExceeded

			newDispatcher().DispatchPending(context.Background())

			stored := repo.get(1)
			Expect(stored.Status).To(Equal(outboxDatamodel.StatusFailed))
			Expect(stored.RetryCount).To(Equal(1))
			Expect(stored.ErrorMessage).NotTo(BeEmpty())
		})

		It("does nothing when another replica holds the lease", func() {
			repo = newMemoryEventRepo(pendingEvent(1))
			locker.held = true

			newDispatcher().DispatchPending(context.Background())

			Expect(producer.messages()).To(BeEmpty())
			Expect(repo.get(1).Status).To(Equal(outboxDatamodel.StatusPending))
		})
	})

	Describe("RetryFailed", func() {
		failedEvent := func(id int64, retryCount int) *outboxDatamodel.Event {
			event := pendingEvent(id)
			Expect(event.MarkFailed("broker unavailable")).To(Succeed())
			event.RetryCount = retryCount
			return event
		}

		It("republishes failed events under the ceiling", func() {
			repo = newMemoryEventRepo(failedEvent(1, 2))

			newDispatcher().RetryFailed(context.Background())

			Expect(producer.messages()).To(HaveLen(1))

			stored := repo.get(1)
			Expect(stored.Status).To(Equal(outboxDatamodel.StatusPublished))
			Expect(stored.RetryCount).To(Equal(2))
		})

		It("leaves events at the retry ceiling untouched", func() {
			repo = newMemoryEventRepo(failedEvent(1, 5))

			newDispatcher().RetryFailed(context.Background())

			Expect(producer.messages()).To(BeEmpty())
			Expect(repo.get(1).Status).To(Equal(outboxDatamodel.StatusFailed))
		})

		It("counts a failed retry attempt", func() {
			repo = newMemoryEventRepo(failedEvent(1, 4))
			producer.err = context.DeadlineExceeded

			newDispatcher().RetryFailed(context.Background())

			stored := repo.get(1)
			Expect(stored.Status).To(Equal(outboxDatamodel.StatusFailed))
			Expect(stored.RetryCount).To(Equal(5))
		})
	})
})
