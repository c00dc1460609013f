package payment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/staybook/payment-service/internal"
	paymentDatamodel "github.com/staybook/payment-service/internal/core/datamodel/payment"
	"github.com/staybook/payment-service/internal/core/money"
)

var _ = Describe("Reservation Consumer", func() {
	var (
		service  *stubServiceAPI
		consumer *Consumer
	)

	BeforeEach(func() {
		service = &stubServiceAPI{}
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		consumer = NewConsumer(service, slogger)
	})

	It("prepares a payment from a confirmed reservation", func() {
		service.prepareResult = &paymentDatamodel.Payment{
			ID:            "PAY-1",
			ReservationID: "RES-1",
			Amount:        money.MustNew(150000),
			Status:        paymentDatamodel.StatusPrepared,
		}

		value := fmt.Sprintf(`{"reservationId":"RES-1","amount":150000,"checkInDate":%q}`,
			time.Now().Add(240*time.Hour).Format(time.RFC3339))

		err := consumer.HandleReservationConfirmed(context.Background(), []byte("RES-1"), []byte(value))
		Expect(err).NotTo(HaveOccurred())
		Expect(service.lastReservationID).To(Equal("RES-1"))
	})

	It("drops malformed payloads without error so the offset commits", func() {
		err := consumer.HandleReservationConfirmed(context.Background(), []byte("RES-1"), []byte("{not json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(service.lastReservationID).To(BeEmpty())
	})

	It("drops events that fail validation", func() {
		service.prepareErr = errors.NewValidationFieldError("amount", "amount must be positive", errors.ErrCodeInvalidAmount)

		value := fmt.Sprintf(`{"reservationId":"RES-1","amount":-5,"checkInDate":%q}`,
			time.Now().Add(240*time.Hour).Format(time.RFC3339))

		err := consumer.HandleReservationConfirmed(context.Background(), []byte("RES-1"), []byte(value))
		Expect(err).NotTo(HaveOccurred())
	})

	It("propagates transient failures so the message is redelivered", func() {
		service.prepareErr = errors.ErrFatalPersistence

		value := fmt.Sprintf(`{"reservationId":"RES-1","amount":150000,"checkInDate":%q}`,
			time.Now().Add(240*time.Hour).Format(time.RFC3339))

		err := consumer.HandleReservationConfirmed(context.Background(), []byte("RES-1"), []byte(value))
		Expect(err).To(MatchError(errors.ErrFatalPersistence))
	})
})
