package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-chi/chi"

	errors "github.com/staybook/payment-service/internal"
	paymentDatamodel "github.com/staybook/payment-service/internal/core/datamodel/payment"
	"github.com/staybook/payment-service/internal/core/money"
)

type stubServiceAPI struct {
	prepareResult *paymentDatamodel.Payment
	prepareErr    error
	confirmResult *paymentDatamodel.Payment
	confirmErr    error
	cancelResult  *paymentDatamodel.Payment
	cancelErr     error
	getResult     *paymentDatamodel.Payment
	getErr        error

	lastReservationID string
	lastPaymentID     string
	lastReason        string
}

func (s *stubServiceAPI) PreparePayment(reservationID string, amount int64, checkInDate time.Time) (*paymentDatamodel.Payment, error) {
	s.lastReservationID = reservationID
	return s.prepareResult, s.prepareErr
}

func (s *stubServiceAPI) ConfirmPayment(_ context.Context, paymentID, orderID, paymentKey string, amount int64) (*paymentDatamodel.Payment, error) {
	s.lastPaymentID = paymentID
	return s.confirmResult, s.confirmErr
}

func (s *stubServiceAPI) CancelPayment(_ context.Context, paymentID, reason string) (*paymentDatamodel.Payment, error) {
	s.lastPaymentID = paymentID
	s.lastReason = reason
	return s.cancelResult, s.cancelErr
}

func (s *stubServiceAPI) GetPayment(paymentID string) (*paymentDatamodel.Payment, error) {
	s.lastPaymentID = paymentID
	return s.getResult, s.getErr
}

var _ = Describe("Payment Handler", func() {
	var (
		service *stubServiceAPI
		router  *chi.Mux
	)

	preparedPayment := func() *paymentDatamodel.Payment {
		return &paymentDatamodel.Payment{
			ID:            "PAY-100",
			ReservationID: "RES-100",
			Amount:        money.MustNew(150000),
			Status:        paymentDatamodel.StatusPrepared,
			CheckInDate:   time.Now().Add(240 * time.Hour),
			CreatedAt:     time.Now(),
		}
	}

	BeforeEach(func() {
		service = &stubServiceAPI{}
		handler := NewHandler(service)

		router = chi.NewRouter()
		router.Post("/payments", handler.PreparePayment)
		router.Post("/payments/confirm", handler.ConfirmPayment)
		router.Get("/payments/{paymentID}", handler.GetPayment)
		router.Post("/payments/{paymentID}/cancel", handler.CancelPayment)
	})

	Describe("POST /payments", func() {
		It("creates a payment and returns 201", func() {
			service.prepareResult = preparedPayment()

			body := fmt.Sprintf(`{"reservation_id":"RES-100","amount":150000,"check_in_date":%q}`,
				time.Now().Add(240*time.Hour).Format(time.RFC3339))
			req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(service.lastReservationID).To(Equal("RES-100"))

			var resp PaymentResponseDTO
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.PaymentID).To(Equal("PAY-100"))
			Expect(resp.Status).To(Equal("PREPARED"))
			Expect(resp.Amount).To(Equal(int64(150000)))
		})

		It("rejects a malformed body with 400", func() {
			req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString("{not json"))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a missing reservation id with 400", func() {
			body := fmt.Sprintf(`{"amount":150000,"check_in_date":%q}`,
				time.Now().Add(240*time.Hour).Format(time.RFC3339))
			req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(service.lastReservationID).To(BeEmpty())
		})
	})

	Describe("POST /payments/confirm", func() {
		It("confirms a payment and returns 200", func() {
			pay := preparedPayment()
			pay.Status = paymentDatamodel.StatusCompleted
			service.confirmResult = pay

			body := `{"payment_id":"PAY-100","order_id":"ORD-1","payment_key":"toss-key-1","amount":150000}`
			req := httptest.NewRequest(http.MethodPost, "/payments/confirm", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp PaymentResponseDTO
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Status).To(Equal("COMPLETED"))
		})

		It("maps an amount mismatch to 409", func() {
			service.confirmErr = errors.ErrAmountMismatch

			body := `{"payment_id":"PAY-100","order_id":"ORD-1","payment_key":"toss-key-1","amount":999}`
			req := httptest.NewRequest(http.MethodPost, "/payments/confirm", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("GET /payments/{paymentID}", func() {
		It("returns the payment", func() {
			service.getResult = preparedPayment()

			req := httptest.NewRequest(http.MethodGet, "/payments/PAY-100", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(service.lastPaymentID).To(Equal("PAY-100"))
		})

		It("maps a missing payment to 404", func() {
			service.getErr = errors.ErrPaymentNotFound

			req := httptest.NewRequest(http.MethodGet, "/payments/PAY-404", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /payments/{paymentID}/cancel", func() {
		It("cancels and passes the path id and reason through", func() {
			pay := preparedPayment()
			pay.Status = paymentDatamodel.StatusCancelled
			service.cancelResult = pay

			body := `{"reason":"guest request"}`
			req := httptest.NewRequest(http.MethodPost, "/payments/PAY-100/cancel", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(service.lastPaymentID).To(Equal("PAY-100"))
			Expect(service.lastReason).To(Equal("guest request"))
		})

		It("rejects an empty reason with 400", func() {
			req := httptest.NewRequest(http.MethodPost, "/payments/PAY-100/cancel", bytes.NewBufferString(`{}`))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(service.lastPaymentID).To(BeEmpty())
		})
	})
})
