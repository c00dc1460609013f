package refund

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-chi/chi"

	errors "github.com/staybook/payment-service/internal"
	refundDatamodel "github.com/staybook/payment-service/internal/core/datamodel/refund"
	"github.com/staybook/payment-service/internal/core/money"
)

type stubServiceAPI struct {
	requestResult *refundDatamodel.Refund
	requestErr    error
	getResult     *refundDatamodel.Refund
	getErr        error
	listResult    []*refundDatamodel.Refund
	listErr       error

	lastPaymentID string
	lastRefundID  string
	lastReason    string
}

func (s *stubServiceAPI) RequestRefund(_ context.Context, paymentID, reason string) (*refundDatamodel.Refund, error) {
	s.lastPaymentID = paymentID
	s.lastReason = reason
	return s.requestResult, s.requestErr
}

func (s *stubServiceAPI) GetRefund(refundID string) (*refundDatamodel.Refund, error) {
	s.lastRefundID = refundID
	return s.getResult, s.getErr
}

func (s *stubServiceAPI) GetRefundsForPayment(paymentID string) ([]*refundDatamodel.Refund, error) {
	s.lastPaymentID = paymentID
	return s.listResult, s.listErr
}

var _ = Describe("Refund Handler", func() {
	var (
		service *stubServiceAPI
		router  *chi.Mux
	)

	completedRefund := func() *refundDatamodel.Refund {
		return &refundDatamodel.Refund{
			ID:             "REF-200",
			PaymentID:      "PAY-100",
			OriginalAmount: money.MustNew(150000),
			RefundAmount:   money.MustNew(75000),
			Status:         refundDatamodel.StatusCompleted,
			Reason:         "trip cancelled",
			RequestedAt:    time.Now(),
		}
	}

	BeforeEach(func() {
		service = &stubServiceAPI{}
		handler := NewHandler(service)

		router = chi.NewRouter()
		router.Post("/refunds", handler.RequestRefund)
		router.Get("/refunds/{refundID}", handler.GetRefund)
		router.Get("/payments/{paymentID}/refunds", handler.GetRefundsForPayment)
	})

	Describe("POST /refunds", func() {
		It("processes a refund and returns 201", func() {
			service.requestResult = completedRefund()

			body := `{"payment_id":"PAY-100","reason":"trip cancelled"}`
			req := httptest.NewRequest(http.MethodPost, "/refunds", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(service.lastPaymentID).To(Equal("PAY-100"))
			Expect(service.lastReason).To(Equal("trip cancelled"))

			var resp RefundResponseDTO
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.RefundID).To(Equal("REF-200"))
			Expect(resp.RefundAmount).To(Equal(int64(75000)))
			Expect(resp.Status).To(Equal("COMPLETED"))
		})

		It("rejects a missing payment id with 400", func() {
			req := httptest.NewRequest(http.MethodPost, "/refunds", bytes.NewBufferString(`{"reason":"trip cancelled"}`))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(service.lastPaymentID).To(BeEmpty())
		})

		It("maps a closed refund window to 422", func() {
			service.requestErr = errors.ErrRefundNotAllowed

			body := `{"payment_id":"PAY-100","reason":"too late"}`
			req := httptest.NewRequest(http.MethodPost, "/refunds", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})
	})

	Describe("GET /refunds/{refundID}", func() {
		It("returns the refund", func() {
			service.getResult = completedRefund()

			req := httptest.NewRequest(http.MethodGet, "/refunds/REF-200", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(service.lastRefundID).To(Equal("REF-200"))
		})

		It("maps a missing refund to 404", func() {
			service.getErr = errors.ErrRefundNotFound

			req := httptest.NewRequest(http.MethodGet, "/refunds/REF-404", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /payments/{paymentID}/refunds", func() {
		It("lists refunds for a payment", func() {
			service.listResult = []*refundDatamodel.Refund{completedRefund()}

			req := httptest.NewRequest(http.MethodGet, "/payments/PAY-100/refunds", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp []*RefundResponseDTO
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp).To(HaveLen(1))
			Expect(resp[0].PaymentID).To(Equal("PAY-100"))
		})

		It("returns an empty list when the payment has no refunds", func() {
			service.listResult = []*refundDatamodel.Refund{}

			req := httptest.NewRequest(http.MethodGet, "/payments/PAY-100/refunds", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON("[]"))
		})
	})
})
