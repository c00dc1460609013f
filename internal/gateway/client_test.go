package gateway_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/staybook/payment-service/internal"
	"github.com/staybook/payment-service/internal/gateway"
)

func TestGateway(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Gateway Suite")
}

var _ = Describe("HTTPClient", func() {
	var server *httptest.Server

	newClient := func(handler http.HandlerFunc) gateway.Client {
		server = httptest.NewServer(handler)
		return gateway.NewHTTPClient(gateway.Config{
			BaseURL:   server.URL,
			SecretKey: "test_sk_key",
		}, slog.Default())
	}

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	Describe("Confirm", func() {
		It("posts the confirm request and decodes the result", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/v1/payments/confirm"))
				Expect(r.Header.Get("Authorization")).To(HavePrefix("Basic "))

				var body map[string]interface{}
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body["paymentKey"]).To(Equal("pk_123"))
				Expect(body["orderId"]).To(Equal("order_123"))
				Expect(body["amount"]).To(BeNumerically("==", 50000))

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]interface{}{
					"transactionId": "txn_abc",
					"method":        "CARD",
					"approvedAt":    "2026-08-30T10:00:00Z",
				})
			})

			result, err := c.Confirm(context.Background(), "pk_123", "order_123", 50000)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TransactionID).To(Equal("txn_abc"))
			Expect(result.Method).To(Equal("CARD"))
		})

		It("returns a gateway error on non-200 responses", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"code":"INVALID_CARD"}`))
			})

			_, err := c.Confirm(context.Background(), "pk_123", "order_123", 50000)
			Expect(err).To(HaveOccurred())

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeGatewayConfirmFailed))
			Expect(appErr.Type).To(Equal(errors.ErrorTypeExternal))
		})

		It("returns a gateway error when the server is unreachable", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {})
			server.Close()

			_, err := c.Confirm(context.Background(), "pk_123", "order_123", 50000)
			Expect(err).To(HaveOccurred())

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeGatewayConfirmFailed))
		})
	})

	Describe("Cancel", func() {
		It("posts to the payment-scoped cancel endpoint", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/payments/pk_123/cancel"))

				var body map[string]interface{}
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body["cancelReason"]).To(Equal("guest requested refund"))
				Expect(body["cancelAmount"]).To(BeNumerically("==", 25000))

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]interface{}{
					"transactionId": "txn_cancel",
					"canceledAt":    "2026-08-30T11:00:00Z",
				})
			})

			result, err := c.Cancel(context.Background(), "pk_123", 25000, "guest requested refund")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TransactionID).To(Equal("txn_cancel"))
		})

		It("returns a cancel-specific error code on failure", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"code":"ALREADY_CANCELED"}`))
			})

			_, err := c.Cancel(context.Background(), "pk_123", 25000, "duplicate")
			Expect(err).To(HaveOccurred())

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeGatewayCancelFailed))
		})
	})
})
