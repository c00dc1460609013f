package refund_test

import (
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	errors "github.com/staybook/payment-service/internal"
	"github.com/staybook/payment-service/internal/core/datamodel/refund"
	"github.com/staybook/payment-service/internal/core/money"
)

var _ = ginkgo.Describe("Policy", func() {
	newPolicy := func(daysOut int) refund.Policy {
		now := time.Now()
		p, err := refund.NewPolicy(now.AddDate(0, 0, daysOut), now)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return p
	}

	original := money.MustNew(100000)

	ginkgo.It("refunds 100% at 7 or more days out", func() {
		for _, days := range []int{7, 10, 30} {
			amount, err := newPolicy(days).CalculateRefundAmount(original)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(amount.Int64()).To(gomega.Equal(int64(100000)))
			gomega.Expect(newPolicy(days).RefundRate()).To(gomega.Equal(100))
		}
	})

	ginkgo.It("refunds 50% at 3 to 6 days out", func() {
		for _, days := range []int{3, 5, 6} {
			amount, err := newPolicy(days).CalculateRefundAmount(original)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(amount.Int64()).To(gomega.Equal(int64(50000)))
			gomega.Expect(newPolicy(days).RefundRate()).To(gomega.Equal(50))
		}
	})

	ginkgo.It("refuses under 3 days out with no partial result", func() {
		for _, days := range []int{2, 1, 0} {
			_, err := newPolicy(days).CalculateRefundAmount(original)
			gomega.Expect(err).To(gomega.MatchError(errors.ErrRefundNotAllowed))
			gomega.Expect(newPolicy(days).RefundRate()).To(gomega.Equal(0))
			gomega.Expect(newPolicy(days).IsRefundable()).To(gomega.BeFalse())
		}
	})

	ginkgo.It("truncates to half down to whole units", func() {
		odd := money.MustNew(10001)
		amount, err := newPolicy(5).CalculateRefundAmount(odd)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(amount.Int64()).To(gomega.Equal(int64(5000)))
	})

	ginkgo.It("counts calendar dates, not elapsed hours", func() {
		// 23:30 the night before a 00:15 check-in 3 calendar days later
		request := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
		checkIn := time.Date(2026, 3, 4, 0, 15, 0, 0, time.UTC)

		p, err := refund.NewPolicy(checkIn, request)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(p.IsRefundable()).To(gomega.BeTrue())
		gomega.Expect(p.RefundRate()).To(gomega.Equal(50))
	})

	ginkgo.It("counts calendar days across a DST transition", func() {
		ny, err := time.LoadLocation("America/New_York")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		// spring forward on 2026-03-08 makes this span 167 elapsed hours,
		// but it is still exactly 7 calendar days
		request := time.Date(2026, 3, 5, 10, 0, 0, 0, ny)
		checkIn := time.Date(2026, 3, 12, 15, 0, 0, 0, ny)

		p, err := refund.NewPolicy(checkIn, request)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(p.RefundRate()).To(gomega.Equal(100))

		amount, err := p.CalculateRefundAmount(original)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(amount.Int64()).To(gomega.Equal(int64(100000)))
	})

	ginkgo.It("counts calendar days across a fall-back transition", func() {
		ny, err := time.LoadLocation("America/New_York")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		// fall back on 2026-11-01: 3 calendar days spanning 73 elapsed hours
		request := time.Date(2026, 10, 30, 9, 0, 0, 0, ny)
		checkIn := time.Date(2026, 11, 2, 9, 0, 0, 0, ny)

		p, err := refund.NewPolicy(checkIn, request)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(p.RefundRate()).To(gomega.Equal(50))
	})

	ginkgo.It("requires both dates", func() {
		_, err := refund.NewPolicy(time.Time{}, time.Now())
		gomega.Expect(err).To(gomega.HaveOccurred())
		_, err = refund.NewPolicy(time.Now(), time.Time{})
		gomega.Expect(err).To(gomega.HaveOccurred())
	})
})
