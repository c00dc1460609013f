package idgen_test

import (
	"sort"
	"sync"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/staybook/payment-service/internal/core/idgen"
)

func TestSnowflake(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Snowflake Suite")
}

var _ = ginkgo.Describe("Snowflake", func() {
	ginkgo.It("generates strictly increasing ids from one goroutine", func() {
		gen := idgen.NewSnowflake()
		prev := gen.NextID()
		for i := 0; i < 10000; i++ {
			id := gen.NextID()
			gomega.Expect(id).To(gomega.BeNumerically(">", prev))
			prev = id
		}
	})

	ginkgo.It("never hands out duplicates under concurrency", func() {
		gen := idgen.NewSnowflakeWithNode(7)

		const goroutines = 16
		const perGoroutine = 2000

		var wg sync.WaitGroup
		results := make([][]int64, goroutines)
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				ids := make([]int64, 0, perGoroutine)
				for i := 0; i < perGoroutine; i++ {
					ids = append(ids, gen.NextID())
				}
				results[slot] = ids
			}(g)
		}
		wg.Wait()

		all := make([]int64, 0, goroutines*perGoroutine)
		for _, ids := range results {
			all = append(all, ids...)
		}
		sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
		for i := 1; i < len(all); i++ {
			gomega.Expect(all[i]).ToNot(gomega.Equal(all[i-1]))
		}
	})

	ginkgo.It("keeps the pinned node id in the id bits", func() {
		gen := idgen.NewSnowflakeWithNode(42)
		id := gen.NextID()
		node := (id >> 12) & ((1 << 10) - 1)
		gomega.Expect(node).To(gomega.Equal(int64(42)))
	})
})
