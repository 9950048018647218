package testutils_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	testutils "github.com/papercomputeco/mnemo/pkg/utils/test"
	"github.com/papercomputeco/mnemo/pkg/vector"
)

var _ = Describe("Cosine", func() {
	It("handles degenerate input", func() {
		Expect(testutils.Cosine(nil, nil)).To(BeZero())
		Expect(testutils.Cosine([]float32{1}, []float32{1, 2})).To(BeZero())
		Expect(testutils.Cosine([]float32{0, 0}, []float32{1, 1})).To(BeZero())
	})

	It("is 1 for parallel and -1 for opposite vectors", func() {
		Expect(testutils.Cosine([]float32{1, 2}, []float32{2, 4})).To(BeNumerically("~", 1, 1e-6))
		Expect(testutils.Cosine([]float32{1, 0}, []float32{-1, 0})).To(BeNumerically("~", -1, 1e-6))
	})
})

var _ = Describe("MockVectorDriver", func() {
	It("ranks documents by cosine similarity", func() {
		ctx := context.Background()
		m := testutils.NewMockVectorDriver()
		Expect(m.Add(ctx, []vector.Document{
			{ID: "far", Embedding: []float32{0, 1}},
			{ID: "near", Embedding: []float32{1, 0.1}},
		})).To(Succeed())

		results, err := m.Query(ctx, []float32{1, 0}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("near"))
	})
})
