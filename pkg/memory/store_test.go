package memory_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/mnemo/pkg/eventstream"
	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/memory"
	"github.com/papercomputeco/mnemo/pkg/memory/local"
	testutils "github.com/papercomputeco/mnemo/pkg/utils/test"
)

func record(id, topic string, keywords ...string) memory.Record {
	now := fixedNow()
	return memory.Record{
		ID:         id,
		Topic:      topic,
		Content:    topic + " notes",
		Keywords:   keywords,
		CreateTime: now,
		UpdateTime: now,
	}
}

var _ = Describe("Store", func() {
	var (
		ctx       context.Context
		driver    *local.Driver
		publisher *testutils.MockPublisher
		store     *memory.Store
		cfg       memory.StoreConfig
	)

	build := func() {
		var err error
		store, err = memory.NewStore(cfg)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = local.NewDriver()
		publisher = testutils.NewMockPublisher()
		cfg = memory.StoreConfig{Driver: driver, Publisher: publisher, Logger: logger.Nop()}
		build()
	})

	It("requires a driver", func() {
		_, err := memory.NewStore(memory.StoreConfig{})
		Expect(err).To(MatchError(memory.ErrNotConfigured))
	})

	Describe("Save", func() {
		It("appends and publishes a persisted event", func() {
			saved, err := store.Save(ctx, record("1", "travel", "Kyoto"))
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(BeTrue())

			recs, _ := store.LoadAll(ctx)
			Expect(recs).To(HaveLen(1))

			events := publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(eventstream.EventTypeMemoryPersisted))
			Expect(events[0].Memory.Topic).To(Equal("travel"))
		})

		It("honors a worthiness veto without error", func() {
			cfg.Gate = memory.GateFunc(func(context.Context, memory.Record) bool { return false })
			build()

			saved, err := store.Save(ctx, record("1", "travel"))
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(BeFalse())

			recs, _ := store.LoadAll(ctx)
			Expect(recs).To(BeEmpty())
			Expect(publisher.Events()).To(BeEmpty())
		})

		It("does not fail when publishing fails", func() {
			publisher.Err = testutils.ErrMockPublish

			saved, err := store.Save(ctx, record("1", "travel"))
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(BeTrue())
		})

		It("reports driver failures", func() {
			cfg.Driver = failingDriver{local.NewDriver()}
			build()

			saved, err := store.Save(ctx, record("1", "travel"))
			Expect(err).To(HaveOccurred())
			Expect(saved).To(BeFalse())
		})
	})

	Describe("Latest", func() {
		It("returns nil for an empty log", func() {
			rec, err := store.Latest(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(BeNil())
		})

		It("returns the last appended record", func() {
			_, _ = store.Save(ctx, record("1", "first"))
			_, _ = store.Save(ctx, record("2", "second"))

			rec, err := store.Latest(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Topic).To(Equal("second"))
		})
	})

	Describe("active topic", func() {
		It("stores copies", func() {
			t := memory.NewTopic("travel", memory.NewInfoBlock().Merge([]string{"Kyoto"}, nil), time.Now())
			store.SetActive(t)
			t.Label = "changed"

			got := store.Active()
			Expect(got.Label).To(Equal("travel"))
			got.Info.Key[0] = "changed"
			Expect(store.Active().Info.Key).To(Equal([]string{"Kyoto"}))
		})

		It("resets without touching the log", func() {
			_, _ = store.Save(ctx, record("1", "kept"))
			store.SetActive(memory.NewTopic("travel", memory.NewInfoBlock(), time.Now()))

			store.ResetActive()
			Expect(store.Active()).To(BeNil())

			recs, _ := store.LoadAll(ctx)
			Expect(recs).To(HaveLen(1))
		})

		It("flushes the active topic once", func() {
			store.SetActive(memory.NewTopic("travel", memory.NewInfoBlock().Merge([]string{"Kyoto"}, []string{"hotel"}), fixedNow()))

			saved, err := store.FlushActive(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(BeTrue())
			Expect(store.Active()).To(BeNil())

			saved, err = store.FlushActive(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(BeFalse())

			recs, _ := store.LoadAll(ctx)
			Expect(recs).To(HaveLen(1))
			Expect(recs[0].Content).To(Equal("Kyoto; hotel"))
		})

		It("keeps the active topic when a flush fails", func() {
			cfg.Driver = failingDriver{local.NewDriver()}
			build()
			store.SetActive(memory.NewTopic("travel", memory.NewInfoBlock(), fixedNow()))

			_, err := store.FlushActive(ctx)
			Expect(err).To(HaveOccurred())
			Expect(store.Active()).NotTo(BeNil())
		})
	})

	Describe("ClearAll", func() {
		It("empties the log and the vector index and publishes a cleared event", func() {
			vectors := testutils.NewMockVectorDriver()
			cfg.Embedder = testutils.NewMockEmbedder()
			cfg.Vectors = vectors
			build()

			_, _ = store.Save(ctx, record("1", "travel"))
			_, err := store.RetrieveRelated(ctx, "travel", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(vectors.Len()).To(Equal(1))

			Expect(store.ClearAll(ctx)).To(Succeed())

			recs, _ := store.LoadAll(ctx)
			Expect(recs).To(BeEmpty())
			Expect(vectors.Len()).To(BeZero())
			Expect(publisher.EventTypes()).To(Equal([]string{
				eventstream.EventTypeMemoryPersisted,
				eventstream.EventTypeMemoryCleared,
			}))
		})
	})

	Describe("RetrieveRelated", func() {
		var (
			embedder *testutils.MockEmbedder
			vectors  *testutils.MockVectorDriver
			travel   memory.Record
			cooking  memory.Record
			hiking   memory.Record
		)

		BeforeEach(func() {
			embedder = testutils.NewMockEmbedder()
			vectors = testutils.NewMockVectorDriver()
			cfg.Embedder = embedder
			cfg.Vectors = vectors
			build()

			travel = record("t", "kyoto trip", "Kyoto")
			cooking = record("c", "pasta recipe", "carbonara")
			hiking = record("h", "mountain hike", "Fuji")

			embedder.Embeddings[travel.Text()] = []float32{1, 0, 0}
			embedder.Embeddings[cooking.Text()] = []float32{0, 1, 0}
			embedder.Embeddings[hiking.Text()] = []float32{0.8, 0, 0.6}
			embedder.Embeddings["where should I stay in Kyoto"] = []float32{1, 0, 0}

			for _, r := range []memory.Record{travel, cooking, hiking} {
				_, err := store.Save(ctx, r)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("ranks by similarity and drops hits below the floor", func() {
			related, err := store.RetrieveRelated(ctx, "where should I stay in Kyoto", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(related).To(HaveLen(2))
			Expect(related[0].ID).To(Equal("t"))
			Expect(related[0].Score).To(BeNumerically("~", 1.0, 1e-6))
			Expect(related[1].ID).To(Equal("h"))
			Expect(related[1].Score).To(BeNumerically("~", 0.8, 1e-6))
		})

		It("honors topK", func() {
			related, err := store.RetrieveRelated(ctx, "where should I stay in Kyoto", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(related).To(HaveLen(1))
			Expect(related[0].ID).To(Equal("t"))
		})

		It("uses a configurable floor", func() {
			cfg.SimilarityFloor = 0.9
			build()

			related, err := store.RetrieveRelated(ctx, "where should I stay in Kyoto", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(related).To(HaveLen(1))
		})

		It("embeds each record once", func() {
			_, _ = store.RetrieveRelated(ctx, "where should I stay in Kyoto", 3)
			_, _ = store.RetrieveRelated(ctx, "where should I stay in Kyoto", 3)
			Expect(vectors.AddCalls).To(Equal(3))

			count := 0
			for _, c := range embedder.Calls {
				if c == travel.Text() {
					count++
				}
			}
			Expect(count).To(Equal(1))
		})

		It("skips records that fail to embed", func() {
			embedder.FailOn = cooking.Text()
			related, err := store.RetrieveRelated(ctx, "where should I stay in Kyoto", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(related).To(HaveLen(2))
			Expect(vectors.Len()).To(Equal(2))
		})

		It("indexes missing records in one batch when the embedder supports it", func() {
			batch := testutils.NewMockBatchEmbedder()
			batch.Embeddings = embedder.Embeddings
			cfg.Embedder = batch
			build()

			related, err := store.RetrieveRelated(ctx, "where should I stay in Kyoto", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(related).To(HaveLen(2))
			Expect(batch.Batches).To(Equal([][]string{{travel.Text(), cooking.Text(), hiking.Text()}}))
			Expect(batch.Calls).To(Equal([]string{"where should I stay in Kyoto"}))
		})

		It("fails when the query cannot be embedded", func() {
			embedder.FailOn = "broken query"
			_, err := store.RetrieveRelated(ctx, "broken query", 3)
			Expect(err).To(HaveOccurred())
		})

		It("returns nil without an embedder", func() {
			cfg.Embedder = nil
			build()
			Expect(store.RetrievalEnabled()).To(BeFalse())

			related, err := store.RetrieveRelated(ctx, "anything", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(related).To(BeNil())
		})

		It("returns nil for an empty log", func() {
			Expect(store.ClearAll(ctx)).To(Succeed())
			related, err := store.RetrieveRelated(ctx, "anything", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(related).To(BeNil())
		})
	})
})
