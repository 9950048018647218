package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/mnemo/pkg/memory"
)

var _ = Describe("InfoBlock", func() {
	It("initializes three empty lists", func() {
		b := memory.NewInfoBlock()
		Expect(b.Key).To(BeEmpty())
		Expect(b.Aux).To(BeEmpty())
		Expect(b.Noise).To(BeEmpty())
		Expect(b.Key).NotTo(BeNil())
	})

	It("merges with order-preserving dedup", func() {
		b := memory.NewInfoBlock().
			Merge([]string{"a", "b"}, []string{"x"}).
			Merge([]string{"b", "c"}, []string{"x", "y"})

		Expect(b.Key).To(Equal([]string{"a", "b", "c"}))
		Expect(b.Aux).To(Equal([]string{"x", "y"}))
		Expect(b.Noise).To(BeEmpty())
	})

	It("dedups repeats inside a single merge", func() {
		b := memory.NewInfoBlock().Merge([]string{"a", "a", "b", "a"}, nil)
		Expect(b.Key).To(Equal([]string{"a", "b"}))
	})

	It("ignores blank strings and trims entries", func() {
		b := memory.NewInfoBlock().Merge([]string{"", "  ", " a "}, []string{"\t"})
		Expect(b.Key).To(Equal([]string{"a"}))
		Expect(b.Aux).To(BeEmpty())

		Expect(b.AddNoise("   ").Noise).To(BeEmpty())
	})

	It("only grows noise through AddNoise", func() {
		b := memory.NewInfoBlock().Merge([]string{"a"}, []string{"x"})
		b = b.AddNoise("brb").AddNoise("ok").AddNoise("brb")

		Expect(b.Noise).To(Equal([]string{"brb", "ok"}))
		Expect(b.Key).To(Equal([]string{"a"}))
		Expect(b.Aux).To(Equal([]string{"x"}))

		b = b.Merge([]string{"z"}, nil)
		Expect(b.Noise).To(Equal([]string{"brb", "ok"}))
	})

	It("never mutates the receiver", func() {
		base := memory.NewInfoBlock().Merge([]string{"a"}, []string{"x"}).AddNoise("n")
		_ = base.Merge([]string{"b"}, []string{"y"})
		_ = base.AddNoise("m")

		Expect(base.Key).To(Equal([]string{"a"}))
		Expect(base.Aux).To(Equal([]string{"x"}))
		Expect(base.Noise).To(Equal([]string{"n"}))
	})

	It("does not share backing arrays with its inputs", func() {
		key := []string{"a", "b"}
		b := memory.NewInfoBlock().Merge(key, nil)
		key[0] = "changed"
		Expect(b.Key).To(Equal([]string{"a", "b"}))
	})

	It("holds the dedup invariant across any sequence of operations", func() {
		b := memory.NewInfoBlock()
		ops := []func(memory.InfoBlock) memory.InfoBlock{
			func(x memory.InfoBlock) memory.InfoBlock { return x.Merge([]string{"k1", "k2"}, []string{"a1"}) },
			func(x memory.InfoBlock) memory.InfoBlock { return x.AddNoise("n1") },
			func(x memory.InfoBlock) memory.InfoBlock { return x.Merge([]string{"k2", "k3", "k1"}, []string{"a2", "a1"}) },
			func(x memory.InfoBlock) memory.InfoBlock { return x.AddNoise("n1") },
			func(x memory.InfoBlock) memory.InfoBlock { return x.AddNoise("n2") },
			func(x memory.InfoBlock) memory.InfoBlock { return x.Merge(nil, []string{"a3", "a2"}) },
		}
		for _, op := range ops {
			b = op(b)
		}

		Expect(b.Key).To(Equal([]string{"k1", "k2", "k3"}))
		Expect(b.Aux).To(Equal([]string{"a1", "a2", "a3"}))
		Expect(b.Noise).To(Equal([]string{"n1", "n2"}))
	})
})

var _ = Describe("Topic", func() {
	It("projects into a record", func() {
		info := memory.NewInfoBlock().Merge([]string{"Kyoto", "October"}, []string{"budget hotel"}).AddNoise("brb")
		t := memory.NewTopic("trip to kyoto", info, fixedNow())

		rec := t.Record()
		Expect(rec.ID).To(Equal(t.ID))
		Expect(rec.Topic).To(Equal("trip to kyoto"))
		Expect(rec.Content).To(Equal("Kyoto; October; budget hotel"))
		Expect(rec.Keywords).To(Equal([]string{"Kyoto", "October"}))
		Expect(rec.CreateTime).To(Equal(fixedNow()))
		Expect(rec.Info.Noise).To(Equal([]string{"brb"}))
	})

	It("clones deeply", func() {
		t := memory.NewTopic("x", memory.NewInfoBlock().Merge([]string{"a"}, nil), fixedNow())
		c := t.Clone()
		c.Info.Key[0] = "changed"
		c.Label = "y"
		Expect(t.Info.Key).To(Equal([]string{"a"}))
		Expect(t.Label).To(Equal("x"))

		var nilTopic *memory.Topic
		Expect(nilTopic.Clone()).To(BeNil())
	})

	It("formats rounds as a single text block", func() {
		r := memory.NewRound("  hello ", " hi there\n")
		Expect(r.Text()).To(Equal("user: hello\nagent: hi there"))
	})

	It("builds the retrieval text from topic, content and keywords", func() {
		rec := memory.Record{Topic: "travel", Content: "Kyoto; hotel", Keywords: []string{"Kyoto"}}
		Expect(rec.Text()).To(Equal("travel\nKyoto; hotel\nKyoto"))

		Expect(memory.Record{Topic: "only"}.Text()).To(Equal("only"))
	})
})
