package memoriescmder

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/mnemo/pkg/memory"
)

var _ = Describe("recordMarkdown", func() {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	It("renders the info block sections", func() {
		info := memory.InfoBlock{
			Key:   []string{"flying to Kyoto in May"},
			Aux:   []string{"prefers window seats"},
			Noise: []string{"hi", "thanks"},
		}
		md := recordMarkdown(memory.Record{
			ID:         "ffff0000",
			Topic:      "kyoto trip",
			Keywords:   []string{"travel", "japan"},
			CreateTime: at,
			UpdateTime: at,
			Info:       &info,
		})

		Expect(md).To(HavePrefix("# kyoto trip\n"))
		Expect(md).To(ContainSubstring("## Key information"))
		Expect(md).To(ContainSubstring("flying to Kyoto in May"))
		Expect(md).To(ContainSubstring("prefers window seats"))
		Expect(md).To(ContainSubstring("_2 small-talk rounds folded in._"))
		Expect(md).To(ContainSubstring("travel, japan"))
	})

	It("falls back to the content for records without an info block", func() {
		md := recordMarkdown(memory.Record{ID: "ffff0001", Topic: "legacy", Content: "plain text", CreateTime: at, UpdateTime: at})
		Expect(md).To(ContainSubstring("## Content\n\nplain text"))
		Expect(md).NotTo(ContainSubstring("Keywords"))
	})
})

var _ = Describe("shortID", func() {
	It("shortens ids to eight characters", func() {
		Expect(shortID("0123456789")).To(Equal("01234567"))
		Expect(shortID("abc")).To(Equal("abc"))
	})
})
