package trust_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/mnemo/pkg/trust"
	testutils "github.com/papercomputeco/mnemo/pkg/utils/test"
)

var _ = Describe("StageFor", func() {
	DescribeTable("maps scores to stages",
		func(score int, want trust.Stage) {
			Expect(trust.StageFor(score)).To(Equal(want))
		},
		Entry("zero", 0, trust.StageInitial),
		Entry("just below process", 29, trust.StageInitial),
		Entry("process floor", 30, trust.StageProcess),
		Entry("just below final", 79, trust.StageProcess),
		Entry("final floor", 80, trust.StageFinal),
		Entry("maximum", 100, trust.StageFinal),
	)
})

var _ = Describe("Manager", func() {
	var (
		tmpDir  string
		logPath string
		ctx     context.Context
		now     time.Time
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "trust-test-*")
		Expect(err).NotTo(HaveOccurred())
		logPath = filepath.Join(tmpDir, "trust", "trust_data.jsonl")
		ctx = context.Background()
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	newManager := func(o *testutils.MockOracle) *trust.Manager {
		cfg := trust.Config{LogPath: logPath, Now: func() time.Time { return now }}
		if o != nil {
			cfg.Oracle = o
		}
		m, err := trust.NewManager(cfg)
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	readLog := func() []trust.Entry {
		f, err := os.Open(logPath)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		var entries []trust.Entry
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			var e trust.Entry
			Expect(json.Unmarshal(sc.Bytes(), &e)).To(Succeed())
			entries = append(entries, e)
		}
		return entries
	}

	It("starts at zero without a log", func() {
		m := newManager(nil)
		Expect(m.Score()).To(Equal(0))
		Expect(m.Stage()).To(Equal(trust.StageInitial))
	})

	It("clamps and logs every change", func() {
		m := newManager(nil)

		score, err := m.Apply("hello", -5)
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(Equal(0))

		for range 12 {
			_, err = m.Apply("thanks", 10)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(m.Score()).To(Equal(100))

		entries := readLog()
		Expect(entries).To(HaveLen(13))
		Expect(entries[0].UserInput).To(Equal("hello"))
		Expect(entries[0].Change).To(Equal(-5))
		Expect(entries[0].Score).To(Equal(0))
		Expect(entries[0].Time).To(BeTemporally("==", now))
		Expect(entries[12].Score).To(Equal(100))
	})

	It("resumes from the last logged score", func() {
		m := newManager(nil)
		_, err := m.Apply("a", 10)
		Expect(err).NotTo(HaveOccurred())
		_, err = m.Apply("b", 10)
		Expect(err).NotTo(HaveOccurred())
		_, err = m.Apply("c", 10)
		Expect(err).NotTo(HaveOccurred())

		resumed := newManager(nil)
		Expect(resumed.Score()).To(Equal(30))
		Expect(resumed.Stage()).To(Equal(trust.StageProcess))
	})

	It("starts over when the log tail is corrupt", func() {
		Expect(os.MkdirAll(filepath.Dir(logPath), 0o755)).To(Succeed())
		Expect(os.WriteFile(logPath, []byte(`{"trust_score": 50}`+"\n{broken\n"), 0o644)).To(Succeed())

		Expect(newManager(nil).Score()).To(Equal(0))
	})

	It("keeps the score in memory without a log path", func() {
		m, err := trust.NewManager(trust.Config{})
		Expect(err).NotTo(HaveOccurred())

		score, err := m.Apply("hi", 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(Equal(7))
	})

	Describe("Judge", func() {
		It("uses the oracle delta, clamped", func() {
			o := testutils.NewMockOracle().On(trust.TaskScore,
				"```json\n{\"delta\": 4}\n```",
				"```json\n{\"delta\": 40}\n```",
			)
			m := newManager(o)

			Expect(m.Judge(ctx, "you are great")).To(Equal(4))
			Expect(m.Judge(ctx, "you are the best")).To(Equal(trust.MaxDelta))
			Expect(o.LastPrompt(trust.TaskScore)).To(ContainSubstring("you are the best"))
		})

		DescribeTable("bounds the delta before rounding",
			func(answer string, want int) {
				o := testutils.NewMockOracle().On(trust.TaskScore, answer)
				Expect(newManager(o).Judge(ctx, "hello")).To(Equal(want))
			},
			Entry("huge positive", `{"delta": 1e300}`, trust.MaxDelta),
			Entry("huge negative", `{"delta": -1e300}`, -trust.MaxDelta),
			Entry("fraction rounds", `{"delta": 2.6}`, 3),
			Entry("just past the bound", `{"delta": -10.4}`, -trust.MaxDelta),
			Entry("not a number", `{"delta": "lots"}`, 0),
		)

		It("gives zero when the oracle fails", func() {
			o := testutils.NewMockOracle().Fail(trust.TaskScore)
			m := newManager(o)
			Expect(m.Judge(ctx, "whatever")).To(Equal(0))
		})

		It("gives zero without an oracle", func() {
			Expect(newManager(nil).Judge(ctx, "whatever")).To(Equal(0))
		})
	})

	Describe("Update", func() {
		It("judges then applies", func() {
			o := testutils.NewMockOracle().On(trust.TaskScore, "```json\n{\"delta\": 6}\n```")
			m := newManager(o)

			score, err := m.Update(ctx, "nice to meet you")
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(Equal(6))
			Expect(readLog()[0].UserInput).To(Equal("nice to meet you"))
		})
	})
})
