package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/mnemo/pkg/logger"
)

func decodeLines(b []byte) []map[string]any {
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		var m map[string]any
		Expect(json.Unmarshal([]byte(line), &m)).To(Succeed())
		out = append(out, m)
	}
	return out
}

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("writes text records at info by default", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Debug("hidden")
			l.Info("topic seeded", "topic", "kyoto trip")

			Expect(buf.String()).NotTo(ContainSubstring("hidden"))
			Expect(buf.String()).To(ContainSubstring(`topic="kyoto trip"`))
		})

		It("lowers the level with debug", func() {
			var buf bytes.Buffer
			logger.New(logger.WithWriter(&buf), logger.WithDebug(true)).Debug("boundary scored")
			Expect(buf.String()).To(ContainSubstring("boundary scored"))
		})

		It("honors an explicit level", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithLevel(slog.LevelWarn))
			l.Info("quiet")
			l.Warn("loud")

			Expect(buf.String()).NotTo(ContainSubstring("quiet"))
			Expect(buf.String()).To(ContainSubstring("loud"))
		})

		It("writes JSON", func() {
			var buf bytes.Buffer
			logger.New(logger.WithWriter(&buf), logger.WithJSON(true)).Info("memory persisted", "count", 2)

			rec := decodeLines(buf.Bytes())[0]
			Expect(rec["msg"]).To(Equal("memory persisted"))
			Expect(rec["count"]).To(BeNumerically("==", 2))
		})

		It("keeps the chosen format when a switch is false", func() {
			var buf bytes.Buffer
			logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithPretty(false)).Info("still json")
			Expect(decodeLines(buf.Bytes())[0]["msg"]).To(Equal("still json"))
		})

		It("writes pretty output", func() {
			var buf bytes.Buffer
			logger.New(logger.WithWriter(&buf), logger.WithFormat(logger.FormatPretty)).Info("pretty output")
			Expect(buf.String()).To(ContainSubstring("pretty output"))
		})

		It("fans out to several writers", func() {
			var a, b bytes.Buffer
			logger.New(logger.WithWriters(&a, &b)).Info("both")

			Expect(a.String()).To(ContainSubstring("both"))
			Expect(b.String()).To(ContainSubstring("both"))
		})
	})

	Describe("OpenFile", func() {
		It("appends JSON records under a new directory", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "logs", "mnemo.log")

			for _, msg := range []string{"first", "second"} {
				l, f, err := logger.OpenFile(path)
				Expect(err).NotTo(HaveOccurred())
				l.Info(msg)
				Expect(f.Close()).To(Succeed())
			}

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			recs := decodeLines(data)
			Expect(recs).To(HaveLen(2))
			Expect(recs[0]["msg"]).To(Equal("first"))
			Expect(recs[1]["msg"]).To(Equal("second"))
		})

		It("passes options through", func() {
			path := filepath.Join(GinkgoT().TempDir(), "mnemo.log")
			l, f, err := logger.OpenFile(path, logger.WithDebug(true))
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(f.Close)

			l.Debug("oracle call")
			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("oracle call"))
		})
	})

	Describe("Component", func() {
		It("tags records", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			logger.Component(l, "kafka").Info("published")

			Expect(decodeLines(buf.Bytes())[0]["component"]).To(Equal("kafka"))
		})

		It("turns a nil logger into Nop", func() {
			l := logger.Component(nil, "jsonl")
			Expect(l).NotTo(BeNil())
			Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
		})
	})

	Describe("Nop", func() {
		It("is disabled at every level", func() {
			l := logger.Nop()
			Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
			Expect(func() {
				l.With("key", "value").WithGroup("g").Info("msg")
			}).NotTo(Panic())
		})
	})

	Describe("Multi", func() {
		It("dispatches to every logger", func() {
			var a, b bytes.Buffer
			multi := logger.Multi(logger.New(logger.WithWriter(&a)), logger.New(logger.WithWriter(&b)))
			multi.Info("broadcast", "key", "val")

			Expect(a.String()).To(ContainSubstring("broadcast"))
			Expect(b.String()).To(ContainSubstring("broadcast"))
		})

		It("respects each handler's level", func() {
			var quiet, loud bytes.Buffer
			multi := logger.Multi(
				logger.New(logger.WithWriter(&quiet)),
				logger.New(logger.WithWriter(&loud), logger.WithDebug(true)),
			)
			multi.Debug("detail")

			Expect(quiet.String()).To(BeEmpty())
			Expect(loud.String()).To(ContainSubstring("detail"))
		})

		It("carries attrs and groups to children", func() {
			var buf bytes.Buffer
			multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)), nil)
			multi.With("component", "session").WithGroup("round").Info("committed", "action", "merged")

			rec := decodeLines(buf.Bytes())[0]
			Expect(rec["component"]).To(Equal("session"))
			Expect(rec["round"]).To(HaveKeyWithValue("action", "merged"))
		})
	})
})
