package chatcmder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/papercomputeco/mnemo/cmd/mnemo/chat"
	"github.com/papercomputeco/mnemo/pkg/app"
	"github.com/papercomputeco/mnemo/pkg/config"
	"github.com/papercomputeco/mnemo/pkg/memory"
	"github.com/papercomputeco/mnemo/pkg/session"
	testutils "github.com/papercomputeco/mnemo/pkg/utils/test"
)

func fenced(v map[string]any) string {
	b, err := json.Marshal(v)
	Expect(err).NotTo(HaveOccurred())
	return "```json\n" + string(b) + "\n```"
}

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("registers the session flags", func() {
		cmd := chatcmder.NewChatCmd()
		for _, key := range config.SessionFlagKeys {
			Expect(cmd.Flags().Lookup(config.CommonFlags[key].Name)).NotTo(BeNil(), key)
		}
	})

	It("does not take the listen flag", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Flags().Lookup("listen")).To(BeNil())
	})
})

var _ = Describe("REPL", func() {
	var (
		tmpDir string
		o      *testutils.MockOracle
		a      *app.App
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "mnemo-chat-test-*")
		Expect(err).NotTo(HaveOccurred())

		cfg := config.NewDefaultConfig()
		cfg.Embedding.Provider = ""
		cfg.Trust.Enabled = false

		o = testutils.NewMockOracle()
		o.On(session.TaskRespond, "Kyoto in May sounds lovely.")
		o.On(memory.TaskExtract, fenced(map[string]any{"key_elements": []string{"Kyoto in May"}, "detailed_elements": []string{}}))
		o.On(memory.TaskTopicInit, fenced(map[string]any{"topic": "kyoto trip"}))

		a, err = app.Open(app.Options{ConfigDir: tmpDir, Config: cfg, Oracle: o})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(a.Close(context.Background())).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	run := func(ctx context.Context, input string) string {
		var out bytes.Buffer
		Expect(chatcmder.NewREPL(a, strings.NewReader(input), &out).Run(ctx)).To(Succeed())
		return out.String()
	}

	It("replies and folds the turn into the active topic", func() {
		out := run(context.Background(), "planning a trip to Kyoto\n/memory\n/exit\n")
		Expect(out).To(ContainSubstring("Kyoto in May sounds lovely."))
		Expect(out).To(ContainSubstring("kyoto trip"))
		Expect(a.Store.Active()).NotTo(BeNil())
	})

	It("ends at end of input", func() {
		out := run(context.Background(), "")
		Expect(out).To(ContainSubstring("/help for commands"))
	})

	It("ends when the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r, w, err := os.Pipe()
		Expect(err).NotTo(HaveOccurred())
		defer r.Close()
		defer w.Close()

		var out bytes.Buffer
		Expect(chatcmder.NewREPL(a, r, &out).Run(ctx)).To(Succeed())
	})

	It("reports unknown commands", func() {
		out := run(context.Background(), "/bogus\n")
		Expect(out).To(ContainSubstring("unknown command /bogus"))
	})

	It("prints the command list", func() {
		out := run(context.Background(), "/help\n")
		Expect(out).To(ContainSubstring("/related <text>"))
	})

	It("reports an empty memory log", func() {
		out := run(context.Background(), "/history\n")
		Expect(out).To(ContainSubstring("No memories stored yet"))
	})

	It("refuses /related when retrieval is disabled", func() {
		out := run(context.Background(), "/related kyoto\n")
		Expect(out).To(ContainSubstring("retrieval is disabled"))
	})

	It("has nothing to flush before the first turn", func() {
		out := run(context.Background(), "/flush\n")
		Expect(out).To(ContainSubstring("Nothing to save"))
	})

	It("drops the active topic on /reset", func() {
		run(context.Background(), "planning a trip to Kyoto\n/reset\n")
		Expect(a.Store.Active()).To(BeNil())
	})

	It("keeps the log when /clear is declined", func() {
		ctx := context.Background()
		_, err := a.Store.Save(ctx, memory.Record{ID: "rec-1", Topic: "taxes"})
		Expect(err).NotTo(HaveOccurred())

		out := run(ctx, "/clear\nn\n/history\n")
		Expect(out).To(ContainSubstring("Kept the memory log"))
		Expect(out).To(ContainSubstring("taxes"))
	})

	It("empties the log when /clear is confirmed", func() {
		ctx := context.Background()
		_, err := a.Store.Save(ctx, memory.Record{ID: "rec-1", Topic: "taxes"})
		Expect(err).NotTo(HaveOccurred())

		out := run(ctx, "/clear\ny\n")
		Expect(out).To(ContainSubstring("Memory log cleared"))

		recs, err := a.Store.LoadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(BeEmpty())
	})
})
