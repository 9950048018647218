package memoriescmder_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	memoriescmder "github.com/papercomputeco/mnemo/cmd/mnemo/memories"
	"github.com/papercomputeco/mnemo/pkg/memory"
	"github.com/papercomputeco/mnemo/pkg/memory/jsonl"
)

var _ = Describe("Follow", func() {
	var (
		tmpDir string
		path   string
		store  *memory.Store
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "mnemo-watch-test-*")
		Expect(err).NotTo(HaveOccurred())
		path = filepath.Join(tmpDir, "memory_store.jsonl")

		driver, err := jsonl.NewDriver(jsonl.Config{Path: path})
		Expect(err).NotTo(HaveOccurred())
		store, err = memory.NewStore(memory.StoreConfig{Driver: driver})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		store.Close()
		os.RemoveAll(tmpDir)
	})

	It("prints records appended after it starts", func() {
		seed(path, record("dddd0000-0000-0000-0000-000000000001", "old topic"))

		ctx, cancel := context.WithCancel(context.Background())
		out := gbytes.NewBuffer()
		done := make(chan error, 1)
		go func() { done <- memoriescmder.Follow(ctx, store, path, out) }()

		// Appends racing the initial read are counted as seen, so keep
		// appending until one is reported.
		Eventually(func() string {
			seed(path, record("eeee0000-0000-0000-0000-000000000002", "new topic"))
			return string(out.Contents())
		}, 5*time.Second, 100*time.Millisecond).Should(ContainSubstring("new topic"))
		Expect(string(out.Contents())).NotTo(ContainSubstring("old topic"))

		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
	})
})
