package dotdir_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/mnemo/pkg/dotdir"
)

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Target", func() {
		It("creates the directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns the override dir even when a local .mnemo dir exists", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".mnemo"), 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("prefers MNEMO_HOME over a local .mnemo dir", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".mnemo"), 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			home := filepath.Join(tmpDir, "shared")
			GinkgoT().Setenv(dotdir.HomeEnv, home)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(home))
			Expect(home).To(BeADirectory())
		})

		It("makes a relative override absolute", func() {
			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			result, err := m.Target("rel")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "rel")))
		})

		It("returns the local .mnemo dir when it exists and no override is provided", func() {
			local := filepath.Join(tmpDir, ".mnemo")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to the home directory", func() {
			emptyDir := filepath.Join(tmpDir, "empty")
			Expect(os.Mkdir(emptyDir, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(emptyDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			origHome := os.Getenv("HOME")
			Expect(os.Setenv("HOME", tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Setenv("HOME", origHome) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, ".mnemo")))
		})
	})

	Describe("State", func() {
		It("returns nil when nothing has been saved", func() {
			state, err := m.LoadState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("round-trips the last reconcile time", func() {
			at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			Expect(m.SaveState(&dotdir.State{LastReconcile: at}, tmpDir)).To(Succeed())

			state, err := m.LoadState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.LastReconcile.Equal(at)).To(BeTrue())
		})

		It("errors on a corrupt state file", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "state.json"), []byte("{"), 0o600)).To(Succeed())

			_, err := m.LoadState(tmpDir)
			Expect(err).To(HaveOccurred())
		})

		It("refuses to save nil", func() {
			Expect(m.SaveState(nil, tmpDir)).NotTo(Succeed())
		})
	})

	Describe("ReconcileClock", func() {
		It("reports zero before anything is recorded", func() {
			at, err := m.ReconcileClock(tmpDir).LastReconcile()
			Expect(err).NotTo(HaveOccurred())
			Expect(at.IsZero()).To(BeTrue())
		})

		It("records through the state file", func() {
			at := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
			Expect(m.ReconcileClock(tmpDir).MarkReconciled(at)).To(Succeed())

			got, err := m.ReconcileClock(tmpDir).LastReconcile()
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Equal(at)).To(BeTrue())
		})
	})
})
