package credentials_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/mnemo/pkg/credentials"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		mgr    *credentials.Manager
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		mgr, err = credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("targets credentials.toml inside the override dir", func() {
		Expect(mgr.GetTarget()).To(Equal(filepath.Join(tmpDir, "credentials.toml")))
	})

	It("returns empty credentials when no file exists", func() {
		creds, err := mgr.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(creds.Providers).To(BeEmpty())
	})

	It("fails on malformed TOML", func() {
		Expect(os.WriteFile(mgr.GetTarget(), []byte("[[["), 0o600)).To(Succeed())
		_, err := mgr.Load()
		Expect(err).To(MatchError(ContainSubstring("parsing credentials")))
	})

	It("stores keys with restricted permissions and a timestamp", func() {
		Expect(mgr.SetKey("openai", "sk-1")).To(Succeed())

		info, err := os.Stat(mgr.GetTarget())
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		Expect(mgr.GetTarget() + ".tmp").NotTo(BeAnExistingFile())

		creds, err := mgr.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(creds.Providers["openai"].APIKey).To(Equal("sk-1"))
		Expect(creds.Providers["openai"].UpdatedAt.IsZero()).To(BeFalse())
	})

	It("lists and removes providers", func() {
		Expect(mgr.SetKey("openai", "sk-1")).To(Succeed())
		Expect(mgr.SetKey("anthropic", "sk-2")).To(Succeed())

		providers, err := mgr.ListProviders()
		Expect(err).NotTo(HaveOccurred())
		Expect(providers).To(Equal([]string{"anthropic", "openai"}))

		Expect(mgr.RemoveKey("openai")).To(Succeed())
		providers, err = mgr.ListProviders()
		Expect(err).NotTo(HaveOccurred())
		Expect(providers).To(Equal([]string{"anthropic"}))
	})

	It("reports removing a key that was never stored", func() {
		Expect(mgr.RemoveKey("openai")).To(MatchError(credentials.ErrMissingKey))
	})

	Describe("Resolve", func() {
		It("prefers an explicit key", func() {
			Expect(mgr.SetKey("openai", "stored")).To(Succeed())
			key, err := mgr.Resolve("openai", "explicit")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("explicit"))
		})

		It("falls back to the stored key", func() {
			Expect(mgr.SetKey("anthropic", "stored")).To(Succeed())
			key, err := mgr.Resolve("anthropic", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("stored"))
		})

		It("falls back to the environment", func() {
			GinkgoT().Setenv("OPENAI_API_KEY", "from-env")

			key, err := mgr.Resolve("openai", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("from-env"))
		})

		It("needs no key for ollama", func() {
			key, err := mgr.Resolve("ollama", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeEmpty())
		})

		It("lets optional providers go without a key", func() {
			GinkgoT().Setenv("QDRANT_API_KEY", "")
			key, err := mgr.Resolve("qdrant", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeEmpty())
		})

		It("reports a missing key", func() {
			GinkgoT().Setenv("ANTHROPIC_API_KEY", "")
			_, err := mgr.Resolve("anthropic", "")
			Expect(err).To(MatchError(credentials.ErrMissingKey))
			Expect(err.Error()).To(ContainSubstring("mnemo auth anthropic"))
		})

		It("works without a manager", func() {
			GinkgoT().Setenv("OPENAI_API_KEY", "from-env")
			var none *credentials.Manager
			key, err := none.Resolve("openai", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("from-env"))
		})
	})
})

var _ = Describe("providers", func() {
	It("maps providers to environment variables", func() {
		Expect(credentials.EnvVarForProvider("openai")).To(Equal("OPENAI_API_KEY"))
		Expect(credentials.EnvVarForProvider("qdrant")).To(Equal("QDRANT_API_KEY"))
		Expect(credentials.EnvVarForProvider("unknown")).To(BeEmpty())
	})

	It("knows which providers take keys", func() {
		Expect(credentials.SupportedProviders()).To(Equal([]string{"openai", "anthropic", "qdrant"}))
		Expect(credentials.IsSupportedProvider("ollama")).To(BeFalse())

		p, ok := credentials.Lookup("qdrant")
		Expect(ok).To(BeTrue())
		Expect(p.Optional).To(BeTrue())
	})

	It("masks keys", func() {
		Expect(credentials.Mask("sk-proj-abcdef1234")).To(Equal("sk-...1234"))
		Expect(credentials.Mask("abcdefghijkl")).To(Equal("...ijkl"))
		Expect(credentials.Mask("short")).To(Equal("*****"))
	})
})
