package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/mnemo/cmd/mnemo/init"
	"github.com/papercomputeco/mnemo/pkg/config"
	"github.com/papercomputeco/mnemo/pkg/domain"
)

var _ = Describe("init", func() {
	var (
		cwd      string
		mnemoDir string
	)

	BeforeEach(func() {
		var err error
		cwd, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		mnemoDir = filepath.Join(cwd, ".mnemo")

		orig, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(cwd)).To(Succeed())
		DeferCleanup(os.Chdir, orig)
	})

	run := func(args ...string) (string, error) {
		cmd := initcmder.NewInitCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	written := func() *config.Config {
		data, err := os.ReadFile(filepath.Join(mnemoDir, "config.toml"))
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		cfg := &config.Config{}
		ExpectWithOffset(1, toml.Unmarshal(data, cfg)).To(Succeed())
		return cfg
	}

	serve := func(status int, body string) string {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			fmt.Fprint(w, body)
		}))
		DeferCleanup(srv.Close)
		return srv.URL
	}

	It("takes no arguments", func() {
		_, err := run("extra")
		Expect(err).To(HaveOccurred())
	})

	It("writes the ollama preset and both domain documents", func() {
		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(mnemoDir))
		Expect(out).To(ContainSubstring("ollama/"))

		cfg := written()
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Oracle.Provider).To(Equal("ollama"))
		Expect(cfg.Oracle.BaseURL).To(Equal("http://localhost:11434"))
		Expect(cfg.Server.Listen).To(Equal(":8765"))
		Expect(cfg.Trust.Enabled).To(BeTrue())

		for file, kind := range map[string]domain.Kind{
			"user_domain.json": domain.KindUser,
			"self_domain.json": domain.KindSelf,
		} {
			data, err := os.ReadFile(filepath.Join(mnemoDir, file))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(domain.DefaultDocument(kind)))
		}
	})

	It("keeps existing files on a plain re-run", func() {
		Expect(os.MkdirAll(mnemoDir, 0o755)).To(Succeed())
		learned := []byte(`{"domain_type":"learned"}`)
		Expect(os.WriteFile(filepath.Join(mnemoDir, "user_domain.json"), learned, 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(mnemoDir, "config.toml"), []byte("[oracle]\nprovider = \"openai\"\n"), 0o600)).To(Succeed())

		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("(kept)"))

		data, err := os.ReadFile(filepath.Join(mnemoDir, "user_domain.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(learned))
		Expect(written().Oracle.Provider).To(Equal("openai"))
	})

	DescribeTable("provider presets",
		func(preset, provider, baseURL string) {
			_, err := run("--preset", preset)
			Expect(err).NotTo(HaveOccurred())

			cfg := written()
			Expect(cfg.Oracle.Provider).To(Equal(provider))
			Expect(cfg.Oracle.BaseURL).To(Equal(baseURL))
			Expect(cfg.Embedding.Provider).To(Equal("ollama"))
		},
		Entry("openai", "openai", "openai", "https://api.openai.com"),
		Entry("anthropic", "anthropic", "anthropic", "https://api.anthropic.com"),
		Entry("ollama", "ollama", "ollama", "http://localhost:11434"),
	)

	It("replaces the config when a preset is given again", func() {
		_, err := run("--preset", "openai")
		Expect(err).NotTo(HaveOccurred())
		_, err = run("--preset", "anthropic")
		Expect(err).NotTo(HaveOccurred())
		Expect(written().Oracle.Provider).To(Equal("anthropic"))
	})

	It("fetches a config from a URL", func() {
		url := serve(http.StatusOK, "version = 0\n\n[oracle]\nprovider = \"openai\"\nmodel = \"gpt-4o\"\n\n[domain]\nreconcile_interval = \"6h\"\n")

		_, err := run("--preset", url)
		Expect(err).NotTo(HaveOccurred())

		cfg := written()
		Expect(cfg.Oracle.Provider).To(Equal("openai"))
		Expect(cfg.Oracle.Model).To(Equal("gpt-4o"))
		Expect(cfg.Domain.ReconcileInterval).To(Equal("6h"))
	})

	DescribeTable("bad presets leave no directory behind",
		func(preset func() string, msg string) {
			_, err := run("--preset", preset())
			Expect(err).To(MatchError(ContainSubstring(msg)))
			Expect(mnemoDir).NotTo(BeADirectory())
		},
		Entry("unknown name", func() string { return "invalid-provider" }, "unknown preset"),
		Entry("non-200 response", func() string { return serve(http.StatusNotFound, "") }, "HTTP 404"),
		Entry("invalid TOML", func() string { return serve(http.StatusOK, "this is not valid toml [[[") }, "parsing"),
		Entry("unreachable host", func() string { return "http://127.0.0.1:1" }, "fetching remote config"),
	)
})
