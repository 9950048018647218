package domain_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/mnemo/pkg/domain"
)

var _ = Describe("Structure", func() {
	Describe("Decode", func() {
		It("fills missing layers and drops unknown keys", func() {
			s, err := domain.Decode([]byte(`{
				"domain_type": "test",
				"L0_boundary": {"a": 1},
				"L1_pattern": "not an object",
				"extra": {"b": 2}
			}`), domain.UserSchema)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.DomainType).To(Equal("test"))
			Expect(s.Layers).To(HaveLen(4))
			Expect(s.Layers["L0_boundary"]).To(HaveKeyWithValue("a", 1.0))
			Expect(s.Layers["L1_pattern"]).To(BeEmpty())
			Expect(s.Layers["L2_preference"]).To(BeEmpty())
			Expect(s.Map()).NotTo(HaveKey("extra"))
		})

		It("rejects documents that are not objects", func() {
			_, err := domain.Decode([]byte(`[1,2]`), domain.SelfSchema)
			Expect(err).To(MatchError(domain.ErrInvalidDocument))

			_, err = domain.Decode([]byte(`null`), domain.SelfSchema)
			Expect(err).To(MatchError(domain.ErrInvalidDocument))
		})
	})

	Describe("Layer", func() {
		It("returns a copy of a schema layer", func() {
			s := domain.NewStructure(domain.SelfSchema, "self")
			s.Layers["L2_reasoning"]["k"] = "v"

			layer, err := s.Layer("L2_reasoning")
			Expect(err).NotTo(HaveOccurred())
			layer["k"] = "changed"
			Expect(s.Layers["L2_reasoning"]["k"]).To(Equal("v"))
		})

		It("rejects layers outside the schema", func() {
			s := domain.NewStructure(domain.SelfSchema, "self")
			_, err := s.Layer("L1_pattern")
			Expect(err).To(MatchError(domain.ErrUnknownLayer))
		})
	})

	Describe("ReplaceLayers", func() {
		It("replaces only object layers, whole", func() {
			s := domain.NewStructure(domain.UserSchema, "user")
			s.Layers["L0_boundary"] = map[string]any{"old": "x", "kept": "y"}
			s.Layers["L1_pattern"] = map[string]any{"p": "q"}

			replaced := s.ReplaceLayers(map[string]any{
				"domain_type":   "hijacked",
				"L0_boundary":   map[string]any{"new": "z"},
				"L1_pattern":    "flattened",
				"L9_unknown":    map[string]any{"x": 1},
				"L3_expression": map[string]any{"tone": "calm"},
			})

			Expect(replaced).To(Equal([]string{"L0_boundary", "L3_expression"}))
			Expect(s.DomainType).To(Equal("user"))
			Expect(s.Layers["L0_boundary"]).To(Equal(map[string]any{"new": "z"}))
			Expect(s.Layers["L1_pattern"]).To(Equal(map[string]any{"p": "q"}))
			Expect(s.Map()).NotTo(HaveKey("L9_unknown"))
		})
	})

	Describe("Clone", func() {
		It("deep copies nested values", func() {
			s := domain.NewStructure(domain.UserSchema, "user")
			s.Layers["L2_preference"]["books"] = []any{"a", map[string]any{"b": "c"}}

			c := s.Clone()
			c.Layers["L2_preference"]["books"].([]any)[1].(map[string]any)["b"] = "changed"

			Expect(s.Layers["L2_preference"]["books"].([]any)[1]).To(Equal(map[string]any{"b": "c"}))
		})

		It("is nil safe", func() {
			var s *domain.Structure
			Expect(s.Clone()).To(BeNil())
		})
	})

	Describe("Load and Save", func() {
		var tmpDir string

		BeforeEach(func() {
			var err error
			tmpDir, err = os.MkdirTemp("", "domain-test-*")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tmpDir)
		})

		It("falls back when the file is absent", func() {
			s, loaded, err := domain.Load(filepath.Join(tmpDir, "missing.json"), domain.UserSchema, []byte(`{"domain_type":"fallback"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeFalse())
			Expect(s.DomainType).To(Equal("fallback"))
		})

		It("falls back when the file is corrupt", func() {
			path := filepath.Join(tmpDir, "user.json")
			Expect(os.WriteFile(path, []byte("{not json"), 0o644)).To(Succeed())

			s, loaded, err := domain.Load(path, domain.UserSchema, []byte(`{"domain_type":"fallback"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeFalse())
			Expect(s.DomainType).To(Equal("fallback"))
		})

		It("errors when the fallback is unusable too", func() {
			_, _, err := domain.Load("", domain.UserSchema, []byte("nope"))
			Expect(err).To(MatchError(domain.ErrInvalidDocument))
		})

		It("round-trips a saved document", func() {
			path := filepath.Join(tmpDir, "nested", "self.json")
			s := domain.NewStructure(domain.SelfSchema, "self domain")
			s.Layers["L0_boundary"]["core"] = "warm"
			Expect(domain.Save(path, s)).To(Succeed())

			loaded, ok, err := domain.Load(path, domain.SelfSchema, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(loaded.Map()).To(Equal(s.Map()))
		})

		It("refuses to save nil", func() {
			Expect(domain.Save(filepath.Join(tmpDir, "x.json"), nil)).NotTo(Succeed())
		})
	})

	Describe("built-in documents", func() {
		It("fill every layer of both schemas", func() {
			for _, schema := range []domain.Schema{domain.UserSchema, domain.SelfSchema} {
				s, err := domain.Default(schema)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.DomainType).NotTo(BeEmpty())
				for _, name := range schema.Layers {
					Expect(s.Layers[name]).NotTo(BeEmpty(), "layer %s of %s", name, schema.Kind)
				}
			}
		})

		It("describe every relationship stage", func() {
			s, err := domain.Default(domain.SelfSchema)
			Expect(err).NotTo(HaveOccurred())

			stages, ok := s.Layers[domain.LayerStrategy][domain.KeyRelationshipStages].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(stages).To(HaveKey("initial"))
			Expect(stages).To(HaveKey("process"))
			Expect(stages).To(HaveKey("final"))
		})
	})
})
