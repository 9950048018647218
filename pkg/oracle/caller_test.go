package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewCaller", func() {
	It("requires a key for hosted providers", func() {
		_, err := NewCaller(CallerConfig{Provider: "openai"})
		Expect(err).To(HaveOccurred())

		_, err = NewCaller(CallerConfig{Provider: "anthropic"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects unknown providers", func() {
		_, err := NewCaller(CallerConfig{Provider: "carrier-pigeon"})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unsupported oracle provider"))
	})

	It("creates an ollama caller without a key", func() {
		o, err := NewCaller(CallerConfig{Provider: "Ollama"})
		Expect(err).NotTo(HaveOccurred())
		Expect(o).NotTo(BeNil())
	})
})

var _ = Describe("OpenAI caller", func() {
	It("sends a json_object chat completion", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-key"))

			var req openAIRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			Expect(req.Model).To(Equal("gpt-4o-mini"))
			Expect(req.ResponseFormat.Type).To(Equal("json_object"))
			Expect(req.Temperature).To(Equal(defaultTemperature))
			Expect(req.MaxTokens).To(Equal(defaultMaxTokens))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"is_noise\":false}"}}]}`))
		}))
		defer server.Close()

		o, err := NewCaller(CallerConfig{Provider: "openai", APIKey: "test-key", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		out, err := o.Call(context.Background(), "classify")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(`{"is_noise":false}`))
	})

	It("surfaces API errors", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
		}))
		defer server.Close()

		o, err := NewCaller(CallerConfig{Provider: "openai", APIKey: "k", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = o.Call(context.Background(), "classify")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("429"))
	})
})

var _ = Describe("Anthropic caller", func() {
	It("sends a messages request and returns the first text block", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/v1/messages"))
			Expect(r.Header.Get("x-api-key")).To(Equal("test-key"))
			Expect(r.Header.Get("anthropic-version")).NotTo(BeEmpty())

			var req anthropicRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			Expect(req.Messages[0].Content).To(ContainSubstring("Return ONLY valid JSON"))

			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"topic\":\"greeting\"}"}]}`))
		}))
		defer server.Close()

		o, err := NewCaller(CallerConfig{Provider: "anthropic", APIKey: "test-key", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		out, err := o.Call(context.Background(), "summarize")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(`{"topic":"greeting"}`))
	})
})

var _ = Describe("Ollama caller", func() {
	It("sends a non-streaming json chat request", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/chat"))

			var req ollamaChatRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			Expect(req.Stream).To(BeFalse())
			Expect(req.Format).To(Equal("json"))
			Expect(req.Options.NumPredict).To(Equal(defaultMaxTokens))

			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{\"need_update\":true}"},"done":true}`))
		}))
		defer server.Close()

		o, err := NewCaller(CallerConfig{Provider: "ollama", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		out, err := o.Call(context.Background(), "update")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(`{"need_update":true}`))
	})
})
