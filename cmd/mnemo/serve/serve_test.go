package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/papercomputeco/mnemo/cmd/mnemo/serve"
	"github.com/papercomputeco/mnemo/pkg/config"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("has --listen with the configured default", func() {
		cmd := servecmder.NewServeCmd()
		flag := cmd.Flags().Lookup("listen")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("l"))
		Expect(flag.DefValue).To(Equal(config.NewDefaultConfig().Server.Listen))
	})

	It("has --no-mcp off by default", func() {
		cmd := servecmder.NewServeCmd()
		flag := cmd.Flags().Lookup("no-mcp")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("false"))
	})

	It("registers the session flags", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Flags().Lookup("oracle-provider")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("events-brokers")).NotTo(BeNil())
	})
})
