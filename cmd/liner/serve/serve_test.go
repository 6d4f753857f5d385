package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/papercomputeco/liner/cmd/liner/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("creates the serve command", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
		Expect(cmd.Short).NotTo(BeEmpty())
	})

	It("rejects positional arguments", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("registers the listen flag with its shorthand and default", func() {
		cmd := servecmder.NewServeCmd()

		listen := cmd.Flags().Lookup("listen")
		Expect(listen).NotTo(BeNil())
		Expect(listen.Shorthand).To(Equal("l"))
		Expect(listen.DefValue).To(Equal(":8091"))
	})

	It("registers the mcp flag defaulting off", func() {
		cmd := servecmder.NewServeCmd()

		mcp := cmd.Flags().Lookup("mcp")
		Expect(mcp).NotTo(BeNil())
		Expect(mcp.DefValue).To(Equal("false"))
	})

	It("registers the storage, vector, and embedding flags", func() {
		cmd := servecmder.NewServeCmd()
		for _, name := range []string{
			"storage-provider", "storage-path", "postgres-dsn",
			"vector-provider", "vector-path", "vector-target", "collection",
			"embedding-provider", "embedding-target", "embedding-model", "embedding-dimensions",
		} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), "missing flag %s", name)
		}
	})
})
