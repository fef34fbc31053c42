package cmd

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("root", func() {
	var out *bytes.Buffer

	run := func(args ...string) error {
		out = &bytes.Buffer{}
		RootCmd.SetOut(out)
		RootCmd.SetErr(out)
		RootCmd.SetArgs(args)
		return RootCmd.Execute()
	}

	It("prints the version", func() {
		Expect(run("version")).To(Succeed())
		Expect(out.String()).To(HavePrefix("lockdown dev ("))
	})

	It("generates man pages", func() {
		dir, err := os.MkdirTemp("", "lockdown-man")
		Expect(err).To(Succeed())
		defer os.RemoveAll(dir)

		Expect(run("gen", "man", "--dir", filepath.Join(dir, "man"))).To(Succeed())

		_, err = os.Stat(filepath.Join(dir, "man", "lockdown-teacher-start.1"))
		Expect(err).To(Succeed())
		_, err = os.Stat(filepath.Join(dir, "man", "lockdown-student.1"))
		Expect(err).To(Succeed())
	})
})
