package env

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sethvargo/go-envconfig"
)

var _ = Describe("env", func() {
	Describe("loadConfig()", func() {
		missing := filepath.Join(os.TempDir(), "lockdown-does-not-exist.env")

		It("uses the defaults", func() {
			config, err := loadConfig(context.Background(), missing, envconfig.MapLookuper(map[string]string{}))
			Expect(err).To(Succeed())

			Expect(config.Host).To(Equal("127.0.0.1"))
			Expect(config.Port).To(Equal(5050))
			Expect(config.MaxConns).To(Equal(64))
			Expect(config.ReadTimeout).To(Equal(10 * time.Second))
			Expect(config.SendTimeout).To(Equal(2500 * time.Millisecond))
			Expect(config.LogLevel).To(Equal("info"))
			Expect(config.DebugHTTP).To(BeFalse())
		})

		It("reads overrides from the environment", func() {
			config, err := loadConfig(context.Background(), missing, envconfig.MapLookuper(map[string]string{
				"LOCKDOWN_PORT":         "6060",
				"LOCKDOWN_SEND_TIMEOUT": "1s",
				"LOCKDOWN_DEBUG_HTTP":   "true",
			}))
			Expect(err).To(Succeed())

			Expect(config.Port).To(Equal(6060))
			Expect(config.SendTimeout).To(Equal(time.Second))
			Expect(config.DebugHTTP).To(BeTrue())
		})

		It("rejects values of the wrong type", func() {
			_, err := loadConfig(context.Background(), missing, envconfig.MapLookuper(map[string]string{
				"LOCKDOWN_PORT": "fifty",
			}))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("MakeLogger()", func() {
		It("accepts known levels", func() {
			log, err := MakeLogger("debug")
			Expect(err).To(Succeed())
			Expect(log).NotTo(BeNil())
		})

		It("rejects unknown levels", func() {
			_, err := MakeLogger("chatty")
			Expect(err).To(HaveOccurred())
		})
	})
})
