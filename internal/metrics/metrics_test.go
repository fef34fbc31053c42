package metrics_test

import (
	"io"
	"net/http/httptest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/luma/lockdown/internal/metrics"
)

var _ = Describe("Metrics", func() {
	It("is a no-op when nil", func() {
		var m *metrics.Metrics

		Expect(func() {
			m.RecordRequest("Hello", metrics.ResultOK)
			m.ConnOpened()
			m.ConnClosed()
			m.SetSessionActive(true)
			m.EventDropped()
		}).NotTo(Panic())
	})

	It("counts requests by type and result", func() {
		m := metrics.New()

		m.RecordRequest("Hello", metrics.ResultOK)
		m.RecordRequest("Hello", metrics.ResultOK)
		m.RecordRequest("StatusUpdate", metrics.ResultError)

		Expect(testutil.GatherAndCount(m.Registry(), "lockdown_requests_total")).To(Equal(2))
	})

	It("tracks the session state", func() {
		m := metrics.New()

		m.SetSessionActive(true)
		m.SetSessionActive(true)
		m.SetSessionActive(false)

		Expect(testutil.GatherAndCount(m.Registry(), "lockdown_session_updates_total")).To(Equal(2))
	})

	It("serves the exposition format", func() {
		m := metrics.New()
		m.ConnOpened()

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

		body, err := io.ReadAll(rec.Body)
		Expect(err).To(Succeed())
		Expect(string(body)).To(ContainSubstring("lockdown_active_connections 1"))
	})
})
