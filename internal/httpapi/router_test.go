package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/lockdown/internal/httpapi"
	"github.com/luma/lockdown/internal/metrics"
	"github.com/luma/lockdown/session"
)

var _ = Describe("httpapi", func() {
	var (
		store *session.Store
		m     *metrics.Metrics
	)

	BeforeEach(func() {
		store = session.NewStore()
		m = metrics.New()
	})

	get := func(path string) *httptest.ResponseRecorder {
		router := httpapi.NewRouter(false, store, m, zap.NewNop())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	It("answers pings", func() {
		rec := get("/ping")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("pong"))
	})

	It("reports the session state", func() {
		store.Set(true, "TeacherConsole")

		rec := get("/session")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var snap session.Snapshot
		Expect(json.Unmarshal(rec.Body.Bytes(), &snap)).To(Succeed())
		Expect(snap.Active).To(BeTrue())
		Expect(snap.ChangedBy).To(Equal("TeacherConsole"))
		Expect(snap.Updates).To(Equal(uint64(1)))
	})

	It("serves metrics", func() {
		m.SetSessionActive(true)

		rec := get("/metrics")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("lockdown_session_active 1"))
	})

	It("has no metrics route without metrics", func() {
		m = nil
		Expect(get("/metrics").Code).To(Equal(http.StatusNotFound))
	})
})
