package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped by MetricsMiddleware", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.WriteHeader(http.StatusOK)
		}, "test")

		Convey("When it writes twice", func() {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodPost, "/sync/message", nil))

			Convey("Then the first status reaches the client", func() {
				So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})
		})

		Convey("Then statuses map to error classes", func() {
			So(errorClass(http.StatusOK), ShouldEqual, "")
			So(errorClass(http.StatusCreated), ShouldEqual, "")
			So(errorClass(http.StatusBadRequest), ShouldEqual, "client_error")
			So(errorClass(http.StatusNotFound), ShouldEqual, "not_found")
			So(errorClass(http.StatusUnprocessableEntity), ShouldEqual, "sync_error")
			So(errorClass(http.StatusTooManyRequests), ShouldEqual, "backpressure")
			So(errorClass(http.StatusInternalServerError), ShouldEqual, "server_error")
			So(errorClass(http.StatusBadGateway), ShouldEqual, "upstream_error")
			So(errorClass(http.StatusServiceUnavailable), ShouldEqual, "unavailable")
		})
	})
}
