package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with default naming", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "playmedia")
				So(manager.subsystem, ShouldEqual, "picker")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithSizeBuckets([]float64{1, 10}),
				WithMetricsEnabled(true),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors should carry the custom labels", func() {
				manager.sessionsOpened.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)

				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_sessions_opened_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording session lifecycle", func() {
			before := testutil.ToFloat64(globalManager.sessionsOpened)
			RecordSessionOpened()
			UpdateSessionsActive(3)
			RecordSessionCommitted(2)
			RecordSessionCancelled()
			RecordSessionExpired()

			Convey("Then counters and gauges should move", func() {
				So(testutil.ToFloat64(globalManager.sessionsOpened), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.sessionsActive), ShouldEqual, 3)
			})
		})

		Convey("When recording toggles", func() {
			accepted := testutil.ToFloat64(globalManager.toggles.WithLabelValues("accepted"))
			rejected := testutil.ToFloat64(globalManager.toggles.WithLabelValues("rejected"))
			RecordToggle(true)
			RecordToggle(false)

			Convey("Then results should be split by label", func() {
				So(testutil.ToFloat64(globalManager.toggles.WithLabelValues("accepted")), ShouldEqual, accepted+1)
				So(testutil.ToFloat64(globalManager.toggles.WithLabelValues("rejected")), ShouldEqual, rejected+1)
			})
		})

		Convey("When recording a discarded refresh", func() {
			before := testutil.ToFloat64(globalManager.refreshDiscarded)
			RecordRefresh("discarded")
			RecordRefresh("ok")

			Convey("Then the discarded counter should only count the discard", func() {
				So(testutil.ToFloat64(globalManager.refreshDiscarded), ShouldEqual, before+1)
			})
		})

		Convey("When updating form store and system gauges", func() {
			writes := testutil.ToFloat64(globalManager.formWrites.WithLabelValues("append"))
			UpdateFormFields(4)
			RecordFormWrite("append")
			UpdateSystemMemoryUsage(2048)
			UpdateSystemGoroutineCount(7)

			Convey("Then the gauges hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.formFields), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.formWrites.WithLabelValues("append")), ShouldEqual, writes+1)
				So(testutil.ToFloat64(globalManager.memoryBytes), ShouldEqual, 2048)
				So(testutil.ToFloat64(globalManager.goroutines), ShouldEqual, 7)
			})
		})

		Convey("When recording everything else", func() {
			So(func() {
				RecordFacetEvaluation(12)
				RecordFetchLatency("athlete", 0.02)
				RecordCacheLookup("athlete", "hit")
				RecordHTTPRequest("sessions", "GET", "200", 0.001)
				RecordErrorByComponent("content", "upstream")
			}, ShouldNotPanic)
		})

		Convey("When recording is disabled", func() {
			SetEnabled(false)
			before := testutil.ToFloat64(globalManager.sessionsCancelled)
			RecordSessionCancelled()
			after := testutil.ToFloat64(globalManager.sessionsCancelled)
			SetEnabled(true)

			Convey("Then nothing should be recorded", func() {
				So(after, ShouldEqual, before)
			})
		})

		Convey("Then the registry should be exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
