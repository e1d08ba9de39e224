package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "flightbot")

	m.ObserveCycle(150 * time.Millisecond)
	m.ProviderError("fetch_flight")
	m.Notified(KindGate, nil)
	m.Notified(KindStatus, errors.New("blocked by user"))
	m.Intent("greeting", "rule")

	n := 3
	m.TrackSubscriptions("flightbot", func() int { return n })

	if diff := cmp.Diff(1.0, testutil.ToFloat64(m.Cycles)); diff != "" {
		t.Errorf("cycles (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1.0, testutil.ToFloat64(m.ProviderErrors.WithLabelValues("fetch_flight"))); diff != "" {
		t.Errorf("provider errors (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1.0, testutil.ToFloat64(m.NotificationFailures.WithLabelValues(KindStatus))); diff != "" {
		t.Errorf("status failures (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(0.0, testutil.ToFloat64(m.NotificationFailures.WithLabelValues(KindGate))); diff != "" {
		t.Errorf("gate failures (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1.0, testutil.ToFloat64(m.Intents.WithLabelValues("greeting", "rule"))); diff != "" {
		t.Errorf("intents (-want +got):\n%s", diff)
	}

	count, err := testutil.GatherAndCount(reg, "flightbot_subscriptions")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if diff := cmp.Diff(1, count); diff != "" {
		t.Errorf("subscriptions gauge series (-want +got):\n%s", diff)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCycle(time.Second)
	m.ProviderError("x")
	m.Notified(KindGate, errors.New("x"))
	m.Intent("unknown", "default")
	m.TrackSubscriptions("x", func() int { return 0 })
}
