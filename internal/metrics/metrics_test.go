package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Rooms.Inc()
	m.Dropped.WithLabelValues(DropBackpressure).Add(3)

	if n, err := testutil.GatherAndCount(reg, "huddle_rooms_active", "huddle_frames_dropped_total"); err != nil || n != 2 {
		t.Fatalf("gathered %d series, err %v", n, err)
	}
	want := `
# HELP huddle_frames_dropped_total Frames not delivered, by reason.
# TYPE huddle_frames_dropped_total counter
huddle_frames_dropped_total{reason="backpressure"} 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "huddle_frames_dropped_total"); err != nil {
		t.Error(err)
	}
}

func TestNewPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("second New on the same registry should panic")
		}
	}()
	New(reg)
}
