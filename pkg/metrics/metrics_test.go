package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestWrite_FiltersByPrefix(t *testing.T) {
	reg := prometheus.NewRegistry()
	own := prometheus.NewCounter(prometheus.CounterOpts{Name: "admin_test_total", Help: "own"})
	foreign := prometheus.NewCounter(prometheus.CounterOpts{Name: "other_test_total", Help: "foreign"})
	reg.MustRegister(own, foreign)
	own.Add(3)

	saved := Gatherer
	Gatherer = reg
	t.Cleanup(func() { Gatherer = saved })

	buf := &bytes.Buffer{}
	if err := Write(buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "admin_test_total 3") {
		t.Errorf("Expected admin_test_total in output, got %q", output)
	}
	if strings.Contains(output, "other_test_total") {
		t.Errorf("Foreign metric leaked into output: %q", output)
	}
}
