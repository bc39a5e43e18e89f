package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
	_ "github.com/Sternrassler/gathercontent-resolver/pkg/ratelimit"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestFamilies(t *testing.T) {
	names, err := Families(Prefix)
	if err != nil {
		t.Fatalf("Families() error = %v", err)
	}

	// Unlabelled metrics are exported as soon as their package is linked.
	for _, want := range []string{
		"gathercontent_item_fetch_failures_total",
		"gathercontent_throttle_wait_seconds",
		"gathercontent_throttle_waits_total",
	} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Families() = %v, missing %s", names, want)
		}
	}

	for _, name := range names {
		if !strings.HasPrefix(name, Prefix) {
			t.Errorf("Families() returned %s without prefix", name)
		}
	}
}

func TestHandler(t *testing.T) {
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "gathercontent_throttle_waits_total") {
		t.Error("exposition missing gathercontent_throttle_waits_total")
	}
}
