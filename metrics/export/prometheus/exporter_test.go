package prometheus

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/miraiworks/sessionkit"
)

// failingBackend satisfies sessionkit.Backend for construction-only tests.
type failingBackend struct{}

func (failingBackend) Login(context.Context, sessionkit.Credentials) (*sessionkit.LoginResult, error) {
	return nil, sessionkit.ErrBackendUnavailable
}

func (failingBackend) Register(context.Context, sessionkit.RegisterRequest) (*sessionkit.LoginResult, error) {
	return nil, sessionkit.ErrBackendUnavailable
}

func (failingBackend) Me(context.Context, string) (*sessionkit.User, error) {
	return nil, sessionkit.ErrBackendUnavailable
}

func (failingBackend) Refresh(context.Context, string) (*sessionkit.RefreshResult, error) {
	return nil, sessionkit.ErrBackendUnavailable
}

func (failingBackend) VerifyTwoFactor(context.Context, string, string) (*sessionkit.LoginResult, error) {
	return nil, sessionkit.ErrBackendUnavailable
}

func (failingBackend) ForgotPassword(context.Context, string) error {
	return sessionkit.ErrBackendUnavailable
}

func (failingBackend) ResetPassword(context.Context, string, string) error {
	return sessionkit.ErrBackendUnavailable
}

func (failingBackend) Logout(context.Context, string) error {
	return sessionkit.ErrBackendUnavailable
}

type fakeSource struct {
	snapshot sessionkit.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() sessionkit.MetricsSnapshot {
	return f.snapshot
}

func (f *fakeSource) AuditDropped() uint64 {
	return f.dropped
}

func testSnapshot() sessionkit.MetricsSnapshot {
	return sessionkit.MetricsSnapshot{
		Counters: map[sessionkit.MetricID]uint64{
			sessionkit.MetricLoginSuccess:   3,
			sessionkit.MetricRefreshFailure: 1,
		},
		Histograms: map[sessionkit.MetricID][]uint64{
			sessionkit.MetricBackendLatency: {2, 1, 0, 0, 0, 0, 0, 1},
		},
	}
}

func TestRenderCounters(t *testing.T) {
	exporter := NewExporterFromSource(&fakeSource{snapshot: testSnapshot(), dropped: 4})
	out := exporter.Render()

	for _, want := range []string{
		"# TYPE sessionkit_login_success_total counter",
		"sessionkit_login_success_total 3",
		"sessionkit_refresh_failure_total 1",
		"sessionkit_logout_total 0",
		"sessionkit_audit_dropped_total 4",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestRenderHistogramIsCumulative(t *testing.T) {
	exporter := NewExporterFromSource(&fakeSource{snapshot: testSnapshot()})
	out := exporter.Render()

	for _, want := range []string{
		"# TYPE sessionkit_backend_latency_seconds histogram",
		`sessionkit_backend_latency_seconds_bucket{le="0.005"} 2`,
		`sessionkit_backend_latency_seconds_bucket{le="0.01"} 3`,
		`sessionkit_backend_latency_seconds_bucket{le="+Inf"} 4`,
		"sessionkit_backend_latency_seconds_count 4",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestRenderEmptySource(t *testing.T) {
	exporter := NewExporterFromSource(&fakeSource{})
	if out := exporter.Render(); out != "" {
		t.Fatalf("expected empty output, got:\n%s", out)
	}
}

func TestHandlerServesTextFormat(t *testing.T) {
	exporter := NewExporterFromSource(&fakeSource{snapshot: testSnapshot()})

	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(rec.Body.String(), "sessionkit_login_success_total 3") {
		t.Fatalf("body missing counter:\n%s", rec.Body.String())
	}
}

func TestRenderFromLiveManager(t *testing.T) {
	m, err := sessionkit.New().
		WithBackend(failingBackend{}).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()

	out := NewExporter(m).Render()
	if !strings.Contains(out, "sessionkit_login_success_total 0") {
		t.Fatalf("live manager render missing counters:\n%s", out)
	}
}
