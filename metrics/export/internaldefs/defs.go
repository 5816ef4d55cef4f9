package internaldefs

import (
	"github.com/miraiworks/sessionkit"
)

// CounterDef binds a sessionkit counter to its exported name.
type CounterDef struct {
	ID   sessionkit.MetricID
	Name string
	Help string
}

// HistogramDef binds a sessionkit histogram to its exported name.
type HistogramDef struct {
	ID   sessionkit.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter, in a stable order.
var CounterDefs = []CounterDef{
	{ID: sessionkit.MetricLoginSuccess, Name: "sessionkit_login_success_total", Help: "Successful login attempts."},
	{ID: sessionkit.MetricLoginFailure, Name: "sessionkit_login_failure_total", Help: "Failed login attempts."},
	{ID: sessionkit.MetricRegisterSuccess, Name: "sessionkit_register_success_total", Help: "Successful registrations."},
	{ID: sessionkit.MetricRegisterFailure, Name: "sessionkit_register_failure_total", Help: "Failed registrations."},
	{ID: sessionkit.MetricTwoFactorRequired, Name: "sessionkit_two_factor_required_total", Help: "Logins that stopped at the second-factor step."},
	{ID: sessionkit.MetricTwoFactorSuccess, Name: "sessionkit_two_factor_success_total", Help: "Completed two-factor verifications."},
	{ID: sessionkit.MetricTwoFactorFailure, Name: "sessionkit_two_factor_failure_total", Help: "Rejected two-factor verifications."},
	{ID: sessionkit.MetricRefreshSuccess, Name: "sessionkit_refresh_success_total", Help: "Successful token refreshes."},
	{ID: sessionkit.MetricRefreshFailure, Name: "sessionkit_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: sessionkit.MetricSessionRestored, Name: "sessionkit_session_restored_total", Help: "Sessions rebuilt from stored tokens on the direct path."},
	{ID: sessionkit.MetricSessionRestoreFallback, Name: "sessionkit_session_restore_fallback_total", Help: "Sessions rebuilt through the refresh fallback."},
	{ID: sessionkit.MetricSessionRestoreFailed, Name: "sessionkit_session_restore_failed_total", Help: "Startup restores that ended anonymous."},
	{ID: sessionkit.MetricLogout, Name: "sessionkit_logout_total", Help: "Logout operations."},
	{ID: sessionkit.MetricPasswordResetRequest, Name: "sessionkit_password_reset_request_total", Help: "Password reset requests."},
	{ID: sessionkit.MetricPasswordResetConfirm, Name: "sessionkit_password_reset_confirm_total", Help: "Password reset confirmations."},
	{ID: sessionkit.MetricStaleCompletionDiscarded, Name: "sessionkit_stale_completion_discarded_total", Help: "Completions discarded by the in-flight generation counter."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: sessionkit.MetricBackendLatency, Name: "sessionkit_backend_latency_seconds", Help: "Backend call latency histogram."},
}

// HistogramBounds are the upper bounds of the core latency buckets, in
// seconds, as Prometheus "le" label values.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// OTel instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed
// core bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
