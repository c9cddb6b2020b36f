package internaldefs

import (
	"github.com/farm2go/adminguard"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   adminguard.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   adminguard.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: adminguard.MetricEvaluateAuthenticated, Name: "farm2go_guard_evaluate_authenticated_total", Help: "Session evaluations that granted access."},
	{ID: adminguard.MetricEvaluateMissingCredentials, Name: "farm2go_guard_evaluate_missing_credentials_total", Help: "Evaluations denied for absent session entries."},
	{ID: adminguard.MetricEvaluateInvalidToken, Name: "farm2go_guard_evaluate_invalid_token_total", Help: "Evaluations denied for undecodable tokens."},
	{ID: adminguard.MetricEvaluateExpired, Name: "farm2go_guard_evaluate_expired_total", Help: "Evaluations denied for expired tokens."},
	{ID: adminguard.MetricEvaluateMalformedCredentials, Name: "farm2go_guard_evaluate_malformed_credentials_total", Help: "Evaluations denied for undecodable role or permission sets."},
	{ID: adminguard.MetricEvaluateStoreUnavailable, Name: "farm2go_guard_evaluate_store_unavailable_total", Help: "Evaluations denied because the session store could not be read."},
	{ID: adminguard.MetricLoginSuccess, Name: "farm2go_guard_login_success_total", Help: "Logins that stored a session."},
	{ID: adminguard.MetricLoginFailure, Name: "farm2go_guard_login_failure_total", Help: "Logins rejected by the Auth API or not delivered."},
	{ID: adminguard.MetricLoginIncomplete, Name: "farm2go_guard_login_incomplete_total", Help: "Successful login responses missing session fields."},
	{ID: adminguard.MetricLogout, Name: "farm2go_guard_logout_total", Help: "Logouts that cleared the session."},
	{ID: adminguard.MetricLogoutNoToken, Name: "farm2go_guard_logout_no_token_total", Help: "Logouts skipped because no token was stored."},
	{ID: adminguard.MetricMenuFiltered, Name: "farm2go_guard_menu_filtered_total", Help: "Navigation menu renders."},
	{ID: adminguard.MetricGuardRedirect, Name: "farm2go_guard_redirect_total", Help: "Protected navigations sent to the login view."},
	{ID: adminguard.MetricWatcherRedirect, Name: "farm2go_guard_watcher_redirect_total", Help: "Forced navigations after a logout in another process."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: adminguard.MetricEvaluateLatency, Name: "farm2go_guard_evaluate_latency_seconds", Help: "Session evaluation latency, store read included."},
}

// HistogramBounds are the bucket upper bounds in seconds.
var HistogramBounds = []string{
	"0.001",
	"0.002",
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"+Inf",
}

// HistogramBoundSuffix names each bucket for flat exporters.
var HistogramBoundSuffix = []string{
	"0_001",
	"0_002",
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
