package internaldefs

import "github.com/campverse/authcore"

type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful password logins."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed password logins."},
	{ID: authcore.MetricLoginRateLimited, Name: "authcore_login_rate_limited_total", Help: "Password logins rejected by the failure counter."},
	{ID: authcore.MetricSessionCreated, Name: "authcore_session_created_total", Help: "Sessions created by token pair issuance."},
	{ID: authcore.MetricSessionCreateFailure, Name: "authcore_session_create_failure_total", Help: "Token pair issuances that failed to store a session."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Rejected or failed refresh rotations."},
	{ID: authcore.MetricRefreshRateLimited, Name: "authcore_refresh_rate_limited_total", Help: "Refresh attempts rejected by the throttle."},
	{ID: authcore.MetricAuthSuccess, Name: "authcore_auth_success_total", Help: "Requests admitted by the auth gate."},
	{ID: authcore.MetricAuthFailure, Name: "authcore_auth_failure_total", Help: "Requests rejected by the auth gate."},
	{ID: authcore.MetricAuthRevoked, Name: "authcore_auth_revoked_total", Help: "Requests rejected because the session or token was revoked."},
	{ID: authcore.MetricAuthSubjectMissing, Name: "authcore_auth_subject_missing_total", Help: "Requests whose subject no longer resolves."},
	{ID: authcore.MetricRevocationCacheError, Name: "authcore_revocation_cache_error_total", Help: "Revocation cache read or write failures."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Single-session logouts."},
	{ID: authcore.MetricLogoutAll, Name: "authcore_logout_all_total", Help: "Revoke-all operations."},
	{ID: authcore.MetricSessionRevoked, Name: "authcore_session_revoked_total", Help: "Sessions revoked by their owner."},
	{ID: authcore.MetricAdminRevoke, Name: "authcore_admin_revoke_total", Help: "Sessions revoked by an administrator."},
	{ID: authcore.MetricLedgerEnqueued, Name: "authcore_ledger_enqueued_total", Help: "Login attempts queued for the ledger."},
	{ID: authcore.MetricLedgerRejected, Name: "authcore_ledger_rejected_total", Help: "Malformed login attempts rejected."},
	{ID: authcore.MetricSweepSessions, Name: "authcore_sweep_sessions_total", Help: "Expired or aged sessions deleted by the sweeper."},
	{ID: authcore.MetricSweepLedger, Name: "authcore_sweep_ledger_total", Help: "Ledger entries purged by the sweeper."},
}

var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricValidateLatency, Name: "authcore_authenticate_latency_seconds", Help: "Auth gate latency."},
}

const (
	AuditDroppedName  = "authcore_audit_dropped_total"
	AuditDroppedHelp  = "Audit events dropped due to dispatcher backpressure."
	LedgerDroppedName = "authcore_ledger_dropped_total"
	LedgerDroppedHelp = "Login attempts dropped because the recorder queue was full."
)

// HistogramUpperBounds are the finite bucket bounds in seconds; the eighth
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

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
