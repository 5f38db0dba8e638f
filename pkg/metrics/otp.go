package metrics

import "github.com/prometheus/client_golang/prometheus"

// OTP verification outcomes.
const (
	OTPResultVerified = "verified"
	OTPResultInvalid  = "invalid"
	OTPResultExpired  = "expired"
)

// OTPMetrics counts code issuance and verification outcomes.
type OTPMetrics struct {
	issued  prometheus.Counter
	limited prometheus.Counter
	verify  *prometheus.CounterVec
}

func NewOTPMetrics(reg prometheus.Registerer) *OTPMetrics {
	if reg == nil {
		return &OTPMetrics{}
	}
	issued := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "otp",
		Name:      "issued_total",
		Help:      "Verification codes issued.",
	})
	limited := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "otp",
		Name:      "rate_limited_total",
		Help:      "Issue requests rejected by the hourly cap.",
	})
	verify := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "otp",
		Name:      "verify_total",
		Help:      "Verification attempts by result.",
	}, []string{"result"})
	reg.MustRegister(issued, limited, verify)
	return &OTPMetrics{issued: issued, limited: limited, verify: verify}
}

func (m *OTPMetrics) IncIssued() {
	if m == nil || m.issued == nil {
		return
	}
	m.issued.Inc()
}

func (m *OTPMetrics) IncRateLimited() {
	if m == nil || m.limited == nil {
		return
	}
	m.limited.Inc()
}

func (m *OTPMetrics) IncVerify(result string) {
	if m == nil || m.verify == nil {
		return
	}
	m.verify.WithLabelValues(normalizeLabel(result)).Inc()
}
