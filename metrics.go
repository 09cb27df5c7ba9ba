package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for authentication events.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TokensIssuedTotal           prometheus.Counter
	TokenVerificationsTotal     *prometheus.CounterVec
	LoginsTotal                 *prometheus.CounterVec
	SignupsTotal                *prometheus.CounterVec
	RequestAuthenticationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on the registerer
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		TokensIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_tokens_issued_total",
				Help: "Total number of tokens issued",
			},
		),
		TokenVerificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_token_verifications_total",
				Help: "Token verifications by result",
			},
			[]string{"result"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		SignupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_signups_total",
				Help: "Signup attempts by result",
			},
			[]string{"result"},
		),
		RequestAuthenticationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_request_authentications_total",
				Help: "Per request authentication passes by outcome",
			},
			[]string{"outcome"},
		),
	}

	if registry == nil {
		return m, nil
	}

	collectors := []prometheus.Collector{
		m.TokensIssuedTotal,
		m.TokenVerificationsTotal,
		m.LoginsTotal,
		m.SignupsTotal,
		m.RequestAuthenticationsTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// TokenIssued counts an issued token
func (m *Metrics) TokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssuedTotal.Inc()
}

// TokenVerification counts a verification result
func (m *Metrics) TokenVerification(result string) {
	if m == nil {
		return
	}
	m.TokenVerificationsTotal.WithLabelValues(result).Inc()
}

// Login counts a login attempt
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// Signup counts a signup attempt
func (m *Metrics) Signup(result string) {
	if m == nil {
		return
	}
	m.SignupsTotal.WithLabelValues(result).Inc()
}

// RequestAuthentication counts a middleware outcome
func (m *Metrics) RequestAuthentication(outcome Outcome) {
	if m == nil {
		return
	}
	m.RequestAuthenticationsTotal.WithLabelValues(outcome.String()).Inc()
}
