package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeVerified          = "verified"
	OutcomeNotFound          = "not_found"
	OutcomePaymentIncomplete = "payment_incomplete"
	OutcomeError             = "error"
)

var (
	PaymentsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voyageshield",
		Name:      "payments_recorded_total",
		Help:      "Completed payments recorded, by currency",
	}, []string{"currency"})

	PaymentAmountCents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voyageshield",
		Name:      "payment_amount_cents_total",
		Help:      "Sum of recorded payment amounts in minor units, by currency",
	}, []string{"currency"})

	CertificatesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voyageshield",
		Name:      "certificates_issued_total",
		Help:      "Certificates issued to their owners",
	})

	CertificateVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voyageshield",
		Name:      "certificate_verifications_total",
		Help:      "Public certificate verifications, by outcome",
	}, []string{"outcome"})

	Registrations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voyageshield",
		Name:      "registrations_total",
		Help:      "Traveler accounts registered",
	})
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more
// than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PaymentsRecorded,
			PaymentAmountCents,
			CertificatesIssued,
			CertificateVerifications,
			Registrations,
		)
	})
}

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObservePayment counts one recorded payment.
func ObservePayment(currency string, cents int64) {
	PaymentsRecorded.WithLabelValues(currency).Inc()
	PaymentAmountCents.WithLabelValues(currency).Add(float64(cents))
}
