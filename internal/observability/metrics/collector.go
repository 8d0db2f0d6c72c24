// Package metrics collects sign-in, role and content metrics and exposes them
// for Prometheus scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/boycepro/folio/internal/observability/errors"
)

// Collector records folio metrics. Its methods satisfy the observer
// interfaces of the identity, session and service packages.
type Collector struct {
	roleDegraded *prometheus.CounterVec
	linksSent    *prometheus.CounterVec
	signins      *prometheus.CounterVec
	contentSaves *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		roleDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_role_lookup_degraded_total",
			Help: "Role lookups that failed and fell back to the free role.",
		}, []string{"error_class"}),
		linksSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_signin_links_sent_total",
			Help: "Sign-in link requests by result.",
		}, []string{"result"}),
		signins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_signins_completed_total",
			Help: "Sign-in link redemptions by result.",
		}, []string{"result"}),
		contentSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_content_saves_total",
			Help: "Inline content saves by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(c.roleDegraded, c.linksSent, c.signins, c.contentSaves)
	return c
}

// RoleLookupDegraded counts a failed role lookup, labelled by error type.
func (c *Collector) RoleLookupDegraded(err error) {
	class := obserrors.Classify(err)
	if class == "" {
		class = "unknown"
	}
	c.roleDegraded.WithLabelValues(class).Inc()
}

func (c *Collector) LinkRequested(outcome string)   { c.linksSent.WithLabelValues(outcome).Inc() }
func (c *Collector) SignInCompleted(outcome string) { c.signins.WithLabelValues(outcome).Inc() }
func (c *Collector) SectionSaved(outcome string)    { c.contentSaves.WithLabelValues(outcome).Inc() }

// Handler serves the registry for scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
