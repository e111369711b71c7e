package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthAttempts counts login attempts by result ("success" or "failure").
var AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warbler_auth_attempts_total",
	Help: "Total number of login attempts by result",
}, []string{"result"})

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide request metrics middleware.
// Registration with the default Prometheus registry happens once; repeated
// calls (tests build many apps) reuse the same instance.
func InitMetrics(service string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(service)
	})
	return prom
}
