package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a Store as Prometheus metrics.
type Collector struct {
	store       *Store
	total       *prometheus.Desc
	open        *prometheus.Desc
	closed      *prometheus.Desc
	claimed     *prometheus.Desc
	avgResponse *prometheus.Desc
}

// NewCollector wraps store for registration with a prometheus.Registerer.
func NewCollector(store *Store) *Collector {
	return &Collector{
		store:       store,
		total:       prometheus.NewDesc("ticketbot_tickets_total", "Tickets created since start.", nil, nil),
		open:        prometheus.NewDesc("ticketbot_tickets_open", "Tickets currently open.", nil, nil),
		closed:      prometheus.NewDesc("ticketbot_tickets_closed_total", "Tickets closed since start.", nil, nil),
		claimed:     prometheus.NewDesc("ticketbot_tickets_claimed_total", "Tickets claimed since start.", nil, nil),
		avgResponse: prometheus.NewDesc("ticketbot_ticket_response_seconds_avg", "Mean time from creation to first claim.", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.open
	ch <- c.closed
	ch <- c.claimed
	ch <- c.avgResponse
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.store.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.CounterValue, float64(snap.TotalTickets))
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(snap.OpenTickets))
	ch <- prometheus.MustNewConstMetric(c.closed, prometheus.CounterValue, float64(snap.ClosedTickets))
	ch <- prometheus.MustNewConstMetric(c.claimed, prometheus.CounterValue, float64(snap.ClaimedTickets))
	ch <- prometheus.MustNewConstMetric(c.avgResponse, prometheus.GaugeValue, snap.AverageResponseTime.Seconds())
}
