package fw

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Strategy decision outcomes.
const (
	outcomeSuppressed = "suppressed"
	outcomeTrace      = "trace"
	outcomeFlood      = "flood"
	outcomeForward    = "forward"
	outcomeReject     = "reject"
	outcomeDrop       = "drop"
	outcomeNackRelay  = "nack-relay"
)

var strategyDecisions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kite_strategy_decisions_total",
		Help: "Total forwarding decisions taken by strategies",
	},
	[]string{"strategy", "outcome"})

func countDecision(strategy string, outcome string) {
	strategyDecisions.WithLabelValues(strategy, outcome).Inc()
}

// threadCollector exports the counters of a set of forwarding threads.
type threadCollector struct {
	threads []*Thread

	pitEntries   *prometheus.Desc
	interests    *prometheus.Desc
	nacks        *prometheus.Desc
	rejected     *prometheus.Desc
	unsatisfied  *prometheus.Desc
	deadNonceLen *prometheus.Desc
}

// NewThreadCollector returns a collector reading the counters of threads.
func NewThreadCollector(threads []*Thread) prometheus.Collector {
	labels := []string{"thread"}
	return &threadCollector{
		threads: threads,
		pitEntries: prometheus.NewDesc("kite_pit_entries",
			"Current number of PIT entries", labels, nil),
		interests: prometheus.NewDesc("kite_interests_total",
			"Total Interests by direction", append(labels, "direction"), nil),
		nacks: prometheus.NewDesc("kite_nacks_total",
			"Total Nacks by direction", append(labels, "direction"), nil),
		rejected: prometheus.NewDesc("kite_rejected_interests_total",
			"Total Interests rejected by strategies", labels, nil),
		unsatisfied: prometheus.NewDesc("kite_unsatisfied_interests_total",
			"Total in-records of PIT entries that expired unsatisfied", labels, nil),
		deadNonceLen: prometheus.NewDesc("kite_dead_nonce_list_entries",
			"Current number of Dead Nonce List entries", labels, nil),
	}
}

func (c *threadCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pitEntries
	ch <- c.interests
	ch <- c.nacks
	ch <- c.rejected
	ch <- c.unsatisfied
	ch <- c.deadNonceLen
}

func (c *threadCollector) Collect(ch chan<- prometheus.Metric) {
	for _, t := range c.threads {
		id := strconv.Itoa(t.GetID())
		cnt := t.Counters()
		ch <- prometheus.MustNewConstMetric(c.pitEntries, prometheus.GaugeValue, float64(cnt.NPitEntries), id)
		ch <- prometheus.MustNewConstMetric(c.interests, prometheus.CounterValue, float64(cnt.NInInterests), id, "in")
		ch <- prometheus.MustNewConstMetric(c.interests, prometheus.CounterValue, float64(cnt.NOutInterests), id, "out")
		ch <- prometheus.MustNewConstMetric(c.nacks, prometheus.CounterValue, float64(cnt.NInNacks), id, "in")
		ch <- prometheus.MustNewConstMetric(c.nacks, prometheus.CounterValue, float64(cnt.NOutNacks), id, "out")
		ch <- prometheus.MustNewConstMetric(c.rejected, prometheus.CounterValue, float64(cnt.NRejectedInterests), id)
		ch <- prometheus.MustNewConstMetric(c.unsatisfied, prometheus.CounterValue, float64(cnt.NUnsatisfiedInterests), id)
		ch <- prometheus.MustNewConstMetric(c.deadNonceLen, prometheus.GaugeValue, float64(t.deadNonceLen.Load()), id)
	}
}

// RegisterMetrics registers the strategy and thread metrics with reg.
// Registering the strategy counters twice is not an error.
func RegisterMetrics(reg prometheus.Registerer, threads []*Thread) error {
	if err := reg.Register(strategyDecisions); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
	}
	return reg.Register(NewThreadCollector(threads))
}
