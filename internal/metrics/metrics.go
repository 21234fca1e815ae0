package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "browserlog_reports_total",
		Help: "The total number of error reports received, by outcome",
	}, []string{"outcome"})

	EntriesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "browserlog_entries_appended_total",
		Help: "Total number of entries appended to the log store",
	}, []string{"category"})

	Rotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "browserlog_rotations_total",
		Help: "Total number of log file rotations",
	}, []string{"category"})
)
